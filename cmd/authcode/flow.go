package main

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-oauth-client/authcode"
	"github.com/jrsteele09/go-oauth-client/authcode/pkce"
	"github.com/jrsteele09/go-oauth-client/callback"
	"github.com/jrsteele09/go-oauth-client/internal/config"
	"github.com/jrsteele09/go-oauth-client/internal/errors"
	"github.com/jrsteele09/go-oauth-client/internal/utils"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/jrsteele09/go-oauth-client/token"
	"github.com/jrsteele09/go-oauth-client/token/jwt"
	"github.com/jrsteele09/go-oauth-client/token/refresh"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

const refreshTokenVar = "REFRESH_TOKEN"

type clientSettings struct {
	clientID    string
	redirectURI string
	scope       oauth2.Scope
	endpoint    xoauth2.Endpoint
}

func loadSettings(c config.Config, p *prompter, withAuthorization bool) (*clientSettings, error) {
	var (
		s   clientSettings
		err error
	)
	if s.clientID, err = p.valueOr(c.GetClientID(), "Client ID?"); err != nil {
		return nil, err
	}
	scope := c.GetScope()
	endpoint := c.GetEndpoint()
	if withAuthorization {
		if s.redirectURI, err = p.valueOr(c.GetRedirectURI(), "Redirect URI?"); err != nil {
			return nil, err
		}
		if scope, err = p.valueOr(scope, "Scope?"); err != nil {
			return nil, err
		}
		if endpoint.AuthURL, err = p.valueOr(endpoint.AuthURL, "Authorization URL?"); err != nil {
			return nil, err
		}
	}
	if endpoint.TokenURL, err = p.valueOr(endpoint.TokenURL, "Token URL?"); err != nil {
		return nil, err
	}
	if s.scope, err = oauth2.ParseScope(scope); err != nil {
		return nil, err
	}
	s.endpoint = endpoint
	return &s, nil
}

// authorize runs the whole authorization code grant against the configured server.
func authorize(ctx context.Context, c config.Config, p *prompter, openBrowser, listen bool) error {
	settings, err := loadSettings(c, p, true)
	if err != nil {
		return err
	}

	// 1. authorization request
	state := authcode.NewState()
	var challenge *pkce.Challenge
	if c.GetPKCE() {
		verifier := pkce.NewVerifier(c.GetPKCEVerifierLength())
		defer verifier.Zeroize()
		challenge = &pkce.Challenge{Method: c.GetPKCEMethod(), Verifier: verifier}
	}
	request := &authcode.AuthorizationRequestParams{
		ClientID:    settings.clientID,
		RedirectURI: settings.redirectURI,
		Scope:       settings.scope,
		State:       state,
		PKCE:        challenge,
	}
	authURI, err := request.AuthorizationURI(settings.endpoint.AuthURL)
	if err != nil {
		return err
	}

	var receiver *callback.Server
	if listen {
		if receiver, err = callback.New(settings.redirectURI); err != nil {
			return err
		}
		if err := receiver.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := receiver.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Callback server shutdown")
			}
		}()
	}

	p.println()
	p.println("Navigate to the following URI:", authURI)
	p.println()
	if openBrowser {
		if err := browser.OpenURL(authURI); err != nil {
			log.Warn().Err(err).Msg("Could not open browser, copy the URI above instead")
		}
	}

	// 2. authorization response
	response, err := awaitResponse(ctx, p, receiver)
	if err != nil {
		return err
	}
	if err := response.VerifyState(state); err != nil {
		return err
	}

	// 3. access token request
	var verifier *pkce.Verifier
	if challenge != nil {
		verifier = challenge.Verifier
	}
	params, err := authcode.NewAccessTokenRequestParams(response, settings.clientID, settings.redirectURI, verifier)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.endpoint.TokenURL, nil)
	if err != nil {
		return errors.Join(oauth2.ErrRequestBuild, err)
	}
	send, err := authcode.NewSendAccessTokenRequest(req, params)
	if err != nil {
		return err
	}
	resp, err := exchange(ctx, req.URL, c.GetIOTimeout(), send)
	if err != nil {
		return err
	}

	// 4. access token response
	return printResponse(p, resp)
}

// awaitResponse waits on the loopback receiver when there is one, otherwise it asks
// for the URI the browser was redirected to.
func awaitResponse(ctx context.Context, p *prompter, receiver *callback.Server) (*authcode.AuthorizationResponseParams, error) {
	if receiver != nil {
		p.println("Waiting for the redirect on", receiver.Addr())
		return receiver.Wait(ctx)
	}
	redirected, err := p.ask("Redirected URI?")
	if err != nil {
		return nil, err
	}
	p.println()
	return authcode.ParseCallbackURI(redirected)
}

// refreshToken exchanges a refresh token read from REFRESH_TOKEN or the prompt.
func refreshToken(ctx context.Context, c config.Config, p *prompter) error {
	settings, err := loadSettings(c, p, false)
	if err != nil {
		return err
	}
	raw, err := p.valueOr(config.GetEnv(refreshTokenVar, ""), "Refresh token?")
	if err != nil {
		return err
	}

	params := refresh.NewParams(settings.clientID, oauth2.NewSecret(raw))
	params.Scope = settings.scope
	defer params.RefreshToken.Zeroize()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.endpoint.TokenURL, nil)
	if err != nil {
		return errors.Join(oauth2.ErrRequestBuild, err)
	}
	send, err := refresh.New(req, params)
	if err != nil {
		return err
	}
	resp, err := exchange(ctx, req.URL, c.GetIOTimeout(), send)
	if err != nil {
		return err
	}
	return printResponse(p, resp)
}

// exchange drives a token endpoint coroutine over a fresh connection.
func exchange(ctx context.Context, endpoint *url.URL, timeout time.Duration, c stream.Coroutine[*token.AccessTokenResponse]) (*token.AccessTokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dial(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", endpoint.Host)
	}
	defer conn.Close()

	resp, err := stream.Run(ctx, conn, c)
	if err != nil {
		return nil, errors.Wrapf(err, "token exchange with %s", endpoint.Host)
	}
	return resp, nil
}

// printResponse writes the tokens in cleartext: showing them is the point of the tool.
func printResponse(p *prompter, resp *token.AccessTokenResponse) error {
	if !resp.IsSuccess() {
		return resp.Err()
	}
	success := resp.Success
	defer success.Zeroize()

	p.printf("access token: %s\n", success.AccessToken.Expose())
	p.printf("token type: %s\n", success.TokenType)
	p.printf("expires in: %ds\n", utils.ValueOr(success.ExpiresIn, 0))
	if at, ok := jwt.ExpiresAt(success); ok {
		p.printf("expires at: %s\n", at.Local().Format(time.RFC1123))
	}
	if success.Scope != "" {
		p.printf("scope: %s\n", success.Scope)
	}
	p.println()
	if success.RefreshToken != nil {
		p.printf("refresh token: %s\n", success.RefreshToken.Expose())
	} else {
		p.println("no refresh token")
	}
	return nil
}
