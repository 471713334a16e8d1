package authcode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-client/authcode/pkce"
	"github.com/jrsteele09/go-oauth-client/internal/form"
	"github.com/jrsteele09/go-oauth-client/oauth2"
)

// AuthorizationRequestParams holds the parameters of the authorization request
// (RFC 6749 §4.1.1). They are added to the query component of the authorization
// endpoint URI using the application/x-www-form-urlencoded format.
type AuthorizationRequestParams struct {
	// ClientID is the client identifier issued at registration (§2.2). Not a secret.
	// Required: Yes
	ClientID string

	// RedirectURI is the redirection endpoint (§3.1.2). Must be absolute and carry
	// no fragment.
	// Required: No ("" omits it)
	RedirectURI string

	// Scope is the scope of the access request (§3.3).
	// Required: No (empty omits it)
	Scope oauth2.Scope

	// State is the anti-CSRF value (§10.12). Strongly recommended.
	// Required: No (nil omits it)
	State *State

	// PKCE is the code challenge (RFC 7636 §4.3).
	// Required: No (nil disables PKCE)
	PKCE *pkce.Challenge
}

// Validate checks the parameters before encoding.
func (p *AuthorizationRequestParams) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", oauth2.ErrRequestBuild)
	}
	if p.RedirectURI != "" {
		u, err := url.Parse(p.RedirectURI)
		if err != nil {
			return fmt.Errorf("%w: redirect_uri: %w", oauth2.ErrRequestBuild, err)
		}
		if !u.IsAbs() || u.Fragment != "" {
			return fmt.Errorf("%w: redirect_uri must be absolute without fragment", oauth2.ErrRequestBuild)
		}
	}
	if p.PKCE != nil {
		if p.PKCE.Verifier == nil || p.PKCE.Verifier.Len() == 0 {
			return fmt.Errorf("%w: PKCE challenge without verifier", oauth2.ErrRequestBuild)
		}
		if !p.PKCE.MethodOrDefault().Valid() {
			return fmt.Errorf("%w: unsupported code_challenge_method %q", oauth2.ErrRequestBuild, p.PKCE.Method)
		}
	}
	return nil
}

// Encode returns the query string:
//
//	response_type=code&client_id=…[&state=…][&redirect_uri=…][&scope=…][&code_challenge=…&code_challenge_method=…]
//
// The output exposes the state.
func (p *AuthorizationRequestParams) Encode() string {
	var s form.Serializer
	s.Append("response_type", string(oauth2.CodeResponseType))
	s.Append("client_id", p.ClientID)
	if p.State != nil {
		s.Append("state", string(p.State.Expose()))
	}
	s.AppendIf("redirect_uri", p.RedirectURI)
	if !p.Scope.IsEmpty() {
		s.Append("scope", p.Scope.String())
	}
	if p.PKCE != nil && p.PKCE.Verifier != nil {
		s.Append("code_challenge", p.PKCE.Encode())
		s.Append("code_challenge_method", string(p.PKCE.MethodOrDefault()))
	}
	return s.Finish()
}

// AuthorizationURI validates the parameters and returns endpoint with the encoded
// query appended. A query already present on endpoint is retained.
func (p *AuthorizationRequestParams) AuthorizationURI(endpoint string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: authorization endpoint: %w", oauth2.ErrRequestBuild, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: authorization endpoint must be absolute", oauth2.ErrRequestBuild)
	}
	if u.RawQuery == "" {
		u.RawQuery = p.Encode()
	} else {
		u.RawQuery = u.RawQuery + "&" + p.Encode()
	}
	return u.String(), nil
}
