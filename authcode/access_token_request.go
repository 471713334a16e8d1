package authcode

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-client/authcode/pkce"
	"github.com/jrsteele09/go-oauth-client/internal/form"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/token"
)

// AccessTokenRequestParams holds the parameters of the access token request of the
// authorization code grant (RFC 6749 §4.1.3).
type AccessTokenRequestParams struct {
	// Code is the authorization code received in the callback.
	// Required: Yes
	Code string

	// RedirectURI must be identical to the one sent in the authorization request, if any.
	// Required: only if it was included in the authorization request
	RedirectURI string

	// ClientID is the client identifier.
	// Required: Yes
	ClientID string

	// PKCEVerifier is the verifier behind the challenge sent in the authorization request.
	// Required: only if PKCE was used (nil omits it)
	PKCEVerifier *pkce.Verifier
}

// NewAccessTokenRequestParams builds the request for a successful callback.
func NewAccessTokenRequestParams(callback *AuthorizationResponseParams, clientID, redirectURI string, verifier *pkce.Verifier) (*AccessTokenRequestParams, error) {
	if err := callback.Err(); err != nil {
		return nil, err
	}
	return &AccessTokenRequestParams{
		Code:         callback.Code,
		RedirectURI:  redirectURI,
		ClientID:     clientID,
		PKCEVerifier: verifier,
	}, nil
}

// GrantType implements token.Params.
func (p *AccessTokenRequestParams) GrantType() oauth2.GrantType {
	return oauth2.AuthorizationCodeGrant
}

// Validate implements token.Params.
func (p *AccessTokenRequestParams) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: code is required", oauth2.ErrRequestBuild)
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", oauth2.ErrRequestBuild)
	}
	if p.PKCEVerifier != nil && p.PKCEVerifier.Len() == 0 {
		return fmt.Errorf("%w: empty code_verifier", oauth2.ErrRequestBuild)
	}
	return nil
}

// Encode returns the body:
//
//	grant_type=authorization_code&code=…[&redirect_uri=…]&client_id=…[&code_verifier=…]
//
// The output exposes the code and the PKCE verifier.
func (p *AccessTokenRequestParams) Encode() string {
	var s form.Serializer
	s.Append("grant_type", string(oauth2.AuthorizationCodeGrant))
	s.Append("code", p.Code)
	s.AppendIf("redirect_uri", p.RedirectURI)
	s.Append("client_id", p.ClientID)
	if p.PKCEVerifier != nil {
		s.Append("code_verifier", string(p.PKCEVerifier.Expose()))
	}
	return s.Finish()
}

// SendAccessTokenRequest is the sans-I/O coroutine exchanging an authorization code
// for tokens (RFC 6749 §4.1.3, §4.1.4). See token.Exchange for how to drive it.
type SendAccessTokenRequest struct {
	*token.Exchange
}

// NewSendAccessTokenRequest builds the coroutine. req carries the token endpoint;
// the params are serialized into its body with Content-Type
// application/x-www-form-urlencoded.
func NewSendAccessTokenRequest(req *http.Request, params *AccessTokenRequestParams) (*SendAccessTokenRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: missing params", oauth2.ErrRequestBuild)
	}
	ex, err := token.NewExchange(req, params)
	if err != nil {
		return nil, err
	}
	return &SendAccessTokenRequest{Exchange: ex}, nil
}
