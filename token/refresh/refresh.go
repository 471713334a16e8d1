// Package refresh implements the refresh token grant (RFC 6749 §6).
package refresh

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-client/internal/form"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/token"
)

// ErrNoRefreshToken is returned by FromSuccess when the server issued no refresh token.
var ErrNoRefreshToken = errors.New("no refresh token issued")

// Params holds the refresh access token request parameters.
type Params struct {
	ClientID     string
	RefreshToken oauth2.Secret

	// Scope must not include any scope not originally granted. Empty keeps the
	// original scope.
	Scope oauth2.Scope
}

// NewParams builds params for refreshToken with an empty scope.
func NewParams(clientID string, refreshToken oauth2.Secret) *Params {
	return &Params{
		ClientID:     clientID,
		RefreshToken: refreshToken,
	}
}

// FromSuccess builds params from the refresh token of a previous token response.
// The params share the token storage with success: zeroizing one wipes both.
func FromSuccess(clientID string, success *token.SuccessParams) (*Params, error) {
	if success == nil || success.RefreshToken == nil || success.RefreshToken.IsEmpty() {
		return nil, ErrNoRefreshToken
	}
	return NewParams(clientID, *success.RefreshToken), nil
}

// GrantType implements token.Params.
func (p *Params) GrantType() oauth2.GrantType {
	return oauth2.RefreshTokenGrant
}

// Validate implements token.Params.
func (p *Params) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", oauth2.ErrRequestBuild)
	}
	if p.RefreshToken.IsEmpty() {
		return fmt.Errorf("%w: refresh_token is required", oauth2.ErrRequestBuild)
	}
	return nil
}

// Encode returns the body:
//
//	grant_type=refresh_token&client_id=…&refresh_token=…[&scope=…]
//
// The output exposes the refresh token.
func (p *Params) Encode() string {
	var s form.Serializer
	s.Append("grant_type", string(oauth2.RefreshTokenGrant))
	s.Append("client_id", p.ClientID)
	s.Append("refresh_token", string(p.RefreshToken.Expose()))
	if !p.Scope.IsEmpty() {
		s.Append("scope", p.Scope.String())
	}
	return s.Finish()
}

// RefreshAccessToken is the sans-I/O coroutine refreshing an access token. It is
// driven exactly like token.Exchange.
type RefreshAccessToken struct {
	*token.Exchange
}

// New builds the coroutine. req carries the token endpoint.
func New(req *http.Request, params *Params) (*RefreshAccessToken, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: missing params", oauth2.ErrRequestBuild)
	}
	ex, err := token.NewExchange(req, params)
	if err != nil {
		return nil, err
	}
	return &RefreshAccessToken{Exchange: ex}, nil
}
