// Package jwt inspects access tokens that happen to be JWTs.
//
// OAuth 2.0 access tokens are opaque to the client. Many servers nevertheless issue
// JWTs, and reading their exp claim is handy when expires_in was omitted. Nothing here
// verifies a signature: never use these claims for authorization decisions.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/token"
)

// ErrNotJWT is returned for access tokens that are not compact JWS strings.
var ErrNotJWT = errors.New("access token is not a JWT")

// Claims is the subset of registered claims useful to a client.
type Claims struct {
	Issuer    string
	Subject   string
	Audience  []string
	ExpiresAt *time.Time
	IssuedAt  *time.Time
	Scope     string
}

// Inspect parses the claims of accessToken without verifying it.
func Inspect(accessToken oauth2.Secret) (*Claims, error) {
	raw := string(accessToken.Expose())
	if strings.Count(raw, ".") != 2 {
		return nil, ErrNotJWT
	}

	mapClaims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}

	claims := &Claims{}
	var err error
	if claims.Issuer, err = mapClaims.GetIssuer(); err != nil {
		return nil, err
	}
	if claims.Subject, err = mapClaims.GetSubject(); err != nil {
		return nil, err
	}
	aud, err := mapClaims.GetAudience()
	if err != nil {
		return nil, err
	}
	claims.Audience = aud
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp != nil {
		claims.ExpiresAt = &exp.Time
	}
	iat, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	if iat != nil {
		claims.IssuedAt = &iat.Time
	}
	if scope, ok := mapClaims["scope"].(string); ok {
		claims.Scope = scope
	}
	return claims, nil
}

// ExpiresAt returns the expiry of the access token in success: from expires_in when
// the server sent it, otherwise from the exp claim of a JWT access token.
func ExpiresAt(success *token.SuccessParams) (time.Time, bool) {
	if at, ok := success.ExpiresAt(); ok {
		return at, true
	}
	claims, err := Inspect(success.AccessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return *claims.ExpiresAt, true
}
