package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/rs/zerolog"
	xoauth2 "golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// SuccessParams is the response of the authorization server when the access token
// request is valid and authorized (RFC 6749 §5.1).
type SuccessParams struct {
	// AccessToken is the credential used to access protected resources.
	AccessToken oauth2.Secret

	// TokenType indicates how to use the access token (§7.1).
	// Example: "Bearer"
	TokenType string

	// ExpiresIn is the lifetime in seconds of the access token, counted from IssuedAt.
	// nil when the server did not send one. Call SyncExpiresIn before trusting it.
	ExpiresIn *uint64

	// RefreshToken is used to obtain new access tokens with the refresh grant (§6).
	// nil when none was issued.
	RefreshToken *oauth2.Secret

	// Scope is the granted scope, space-delimited. Empty when identical to the
	// requested scope.
	Scope string

	// IssuedAt is the reference instant of ExpiresIn. It is captured when the response
	// is parsed, not when the server issued the token: the protocol carries no server
	// timestamp, so latency between issuance and parsing is assumed negligible.
	// SyncExpiresIn moves it forward by the seconds it deducts.
	IssuedAt time.Time
}

// successWire is the JSON shape of a success body (§5.1).
type successWire struct {
	AccessToken  *string `json:"access_token"`
	TokenType    *string `json:"token_type"`
	ExpiresIn    *uint64 `json:"expires_in,omitempty"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	Scope        string  `json:"scope,omitempty"`
}

// storedWire is the shape written by ExposeJSON. issued_at is not part of the
// protocol and is only trusted when restoring persisted params.
type storedWire struct {
	successWire
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

// ParseSuccess deserializes a success body received from the server.
// access_token and token_type are required. IssuedAt is always the parse time; any
// issued_at extension sent by the server is ignored.
func ParseSuccess(body []byte) (*SuccessParams, error) {
	var wire successWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	return wire.params(NowTimeFunc())
}

// ParseStored restores params serialized by ExposeJSON, including IssuedAt.
// Params stored without issued_at are stamped with the current time.
func ParseStored(data []byte) (*SuccessParams, error) {
	var wire storedWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	issuedAt := NowTimeFunc()
	if wire.IssuedAt != nil {
		issuedAt = *wire.IssuedAt
	}
	return wire.params(issuedAt)
}

func (w successWire) params(issuedAt time.Time) (*SuccessParams, error) {
	if w.AccessToken == nil {
		return nil, errors.New("missing field access_token")
	}
	if w.TokenType == nil {
		return nil, errors.New("missing field token_type")
	}

	p := &SuccessParams{
		AccessToken: oauth2.NewSecret(*w.AccessToken),
		TokenType:   *w.TokenType,
		ExpiresIn:   w.ExpiresIn,
		Scope:       w.Scope,
		IssuedAt:    issuedAt,
	}
	if w.RefreshToken != nil {
		rt := oauth2.NewSecret(*w.RefreshToken)
		p.RefreshToken = &rt
	}
	return p, nil
}

// ExposeJSON serializes the params, access and refresh tokens in cleartext, so the
// caller can persist them. ParseStored restores the result including IssuedAt.
func (p *SuccessParams) ExposeJSON() ([]byte, error) {
	accessToken := string(p.AccessToken.Expose())
	wire := storedWire{
		successWire: successWire{
			AccessToken: &accessToken,
			TokenType:   &p.TokenType,
			ExpiresIn:   p.ExpiresIn,
			Scope:       p.Scope,
		},
		IssuedAt: &p.IssuedAt,
	}
	if p.RefreshToken != nil {
		rt := string(p.RefreshToken.Expose())
		wire.RefreshToken = &rt
	}
	return json.Marshal(wire)
}

// SyncExpiresIn deducts the whole seconds elapsed since IssuedAt from ExpiresIn,
// flooring at zero, and moves IssuedAt forward by the same amount. It does nothing
// without ExpiresIn or when IssuedAt is in the future (clock skew). Repeated calls
// never count the same second twice.
func (p *SuccessParams) SyncExpiresIn() {
	if p.ExpiresIn == nil {
		return
	}
	now := NowTimeFunc()
	if now.Before(p.IssuedAt) {
		return
	}
	elapsed := uint64(now.Sub(p.IssuedAt) / time.Second)
	if elapsed == 0 {
		return
	}
	remaining := *p.ExpiresIn - min(elapsed, *p.ExpiresIn)
	p.ExpiresIn = &remaining
	p.IssuedAt = p.IssuedAt.Add(time.Duration(elapsed) * time.Second)
}

// ExpiresAt returns the instant the access token expires, if a lifetime is known.
func (p *SuccessParams) ExpiresAt() (time.Time, bool) {
	if p.ExpiresIn == nil {
		return time.Time{}, false
	}
	return p.IssuedAt.Add(time.Duration(*p.ExpiresIn) * time.Second), true
}

// Expired reports whether the token expires within leeway from now. A token without
// a known lifetime is never reported expired.
func (p *SuccessParams) Expired(leeway time.Duration) bool {
	at, ok := p.ExpiresAt()
	if !ok {
		return false
	}
	return !NowTimeFunc().Add(leeway).Before(at)
}

// GrantedScope parses Scope.
func (p *SuccessParams) GrantedScope() (oauth2.Scope, error) {
	return oauth2.ParseScope(p.Scope)
}

// OAuth2Token converts the params to a golang.org/x/oauth2 token, for use with
// xoauth2.StaticTokenSource and the HTTP clients built on it. The result holds the
// tokens in cleartext.
func (p *SuccessParams) OAuth2Token() *xoauth2.Token {
	t := &xoauth2.Token{
		AccessToken: string(p.AccessToken.Expose()),
		TokenType:   p.TokenType,
	}
	if p.RefreshToken != nil {
		t.RefreshToken = string(p.RefreshToken.Expose())
	}
	if at, ok := p.ExpiresAt(); ok {
		t.Expiry = at
		t.ExpiresIn = int64(*p.ExpiresIn)
	}
	if p.Scope != "" {
		t = t.WithExtra(map[string]interface{}{"scope": p.Scope})
	}
	return t
}

// Zeroize wipes the access and refresh tokens.
func (p *SuccessParams) Zeroize() {
	p.AccessToken.Zeroize()
	if p.RefreshToken != nil {
		p.RefreshToken.Zeroize()
	}
}

// MarshalZerologObject logs the non-secret fields.
func (p *SuccessParams) MarshalZerologObject(e *zerolog.Event) {
	e.Str("token_type", p.TokenType).
		Bool("refresh_token", p.RefreshToken != nil).
		Time("issued_at", p.IssuedAt)
	if p.ExpiresIn != nil {
		e.Uint64("expires_in", *p.ExpiresIn)
	}
	if p.Scope != "" {
		e.Str("scope", p.Scope)
	}
}

// ErrorCode is the error parameter of a token endpoint error response (§5.2).
type ErrorCode string

const (
	// InvalidClient means client authentication failed.
	InvalidClient ErrorCode = "invalid_client"
	// InvalidGrant means the authorization code or refresh token is invalid, expired,
	// revoked, does not match the redirection URI, or was issued to another client.
	InvalidGrant ErrorCode = "invalid_grant"
	// InvalidRequest means a parameter is missing, unsupported, repeated or malformed.
	InvalidRequest ErrorCode = "invalid_request"
	// InvalidScope means the requested scope is invalid, unknown, malformed, or
	// exceeds the scope granted by the resource owner.
	InvalidScope ErrorCode = "invalid_scope"
	// UnauthorizedClient means the client may not use this grant type.
	UnauthorizedClient ErrorCode = "unauthorized_client"
	// UnsupportedGrantType means the server does not support the grant type.
	UnsupportedGrantType ErrorCode = "unsupported_grant_type"
)

// UnmarshalText accepts only the six codes of RFC 6749 §5.2.
func (c *ErrorCode) UnmarshalText(text []byte) error {
	code := ErrorCode(text)
	switch code {
	case InvalidClient, InvalidGrant, InvalidRequest, InvalidScope, UnauthorizedClient, UnsupportedGrantType:
		*c = code
		return nil
	}
	return fmt.Errorf("unknown error code %q", string(text))
}

// ErrorParams is the response of the authorization server when the access token
// request is not valid or unauthorized (§5.2). It is a normal outcome of an exchange,
// not a failure of it; it implements error for callers who want to propagate it.
type ErrorParams struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
	URI         string    `json:"error_uri,omitempty"`
}

// ParseError deserializes an error body. The error field is required.
func ParseError(body []byte) (*ErrorParams, error) {
	var wire struct {
		Code        *ErrorCode `json:"error"`
		Description string     `json:"error_description"`
		URI         string     `json:"error_uri"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	if wire.Code == nil {
		return nil, errors.New("missing field error")
	}
	return &ErrorParams{Code: *wire.Code, Description: wire.Description, URI: wire.URI}, nil
}

func (e *ErrorParams) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("token request rejected: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("token request rejected: %s", e.Code)
}

// AccessTokenResponse is the outcome of a token exchange: exactly one field is set.
type AccessTokenResponse struct {
	Success *SuccessParams
	Error   *ErrorParams
}

// IsSuccess reports whether a token was issued.
func (r *AccessTokenResponse) IsSuccess() bool {
	return r.Success != nil
}

// Err returns the grant error, or nil on success.
func (r *AccessTokenResponse) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// ParseResponse classifies a token endpoint response: 2xx bodies must be success
// params, every other status an error params body. A body that does not match the
// shape of its status class is an *oauth2.ResponseParseError.
func ParseResponse(statusCode int, body []byte) (*AccessTokenResponse, error) {
	if statusCode >= 200 && statusCode < 300 {
		success, err := ParseSuccess(body)
		if err != nil {
			return nil, &oauth2.ResponseParseError{StatusCode: statusCode, Err: err}
		}
		return &AccessTokenResponse{Success: success}, nil
	}

	grantErr, err := ParseError(body)
	if err != nil {
		return nil, &oauth2.ResponseParseError{StatusCode: statusCode, Err: err}
	}
	return &AccessTokenResponse{Error: grantErr}, nil
}
