package authcode

import (
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-oauth-client/internal/errors"
	"github.com/jrsteele09/go-oauth-client/oauth2"
)

// AuthorizationErrorCode is the error parameter of a failed authorization response
// (RFC 6749 §4.1.2.1).
type AuthorizationErrorCode string

const (
	ErrorInvalidRequest          AuthorizationErrorCode = "invalid_request"
	ErrorUnauthorizedClient      AuthorizationErrorCode = "unauthorized_client"
	ErrorAccessDenied            AuthorizationErrorCode = "access_denied"
	ErrorUnsupportedResponseType AuthorizationErrorCode = "unsupported_response_type"
	ErrorInvalidScope            AuthorizationErrorCode = "invalid_scope"
	ErrorServerError             AuthorizationErrorCode = "server_error"
	ErrorTemporarilyUnavailable  AuthorizationErrorCode = "temporarily_unavailable"
)

// Known reports whether c is one of the codes defined by RFC 6749.
func (c AuthorizationErrorCode) Known() bool {
	switch c {
	case ErrorInvalidRequest, ErrorUnauthorizedClient, ErrorAccessDenied,
		ErrorUnsupportedResponseType, ErrorInvalidScope, ErrorServerError,
		ErrorTemporarilyUnavailable:
		return true
	}
	return false
}

// AuthorizationError is the error half of an authorization response.
type AuthorizationError struct {
	Code        AuthorizationErrorCode
	Description string
	URI         string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// AuthorizationResponseParams is the parsed redirect callback (RFC 6749 §4.1.2).
// Exactly one of Code and Error is set. State is whatever the server returned; compare
// it with the issued one using CheckState or VerifyState.
type AuthorizationResponseParams struct {
	Code  string
	State *State
	Error *AuthorizationError
}

// ParseCallbackURI parses the redirect target the user agent was sent to.
func ParseCallbackURI(uri string) (*AuthorizationResponseParams, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Join(oauth2.ErrMalformedCallback, err)
	}
	return ParseCallbackURL(u)
}

// ParseCallbackURL parses the query component of u.
func ParseCallbackURL(u *url.URL) (*AuthorizationResponseParams, error) {
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, errors.Join(oauth2.ErrMalformedCallback, err)
	}
	return ParseCallbackQuery(query)
}

// ParseCallbackQuery parses already decoded callback parameters, for callers receiving
// the callback through an HTTP handler (r.URL.Query() or r.Form).
func ParseCallbackQuery(query url.Values) (*AuthorizationResponseParams, error) {
	// Parameters must not be included more than once (RFC 6749 §3.1).
	for _, name := range []string{"code", "state", "error", "error_description", "error_uri"} {
		if len(query[name]) > 1 {
			return nil, fmt.Errorf("%w: repeated parameter %q", oauth2.ErrMalformedCallback, name)
		}
	}

	params := &AuthorizationResponseParams{}
	if query.Has("state") {
		params.State = ParseState(query.Get("state"))
	}

	_, hasCode := query["code"]
	_, hasError := query["error"]

	switch {
	case hasError && hasCode:
		return nil, fmt.Errorf("%w: both code and error present", oauth2.ErrMalformedCallback)

	case hasError:
		code := query.Get("error")
		if code == "" {
			return nil, fmt.Errorf("%w: empty error parameter", oauth2.ErrMalformedCallback)
		}
		params.Error = &AuthorizationError{
			Code:        AuthorizationErrorCode(code),
			Description: query.Get("error_description"),
			URI:         query.Get("error_uri"),
		}

	case hasCode:
		params.Code = query.Get("code")
		if params.Code == "" {
			return nil, fmt.Errorf("%w: empty code parameter", oauth2.ErrMalformedCallback)
		}

	default:
		return nil, fmt.Errorf("%w: neither code nor error present", oauth2.ErrMalformedCallback)
	}

	return params, nil
}

// VerifyState checks the returned state against the issued one.
func (p *AuthorizationResponseParams) VerifyState(issued *State) error {
	return CheckState(issued, p.State)
}

// Err returns the authorization error, or nil for a success response.
func (p *AuthorizationResponseParams) Err() error {
	if p.Error == nil {
		return nil
	}
	return p.Error
}
