package oauth2

import (
	"errors"
	"fmt"
)

var (
	// ErrCsrfStateMismatch is returned when the state in a callback differs from the
	// one issued with the authorization request, or is missing. The flow must be aborted.
	ErrCsrfStateMismatch = errors.New("anti-CSRF state mismatch")

	// ErrMalformedCallback is returned when a redirect URI lacks the parameters of
	// either a success or an error authorization response.
	ErrMalformedCallback = errors.New("malformed authorization callback")

	// ErrInvalidPkceCharacter matches any *InvalidPkceCharacterError.
	ErrInvalidPkceCharacter = errors.New("invalid PKCE code verifier character")

	// ErrRequestBuild is returned when an HTTP request could not be constructed.
	// No I/O has happened when it is returned.
	ErrRequestBuild = errors.New("cannot build request")

	// ErrResponseParse matches any *ResponseParseError.
	ErrResponseParse = errors.New("cannot parse token response")

	// ErrTransport matches any *TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrInvalidScopeToken is returned for empty scope tokens or tokens containing
	// characters outside %x21 / %x23-5B / %x5D-7E.
	ErrInvalidScopeToken = errors.New("invalid scope token")
)

// InvalidPkceCharacterError reports the first byte of a code verifier that is not
// part of the unreserved alphabet.
type InvalidPkceCharacterError struct {
	Byte   byte
	Offset int
}

func (e *InvalidPkceCharacterError) Error() string {
	return fmt.Sprintf("invalid byte 0x%02x at offset %d in PKCE code verifier", e.Byte, e.Offset)
}

func (e *InvalidPkceCharacterError) Is(target error) bool {
	return target == ErrInvalidPkceCharacter
}

// ResponseParseError reports a token endpoint body that matched neither the success
// nor the error shape expected for its status class. It is distinct from a grant error
// explicitly reported by the server.
type ResponseParseError struct {
	StatusCode int
	Err        error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("cannot parse token response (status %d): %v", e.StatusCode, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

func (e *ResponseParseError) Is(target error) bool {
	return target == ErrResponseParse
}

// TransportError wraps a failure reported by the transport during a suspend/resume
// round trip. It is propagated verbatim and never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
