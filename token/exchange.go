package token

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth-client/internal/http1"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/rs/zerolog/log"
)

// Params is a grant-specific token request body.
type Params interface {
	GrantType() oauth2.GrantType
	Validate() error
	// Encode returns the form-urlencoded body. It exposes secrets.
	Encode() string
}

// Phase is the position of an Exchange in its lifecycle.
type Phase int

const (
	// PhaseBuilt: the request is serialized, nothing has been sent.
	PhaseBuilt Phase = iota
	// PhaseAwaitingIO: an I/O operation was emitted and the exchange is suspended.
	PhaseAwaitingIO
	// PhaseComplete: terminal, holding a response or an error.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseBuilt:
		return "built"
	case PhaseAwaitingIO:
		return "awaiting_io"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Exchange is the sans-I/O coroutine shared by every token endpoint grant: it posts
// the form body, then classifies the response by status class and JSON shape.
//
// Drive it by calling Resume(nil), performing each returned *stream.Io on a transport
// and feeding the outcome back to Resume, until Resume returns a nil *stream.Io.
// stream.Run does exactly that over an io.ReadWriter.
type Exchange struct {
	id     uuid.UUID
	grant  oauth2.GrantType
	send   *http1.Send
	phase  Phase
	result *AccessTokenResponse
	err    error
}

// NewExchange builds the request from req, which supplies the token endpoint URL and
// any extra headers (Host, Authorization for client authentication). The method must
// be POST or empty. The body replaces any body already set on req.
func NewExchange(req *http.Request, params Params) (*Exchange, error) {
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("%w: missing request or URL", oauth2.ErrRequestBuild)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: missing params", oauth2.ErrRequestBuild)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	req = req.Clone(req.Context())
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	switch req.Method {
	case "":
		req.Method = http.MethodPost
	case http.MethodPost:
	default:
		return nil, fmt.Errorf("%w: token requests use POST, got %s", oauth2.ErrRequestBuild, req.Method)
	}

	body := []byte(params.Encode())
	req.Header.Set("Content-Type", oauth2.FormContentType)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = nil

	send, err := http1.NewSend(req)
	for i := range body {
		body[i] = 0
	}
	if err != nil {
		return nil, err
	}

	e := &Exchange{
		id:    uuid.New(),
		grant: params.GrantType(),
		send:  send,
	}
	log.Debug().
		Str("exchange_id", e.id.String()).
		Str("grant_type", string(e.grant)).
		Str("endpoint", req.URL.Redacted()).
		Msg("token request built")
	return e, nil
}

// ID returns the correlation id used in log lines.
func (e *Exchange) ID() uuid.UUID {
	return e.id
}

// Phase returns the current lifecycle phase.
func (e *Exchange) Phase() Phase {
	return e.phase
}

// SetReadSize changes the buffer size requested for each read.
func (e *Exchange) SetReadSize(n int) {
	e.send.SetReadSize(n)
}

// Resume advances the exchange with the outcome of the last requested operation
// (nil on the first call). It returns either the next operation to perform or, once
// complete, the parsed response. Errors are terminal:
//   - *oauth2.TransportError for failures reported by the transport
//   - http1.ErrMalformedResponse when the bytes are not an HTTP response
//   - *oauth2.ResponseParseError when the body does not match its status class
//
// A grant rejected by the server is not an error: it is AccessTokenResponse.Error.
func (e *Exchange) Resume(arg *stream.Io) (*stream.Io, *AccessTokenResponse, error) {
	if e.phase == PhaseComplete {
		return nil, e.result, e.err
	}

	next, resp, err := e.send.Resume(arg)
	if err != nil {
		return e.complete(nil, err)
	}
	if next != nil {
		e.phase = PhaseAwaitingIO
		return next, nil, nil
	}

	result, err := ParseResponse(resp.StatusCode, resp.Body)
	if err == nil {
		logger := log.Debug().Str("exchange_id", e.id.String()).Int("status", resp.StatusCode)
		if result.Success != nil {
			logger.Object("token", result.Success).Msg("access token issued")
		} else {
			logger.Str("error", string(result.Error.Code)).Msg("token request rejected")
		}
	}
	return e.complete(result, err)
}

func (e *Exchange) complete(result *AccessTokenResponse, err error) (*stream.Io, *AccessTokenResponse, error) {
	e.phase = PhaseComplete
	e.result = result
	e.err = err
	if err != nil {
		log.Debug().Str("exchange_id", e.id.String()).Err(err).Msg("token exchange failed")
	}
	return nil, result, err
}
