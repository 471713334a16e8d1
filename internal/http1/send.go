// Package http1 is a sans-I/O HTTP/1.1 client exchange: it serializes one request,
// asks the transport to write it, then asks for reads until a complete response has
// been framed.
package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpguts"
)

// ErrMalformedResponse is returned when the bytes read cannot be framed as an
// HTTP/1.1 response.
var ErrMalformedResponse = errors.New("malformed HTTP response")

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type sendState int

const (
	stateBuilt sendState = iota
	stateWriting
	stateReading
	stateDone
)

// Send is the coroutine for a single request/response exchange.
type Send struct {
	req      *http.Request
	out      []byte
	written  int
	in       []byte
	eof      bool
	readSize int
	state    sendState
	resp     *Response
}

// NewSend serializes req. Header names and values are validated here, so a request
// that could not be written fails before any I/O with oauth2.ErrRequestBuild.
func NewSend(req *http.Request) (*Send, error) {
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("%w: missing request or URL", oauth2.ErrRequestBuild)
	}
	for name, values := range req.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: invalid header name %q", oauth2.ErrRequestBuild, name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, fmt.Errorf("%w: invalid value for header %q", oauth2.ErrRequestBuild, name)
			}
		}
	}

	var buf bytes.Buffer
	if err := req.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", oauth2.ErrRequestBuild, err)
	}

	return &Send{
		req:      req,
		out:      buf.Bytes(),
		readSize: stream.DefaultReadSize,
	}, nil
}

// SetReadSize changes the buffer size requested for each read.
func (s *Send) SetReadSize(n int) {
	if n > 0 {
		s.readSize = n
	}
}

// Resume advances the exchange. It returns the next operation for the transport, or
// the response once complete. Resuming with nil re-emits the pending operation.
func (s *Send) Resume(arg *stream.Io) (*stream.Io, *Response, error) {
	switch s.state {
	case stateBuilt:
		s.state = stateWriting
		return s.pendingWrite(), nil, nil

	case stateWriting:
		if arg == nil {
			return s.pendingWrite(), nil, nil
		}
		if err := arg.Expect(stream.Write); err != nil {
			return nil, nil, err
		}
		if arg.Err != nil {
			return nil, nil, &oauth2.TransportError{Op: "write", Err: arg.Err}
		}
		if arg.N <= 0 {
			return nil, nil, &oauth2.TransportError{Op: "write", Err: io.ErrShortWrite}
		}
		s.written += arg.N
		if s.written < len(s.out) {
			return s.pendingWrite(), nil, nil
		}
		s.wipeOut()
		s.state = stateReading
		return stream.NewRead(s.readSize), nil, nil

	case stateReading:
		if arg == nil {
			return stream.NewRead(s.readSize), nil, nil
		}
		if err := arg.Expect(stream.Read); err != nil {
			return nil, nil, err
		}
		if arg.Err != nil && !errors.Is(arg.Err, io.EOF) {
			return nil, nil, &oauth2.TransportError{Op: "read", Err: arg.Err}
		}
		s.in = append(s.in, arg.Bytes()...)
		if errors.Is(arg.Err, io.EOF) {
			s.eof = true
		}

		resp, complete, err := frame(s.in, s.eof, s.req)
		if err != nil {
			return nil, nil, err
		}
		if !complete {
			if s.eof {
				return nil, nil, fmt.Errorf("%w: %w", ErrMalformedResponse, io.ErrUnexpectedEOF)
			}
			return stream.NewRead(s.readSize), nil, nil
		}
		log.Debug().Int("status", resp.StatusCode).Int("body_bytes", len(resp.Body)).Msg("http response framed")
		s.in = nil
		s.resp = resp
		s.state = stateDone
		return nil, resp, nil
	}

	return nil, s.resp, nil
}

func (s *Send) pendingWrite() *stream.Io {
	return stream.NewWrite(s.out[s.written:])
}

// wipeOut clears the serialized request, which carries codes, verifiers and refresh
// tokens in its body.
func (s *Send) wipeOut() {
	for i := range s.out {
		s.out[i] = 0
	}
	s.out = nil
}

// frame tries to parse raw as a complete response. complete is false when more bytes
// are needed.
func frame(raw []byte, eof bool, req *http.Request) (*Response, bool, error) {
	// A partial status or header line would be misread as malformed.
	if !bytes.Contains(raw, []byte("\r\n\r\n")) && !bytes.Contains(raw, []byte("\n\n")) {
		return nil, false, nil
	}

	src := bytes.NewReader(raw)
	br := bufio.NewReader(src)
	res, err := http.ReadResponse(br, req)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	defer res.Body.Close()

	// Interim 1xx responses other than 101 carry no body and precede the final one
	// (RFC 9110 §15.2).
	if res.StatusCode >= 100 && res.StatusCode < 200 && res.StatusCode != http.StatusSwitchingProtocols {
		consumed := len(raw) - src.Len() - br.Buffered()
		log.Debug().Int("status", res.StatusCode).Msg("interim http response skipped")
		return frame(raw[consumed:], eof, req)
	}

	// Without a length or chunked encoding the body runs until the connection closes.
	if res.ContentLength < 0 && len(res.TransferEncoding) == 0 && !eof {
		return nil, false, nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, true, nil
}
