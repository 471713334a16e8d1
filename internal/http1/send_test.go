package http1_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-client/internal/http1"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/jrsteele09/go-oauth-client/stream/streamfake"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://auth.example.com/token", strings.NewReader("a=1&b=2"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", oauth2.FormContentType)
	return req
}

const okResponse = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 11\r\n\r\n{\"ok\":true}"

func TestSend(t *testing.T) {
	t.Run("content-length response read byte by byte", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		conn := streamfake.NewConn(okResponse)
		conn.MaxRead = 1
		resp, err := stream.Run[*http1.Response](context.Background(), conn, send)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, resp.IsSuccess())
		require.Equal(t, `{"ok":true}`, string(resp.Body))
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		written := conn.Written()
		require.True(t, strings.HasPrefix(written, "POST /token HTTP/1.1\r\n"))
		require.Contains(t, written, "Host: auth.example.com\r\n")
		require.Contains(t, written, "Content-Type: application/x-www-form-urlencoded\r\n")
		require.True(t, strings.HasSuffix(written, "\r\n\r\na=1&b=2"))
	})

	t.Run("short writes are continued", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		conn := streamfake.NewConn(okResponse)
		conn.MaxWrite = 5
		_, err = stream.Run[*http1.Response](context.Background(), conn, send)
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(conn.Written(), "a=1&b=2"))
	})

	t.Run("chunked response", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		raw := "HTTP/1.1 400 Bad Request\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"9\r\n{\"error\":\r\n10\r\n\"invalid_grant\"}\r\n0\r\n\r\n"
		conn := streamfake.NewConn(raw)
		conn.MaxRead = 7
		resp, err := stream.Run[*http1.Response](context.Background(), conn, send)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.False(t, resp.IsSuccess())
		require.Equal(t, `{"error":"invalid_grant"}`, string(resp.Body))
	})

	t.Run("body delimited by connection close", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		raw := "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n{\"a\":1}"
		conn := streamfake.NewConn(raw)
		conn.MaxRead = 3
		resp, err := stream.Run[*http1.Response](context.Background(), conn, send)
		require.NoError(t, err)
		require.Equal(t, `{"a":1}`, string(resp.Body))
	})

	t.Run("interim responses are skipped", func(t *testing.T) {
		for _, interim := range []string{
			"HTTP/1.1 100 Continue\r\n\r\n",
			"HTTP/1.1 103 Early Hints\r\nLink: </style.css>; rel=preload\r\n\r\nHTTP/1.1 100 Continue\r\n\r\n",
		} {
			send, err := http1.NewSend(newRequest(t))
			require.NoError(t, err)

			conn := streamfake.NewConn(interim + okResponse)
			conn.MaxRead = 4
			resp, err := stream.Run[*http1.Response](context.Background(), conn, send)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, `{"ok":true}`, string(resp.Body))
			require.Empty(t, resp.Header.Get("Link"))
		}
	})

	t.Run("interim response alone is truncated", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		_, err = stream.Run[*http1.Response](context.Background(), streamfake.NewConn("HTTP/1.1 100 Continue\r\n\r\n"), send)
		require.ErrorIs(t, err, http1.ErrMalformedResponse)
	})

	t.Run("truncated response", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		_, err = stream.Run[*http1.Response](context.Background(), streamfake.NewConn(okResponse[:len(okResponse)-3]), send)
		require.ErrorIs(t, err, http1.ErrMalformedResponse)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("truncated headers", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		_, err = stream.Run[*http1.Response](context.Background(), streamfake.NewConn("HTTP/1.1 200 OK\r\nContent-Le"), send)
		require.ErrorIs(t, err, http1.ErrMalformedResponse)
	})

	t.Run("garbage response", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		_, err = stream.Run[*http1.Response](context.Background(), streamfake.NewConn("SMTP ready\r\n\r\n"), send)
		require.ErrorIs(t, err, http1.ErrMalformedResponse)
	})

	t.Run("write failure is a transport error", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		boom := errors.New("connection reset")
		_, err = stream.Run[*http1.Response](context.Background(), &streamfake.Conn{WriteErr: boom}, send)
		require.ErrorIs(t, err, oauth2.ErrTransport)
		require.ErrorIs(t, err, boom)

		var terr *oauth2.TransportError
		require.ErrorAs(t, err, &terr)
		require.Equal(t, "write", terr.Op)
	})

	t.Run("read failure is a transport error", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		boom := errors.New("timeout")
		_, err = stream.Run[*http1.Response](context.Background(), &streamfake.Conn{ReadErr: boom}, send)
		require.ErrorIs(t, err, oauth2.ErrTransport)
		require.ErrorIs(t, err, boom)
	})
}

func TestSendResume(t *testing.T) {
	t.Run("nil resume re-emits the pending operation", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		first, resp, err := send.Resume(nil)
		require.NoError(t, err)
		require.Nil(t, resp)
		require.Equal(t, stream.Write, first.Kind)

		again, _, err := send.Resume(nil)
		require.NoError(t, err)
		require.Equal(t, first.Buf, again.Buf)
	})

	t.Run("wrong outcome kind", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		_, _, err = send.Resume(nil)
		require.NoError(t, err)

		_, _, err = send.Resume(&stream.Io{Kind: stream.Read})
		require.ErrorIs(t, err, stream.ErrUnexpectedIo)
	})

	t.Run("empty read without error asks again", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		write, _, err := send.Resume(nil)
		require.NoError(t, err)
		write.N = len(write.Buf)

		read, _, err := send.Resume(write)
		require.NoError(t, err)
		require.Equal(t, stream.Read, read.Kind)

		read.N = 0
		next, resp, err := send.Resume(read)
		require.NoError(t, err)
		require.Nil(t, resp)
		require.Equal(t, stream.Read, next.Kind)

		next.N = copy(next.Buf, okResponse)
		next, resp, err = send.Resume(next)
		require.NoError(t, err)
		require.Nil(t, next)
		require.Equal(t, `{"ok":true}`, string(resp.Body))
	})

	t.Run("completed exchange keeps returning the response", func(t *testing.T) {
		send, err := http1.NewSend(newRequest(t))
		require.NoError(t, err)

		resp, err := stream.Run[*http1.Response](context.Background(), streamfake.NewConn(okResponse), send)
		require.NoError(t, err)

		next, again, err := send.Resume(nil)
		require.NoError(t, err)
		require.Nil(t, next)
		require.Same(t, resp, again)
	})
}

func TestNewSend(t *testing.T) {
	t.Run("invalid header value", func(t *testing.T) {
		req := newRequest(t)
		req.Header["X-Bad"] = []string{"line\r\nbreak"}
		_, err := http1.NewSend(req)
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})

	t.Run("invalid header name", func(t *testing.T) {
		req := newRequest(t)
		req.Header["Bad Name"] = []string{"x"}
		_, err := http1.NewSend(req)
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := http1.NewSend(nil)
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})
}
