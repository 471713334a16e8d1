package token_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-client/internal/http1"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/jrsteele09/go-oauth-client/stream/streamfake"
	"github.com/jrsteele09/go-oauth-client/token"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeParams struct {
	body        string
	validateErr error
}

func (p *fakeParams) GrantType() oauth2.GrantType { return oauth2.AuthorizationCodeGrant }
func (p *fakeParams) Validate() error             { return p.validateErr }
func (p *fakeParams) Encode() string              { return p.body }

func tokenRequest(t *testing.T, method string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, "https://auth.example.com/oauth/token", nil)
	require.NoError(t, err)
	return req
}

const successBody = `{"access_token":"AT","token_type":"Bearer","expires_in":3600}`

func TestExchange(t *testing.T) {
	t.Run("phases from built to complete", func(t *testing.T) {
		ex, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{body: "grant_type=authorization_code&code=c"})
		require.NoError(t, err)
		require.Equal(t, token.PhaseBuilt, ex.Phase())
		require.NotEqual(t, "", ex.ID().String())

		conn := streamfake.NewConn(streamfake.JSONResponse("200 OK", successBody))

		next, resp, err := ex.Resume(nil)
		require.NoError(t, err)
		require.Nil(t, resp)
		require.Equal(t, stream.Write, next.Kind)
		require.Equal(t, token.PhaseAwaitingIO, ex.Phase())

		for next != nil {
			next, resp, err = ex.Resume(stream.Handle(conn, next))
		}
		require.NoError(t, err)
		require.Equal(t, token.PhaseComplete, ex.Phase())
		require.True(t, resp.IsSuccess())
		require.EqualValues(t, 3600, *resp.Success.ExpiresIn)

		written := conn.Written()
		require.True(t, strings.HasPrefix(written, "POST /oauth/token HTTP/1.1\r\n"))
		require.Contains(t, written, "Content-Type: application/x-www-form-urlencoded\r\n")
		require.Contains(t, written, "Accept: application/json\r\n")
		require.Contains(t, written, "Content-Length: 36\r\n")
		require.True(t, strings.HasSuffix(written, "\r\n\r\ngrant_type=authorization_code&code=c"))

		again, same, err := ex.Resume(nil)
		require.NoError(t, err)
		require.Nil(t, again)
		require.Same(t, resp, same)
	})

	t.Run("grant error is a result", func(t *testing.T) {
		ex, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{body: "a=b"})
		require.NoError(t, err)

		conn := streamfake.NewConn(streamfake.JSONResponse("400 Bad Request", `{"error":"invalid_grant"}`))
		conn.MaxRead = 16
		resp, err := stream.Run[*token.AccessTokenResponse](context.Background(), conn, ex)
		require.NoError(t, err)
		require.False(t, resp.IsSuccess())
		require.Equal(t, token.InvalidGrant, resp.Error.Code)
		require.True(t, strings.HasPrefix(conn.Written(), "POST "))
	})

	t.Run("parse error is terminal", func(t *testing.T) {
		ex, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{body: "a=b"})
		require.NoError(t, err)

		conn := streamfake.NewConn(streamfake.JSONResponse("200 OK", `{"error":"invalid_grant"}`))
		_, err = stream.Run[*token.AccessTokenResponse](context.Background(), conn, ex)
		require.ErrorIs(t, err, oauth2.ErrResponseParse)
		require.Equal(t, token.PhaseComplete, ex.Phase())

		_, _, again := ex.Resume(nil)
		require.Equal(t, err, again)
	})

	t.Run("malformed http", func(t *testing.T) {
		ex, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{body: "a=b"})
		require.NoError(t, err)

		_, err = stream.Run[*token.AccessTokenResponse](context.Background(), streamfake.NewConn("not http\r\n\r\n"), ex)
		require.ErrorIs(t, err, http1.ErrMalformedResponse)
	})

	t.Run("transport failure is propagated", func(t *testing.T) {
		ex, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{body: "a=b"})
		require.NoError(t, err)

		boom := errors.New("broken pipe")
		_, err = stream.Run[*token.AccessTokenResponse](context.Background(), &streamfake.Conn{WriteErr: boom}, ex)
		require.ErrorIs(t, err, oauth2.ErrTransport)
		require.ErrorIs(t, err, boom)
	})

	t.Run("extra headers are kept", func(t *testing.T) {
		req := tokenRequest(t, http.MethodPost)
		req.SetBasicAuth("cid", "secret")
		req.Header.Set("Accept", "application/json;charset=UTF-8")

		ex, err := token.NewExchange(req, &fakeParams{body: "a=b"})
		require.NoError(t, err)

		conn := streamfake.NewConn(streamfake.JSONResponse("200 OK", successBody))
		_, err = stream.Run[*token.AccessTokenResponse](context.Background(), conn, ex)
		require.NoError(t, err)
		require.Contains(t, conn.Written(), "Authorization: Basic Y2lkOnNlY3JldA==\r\n")
		require.Contains(t, conn.Written(), "Accept: application/json;charset=UTF-8\r\n")
		require.Empty(t, req.Header.Get("Content-Type"))
	})
}

func TestNewExchange(t *testing.T) {
	t.Run("empty method defaults to post", func(t *testing.T) {
		u, err := url.Parse("https://auth.example.com/oauth/token")
		require.NoError(t, err)

		ex, err := token.NewExchange(&http.Request{URL: u}, &fakeParams{body: "a=b"})
		require.NoError(t, err)

		conn := streamfake.NewConn(streamfake.JSONResponse("200 OK", successBody))
		_, err = stream.Run[*token.AccessTokenResponse](context.Background(), conn, ex)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(conn.Written(), "POST /oauth/token HTTP/1.1\r\n"))
	})

	t.Run("only post", func(t *testing.T) {
		_, err := token.NewExchange(tokenRequest(t, http.MethodGet), &fakeParams{body: "a=b"})
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})

	t.Run("validation runs first", func(t *testing.T) {
		invalid := errors.New("invalid")
		_, err := token.NewExchange(tokenRequest(t, http.MethodPost), &fakeParams{validateErr: invalid})
		require.ErrorIs(t, err, invalid)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := token.NewExchange(nil, &fakeParams{})
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})

	t.Run("nil params", func(t *testing.T) {
		_, err := token.NewExchange(tokenRequest(t, http.MethodPost), nil)
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})
}

func TestExchangesRunIndependently(t *testing.T) {
	var g errgroup.Group
	results := make([]*token.AccessTokenResponse, 8)
	for i := range results {
		req := tokenRequest(t, http.MethodPost)
		g.Go(func() error {
			ex, err := token.NewExchange(req, &fakeParams{body: "a=b"})
			if err != nil {
				return err
			}
			conn := streamfake.NewConn(streamfake.JSONResponse("200 OK", successBody))
			conn.MaxRead = i + 1
			results[i], err = stream.Run[*token.AccessTokenResponse](context.Background(), conn, ex)
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, r := range results {
		require.Equal(t, "AT", string(r.Success.AccessToken.Expose()))
	}
}
