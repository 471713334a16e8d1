package authcode_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-client/authcode"
	"github.com/jrsteele09/go-oauth-client/authcode/pkce"
	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/jrsteele09/go-oauth-client/stream"
	"github.com/jrsteele09/go-oauth-client/stream/streamfake"
	"github.com/jrsteele09/go-oauth-client/token"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRequestParams(t *testing.T) {
	t.Run("encode with pkce and redirect uri", func(t *testing.T) {
		verifier, err := pkce.ParseVerifier("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
		require.NoError(t, err)

		p := &authcode.AccessTokenRequestParams{
			Code:         "SplxlOBeZQQYbYS6WxSbIA",
			RedirectURI:  "https://client.example.com/cb",
			ClientID:     "s6BhdRkqt3",
			PKCEVerifier: verifier,
		}
		require.NoError(t, p.Validate())
		require.Equal(t, oauth2.AuthorizationCodeGrant, p.GrantType())
		require.Equal(t,
			"grant_type=authorization_code&code=SplxlOBeZQQYbYS6WxSbIA"+
				"&redirect_uri=https%3A%2F%2Fclient.example.com%2Fcb&client_id=s6BhdRkqt3"+
				"&code_verifier=dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			p.Encode())
	})

	t.Run("encode minimal", func(t *testing.T) {
		p := &authcode.AccessTokenRequestParams{Code: "c", ClientID: "cid"}
		require.Equal(t, "grant_type=authorization_code&code=c&client_id=cid", p.Encode())
	})

	t.Run("validation", func(t *testing.T) {
		require.ErrorIs(t, (&authcode.AccessTokenRequestParams{ClientID: "cid"}).Validate(), oauth2.ErrRequestBuild)
		require.ErrorIs(t, (&authcode.AccessTokenRequestParams{Code: "c"}).Validate(), oauth2.ErrRequestBuild)

		v := pkce.DefaultVerifier()
		v.Zeroize()
		require.ErrorIs(t, (&authcode.AccessTokenRequestParams{Code: "c", ClientID: "cid", PKCEVerifier: v}).Validate(), oauth2.ErrRequestBuild)
	})

	t.Run("nil params", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "https://auth.example.com/token", nil)
		require.NoError(t, err)
		_, err = authcode.NewSendAccessTokenRequest(req, nil)
		require.ErrorIs(t, err, oauth2.ErrRequestBuild)
	})

	t.Run("from a callback", func(t *testing.T) {
		callback, err := authcode.ParseCallbackURI("https://client.example.com/cb?code=c1&state=s1")
		require.NoError(t, err)

		p, err := authcode.NewAccessTokenRequestParams(callback, "cid", "https://client.example.com/cb", nil)
		require.NoError(t, err)
		require.Equal(t, "c1", p.Code)
		require.Nil(t, p.PKCEVerifier)
	})

	t.Run("from an error callback", func(t *testing.T) {
		callback, err := authcode.ParseCallbackURI("https://client.example.com/cb?error=access_denied")
		require.NoError(t, err)

		_, err = authcode.NewAccessTokenRequestParams(callback, "cid", "", nil)
		var authErr *authcode.AuthorizationError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, authcode.ErrorAccessDenied, authErr.Code)
	})
}

// TestAuthorizationCodeFlow walks a complete flow: authorization URI, callback,
// state check and the token exchange over a scripted transport.
func TestAuthorizationCodeFlow(t *testing.T) {
	const (
		clientID    = "cid"
		redirectURI = "http://127.0.0.1:8400/callback"
	)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := token.NowTimeFunc
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = orig })

	state := authcode.NewState()
	challenge := pkce.Generate()
	authz := &authcode.AuthorizationRequestParams{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scope:       mustScope(t, "read", "write"),
		State:       state,
		PKCE:        challenge,
	}
	uri, err := authz.AuthorizationURI("https://auth.example.com/authorize")
	require.NoError(t, err)
	require.Contains(t, uri, "code_challenge="+challenge.Encode())

	callback, err := authcode.ParseCallbackURI(redirectURI + "?code=auth-code&state=" + string(state.Expose()))
	require.NoError(t, err)
	require.NoError(t, callback.VerifyState(state))

	params, err := authcode.NewAccessTokenRequestParams(callback, clientID, redirectURI, challenge.Verifier)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "https://auth.example.com/token", nil)
	require.NoError(t, err)
	send, err := authcode.NewSendAccessTokenRequest(req, params)
	require.NoError(t, err)
	send.SetReadSize(32)

	conn := streamfake.NewConn(streamfake.JSONResponse("200 OK",
		`{"access_token":"AT","token_type":"Bearer","expires_in":3600,"refresh_token":"RT","scope":"read"}`))
	resp, err := stream.Run[*token.AccessTokenResponse](context.Background(), conn, send)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	require.Equal(t, "AT", string(resp.Success.AccessToken.Expose()))
	require.Equal(t, "read", resp.Success.Scope)

	body := conn.Written()[strings.Index(conn.Written(), "\r\n\r\n")+4:]
	require.Equal(t,
		"grant_type=authorization_code&code=auth-code&redirect_uri=http%3A%2F%2F127.0.0.1%3A8400%2Fcallback"+
			"&client_id=cid&code_verifier="+string(challenge.Verifier.Expose()),
		body)

	now = now.Add(10 * time.Second)
	resp.Success.SyncExpiresIn()
	require.EqualValues(t, 3590, *resp.Success.ExpiresIn)
}
