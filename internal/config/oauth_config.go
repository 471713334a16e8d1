package config

import (
	xoauth2 "golang.org/x/oauth2"
)

const (
	clientIDVar         = "CLIENT_ID"
	redirectURIVar      = "REDIRECT_URI"
	scopeVar            = "SCOPE"
	authorizationURIVar = "AUTHORIZATION_URI"
	tokenURIVar         = "TOKEN_URI"
)

type OAuthConfig interface {
	GetClientID() string
	GetRedirectURI() string
	GetScope() string
	GetEndpoint() xoauth2.Endpoint
}

type OAuth struct {
	source
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.get(clientIDVar, "")
}

func (o OAuth) GetRedirectURI() string {
	return o.get(redirectURIVar, "")
}

// GetScope returns the space-delimited scope to request.
func (o OAuth) GetScope() string {
	return o.get(scopeVar, "")
}

func (o OAuth) GetEndpoint() xoauth2.Endpoint {
	return xoauth2.Endpoint{
		AuthURL:  o.get(authorizationURIVar, ""),
		TokenURL: o.get(tokenURIVar, ""),
	}
}
