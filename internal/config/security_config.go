package config

import (
	"strconv"

	"github.com/jrsteele09/go-oauth-client/authcode/pkce"
	"github.com/jrsteele09/go-oauth-client/oauth2"
)

const (
	pkceVar               = "PKCE"
	pkceMethodVar         = "PKCE_METHOD"
	pkceVerifierLengthVar = "PKCE_VERIFIER_LENGTH"
)

type SecurityConfig interface {
	GetPKCE() bool
	GetPKCEMethod() oauth2.CodeMethodType
	GetPKCEVerifierLength() int
}

type Security struct {
	source
}

var _ SecurityConfig = Security{}

// GetPKCE defaults to enabled.
func (s Security) GetPKCE() bool {
	enabled, err := strconv.ParseBool(s.get(pkceVar, "true"))
	if err != nil {
		return true
	}
	return enabled
}

func (s Security) GetPKCEMethod() oauth2.CodeMethodType {
	method := oauth2.CodeMethodType(s.get(pkceMethodVar, string(oauth2.CodeMethodTypeS256)))
	if !method.Valid() {
		return oauth2.CodeMethodTypeS256
	}
	return method
}

// GetPKCEVerifierLength is clamped by pkce.NewVerifier, not here.
func (s Security) GetPKCEVerifierLength() int {
	n, err := strconv.Atoi(s.get(pkceVerifierLengthVar, strconv.Itoa(pkce.MinVerifierLength)))
	if err != nil {
		return pkce.MinVerifierLength
	}
	return n
}
