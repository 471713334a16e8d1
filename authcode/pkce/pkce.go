// Package pkce implements Proof Key for Code Exchange (RFC 7636) for the client side of
// the authorization code grant.
//
// A Verifier is generated once per flow. Its Challenge goes into the authorization
// request, the Verifier itself into the access token request.
//
//	verifier := pkce.NewVerifier(64)
//	challenge := pkce.NewChallenge(verifier) // S256
//	challenge.Encode()                       // code_challenge value
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/rs/zerolog/log"
)

const (
	// MinVerifierLength and MaxVerifierLength bound a code verifier:
	// code-verifier = 43*128unreserved
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// Unreserved is the alphabet of a code verifier per RFC 7636 Section 4.1:
	// ALPHA / DIGIT / "-" / "." / "_" / "~"
	Unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

	// rejection threshold for uniform sampling: the largest multiple of 66 below 256.
	sampleLimit = 256 - 256%len(Unreserved)
)

// Verifier is the secret proof-of-possession of a PKCE flow.
type Verifier struct {
	secret oauth2.Secret
}

// NewVerifier generates a verifier of length characters, clamped into
// [MinVerifierLength, MaxVerifierLength], drawn uniformly from Unreserved with
// crypto/rand.
func NewVerifier(length int) *Verifier {
	length = min(max(length, MinVerifierLength), MaxVerifierLength)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		// crypto/rand.Read never returns an error.
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= sampleLimit {
				continue
			}
			out = append(out, Unreserved[int(b)%len(Unreserved)])
			if len(out) == length {
				break
			}
		}
	}

	v := &Verifier{secret: oauth2.NewSecretBytes(out)}
	for i := range out {
		out[i] = 0
	}
	return v
}

// DefaultVerifier generates a verifier of the minimum length.
func DefaultVerifier() *Verifier {
	return NewVerifier(MinVerifierLength)
}

// ParseVerifier wraps an existing verifier. Every byte must belong to Unreserved;
// the first offending byte is reported as *oauth2.InvalidPkceCharacterError.
func ParseVerifier(text string) (*Verifier, error) {
	for i := 0; i < len(text); i++ {
		if !isUnreserved(text[i]) {
			log.Warn().Int("offset", i).Msgf("invalid byte 0x%02x found in PKCE code verifier", text[i])
			return nil, &oauth2.InvalidPkceCharacterError{Byte: text[i], Offset: i}
		}
	}
	return &Verifier{secret: oauth2.NewSecret(text)}, nil
}

// Expose returns the verifier bytes.
func (v *Verifier) Expose() []byte {
	return v.secret.Expose()
}

// Len returns the verifier length in characters.
func (v *Verifier) Len() int {
	return v.secret.Len()
}

// Zeroize wipes the verifier. Call it once the token request has been sent.
func (v *Verifier) Zeroize() {
	v.secret.Zeroize()
}

func (v *Verifier) String() string {
	return v.secret.String()
}

// Challenge is the value derived from a Verifier and sent in the authorization request.
type Challenge struct {
	// Method defaults to S256 when empty.
	Method   oauth2.CodeMethodType
	Verifier *Verifier
}

// NewChallenge derives an S256 challenge from v.
func NewChallenge(v *Verifier) *Challenge {
	return &Challenge{Method: oauth2.CodeMethodTypeS256, Verifier: v}
}

// NewPlainChallenge derives a plain challenge from v. The challenge is the verifier
// itself, so it only protects against passive interception; prefer NewChallenge.
func NewPlainChallenge(v *Verifier) *Challenge {
	return &Challenge{Method: oauth2.CodeMethodTypePlain, Verifier: v}
}

// Generate creates a default verifier with its S256 challenge.
func Generate() *Challenge {
	return NewChallenge(DefaultVerifier())
}

// MethodOrDefault returns the effective method.
func (c *Challenge) MethodOrDefault() oauth2.CodeMethodType {
	if c.Method == "" {
		return oauth2.CodeMethodTypeS256
	}
	return c.Method
}

// Encode returns the code_challenge value:
// plain -> the verifier, S256 -> BASE64URL-NOPAD(SHA256(verifier)).
func (c *Challenge) Encode() string {
	if c.MethodOrDefault() == oauth2.CodeMethodTypePlain {
		return string(c.Verifier.Expose())
	}
	digest := sha256.Sum256(c.Verifier.Expose())
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '.', b == '_', b == '~':
		return true
	}
	return false
}
