package authcode

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/jrsteele09/go-oauth-client/oauth2"
	"github.com/rs/zerolog/log"
)

// stateBytes is the entropy of a generated state: 32 bytes, 256 bits, 43 base64url chars.
const stateBytes = 32

// State is the anti-CSRF value bound to one authorization request and checked against
// the callback (RFC 6749 §10.12).
type State struct {
	b []byte
}

// NewState generates a fresh, unguessable state.
func NewState() *State {
	raw := make([]byte, stateBytes)
	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(raw)
	return &State{b: []byte(base64.RawURLEncoding.EncodeToString(raw))}
}

// ParseState wraps a state received from, or persisted for, a callback.
func ParseState(value string) *State {
	return &State{b: []byte(value)}
}

// Expose returns the raw state bytes for encoding into a request.
func (s *State) Expose() []byte {
	return s.b
}

// Equal compares in constant time. A nil state only equals another nil state.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

func (s *State) String() string {
	return "[STATE]"
}

// CheckState validates the state returned in a callback against the issued one.
// When a state was issued, a missing or different returned state is
// oauth2.ErrCsrfStateMismatch, and the flow must not continue.
func CheckState(issued, returned *State) error {
	if issued == nil {
		return nil
	}
	if returned == nil || !issued.Equal(returned) {
		log.Warn().Bool("returned_present", returned != nil).Msg("anti-CSRF state mismatch, aborting authorization flow")
		return oauth2.ErrCsrfStateMismatch
	}
	return nil
}
