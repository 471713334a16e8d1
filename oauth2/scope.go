package oauth2

import (
	"fmt"
	"slices"
	"strings"
)

// Scope is the set of scope tokens of an access request (RFC 6749 §3.3).
//
//	scope       = scope-token *( SP scope-token )
//	scope-token = 1*( %x21 / %x23-5B / %x5D-7E )
//
// Tokens are deduplicated and kept in insertion order, so the encoded form is
// byte-stable across runs. The zero value is an empty scope ready to use. Copies
// of a Scope are independent.
type Scope struct {
	tokens []string
}

// NewScope builds a scope from individual tokens.
func NewScope(tokens ...string) (Scope, error) {
	var s Scope
	for _, t := range tokens {
		if err := s.Add(t); err != nil {
			return Scope{}, err
		}
	}
	return s, nil
}

// ParseScope splits a space-delimited scope string. Runs of whitespace are tolerated.
func ParseScope(value string) (Scope, error) {
	return NewScope(strings.Fields(value)...)
}

// Add inserts token unless already present.
func (s *Scope) Add(token string) error {
	if err := ValidateScopeToken(token); err != nil {
		return err
	}
	if s.Contains(token) {
		return nil
	}
	// Capped so the append never writes into storage shared with a copy.
	s.tokens = append(s.tokens[:len(s.tokens):len(s.tokens)], token)
	return nil
}

// Contains reports whether token is part of the scope.
func (s Scope) Contains(token string) bool {
	return slices.Contains(s.tokens, token)
}

func (s Scope) Len() int {
	return len(s.tokens)
}

func (s Scope) IsEmpty() bool {
	return len(s.tokens) == 0
}

// Tokens returns a copy of the tokens in insertion order.
func (s Scope) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// String joins the tokens with a single space, the wire form of the scope parameter.
func (s Scope) String() string {
	return strings.Join(s.tokens, " ")
}

// ValidateScopeToken checks a single token against the scope-token grammar.
func ValidateScopeToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidScopeToken)
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c == 0x21 || (c >= 0x23 && c <= 0x5B) || (c >= 0x5D && c <= 0x7E) {
			continue
		}
		return fmt.Errorf("%w: byte 0x%02x in %q", ErrInvalidScopeToken, c, token)
	}
	return nil
}
