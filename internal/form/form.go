// Package form writes application/x-www-form-urlencoded bodies with the pairs kept in
// the order they were appended. url.Values sorts keys on Encode, which the
// authorization and token requests must not do.
package form

import (
	"net/url"
	"strings"
)

// Serializer accumulates key/value pairs.
type Serializer struct {
	sb strings.Builder
}

// Append adds one pair. Keys and values are escaped with url.QueryEscape, so spaces
// become '+'.
func (s *Serializer) Append(key, value string) *Serializer {
	if s.sb.Len() > 0 {
		s.sb.WriteByte('&')
	}
	s.sb.WriteString(url.QueryEscape(key))
	s.sb.WriteByte('=')
	s.sb.WriteString(url.QueryEscape(value))
	return s
}

// AppendIf adds the pair only when value is not empty.
func (s *Serializer) AppendIf(key, value string) *Serializer {
	if value == "" {
		return s
	}
	return s.Append(key, value)
}

// Finish returns the encoded pairs.
func (s *Serializer) Finish() string {
	return s.sb.String()
}
