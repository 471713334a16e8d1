package oauth2

import "fmt"

const redacted = "[REDACTED]"

// Secret holds a credential (access token, refresh token, code verifier) so that it
// cannot leak through formatting, logging or serialization.
//
// The only way to read the value is Expose. Every call site of Expose is a place where
// cleartext leaves the struct, so keep them few and grep for them when auditing.
//
//	s := oauth2.NewSecret("tGzv3JOkF0XG5Qx2TlKWIA")
//	fmt.Println(s)   // [REDACTED]
//	raw := s.Expose() // tGzv3JOkF0XG5Qx2TlKWIA
type Secret struct {
	b []byte
}

// NewSecret copies value into a new Secret.
func NewSecret(value string) Secret {
	return Secret{b: []byte(value)}
}

// NewSecretBytes copies value into a new Secret.
func NewSecretBytes(value []byte) Secret {
	b := make([]byte, len(value))
	copy(b, value)
	return Secret{b: b}
}

// Expose returns the cleartext bytes. The returned slice aliases the secret storage:
// do not retain or modify it, and never log it.
func (s Secret) Expose() []byte {
	return s.b
}

// IsEmpty reports whether the secret holds no bytes.
func (s Secret) IsEmpty() bool {
	return len(s.b) == 0
}

// Len returns the length of the secret in bytes.
func (s Secret) Len() int {
	return len(s.b)
}

// Zeroize overwrites the secret storage with zeros and releases it.
// Copies of the Secret share the storage and are wiped too.
func (s *Secret) Zeroize() {
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return "oauth2.Secret{" + redacted + "}"
}

// Format makes every verb, including %x and %q, print the redacted marker.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = f.Write([]byte(s.GoString()))
		return
	}
	_, _ = f.Write([]byte(redacted))
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
