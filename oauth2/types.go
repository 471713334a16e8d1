package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to prevent authorization code interception attacks (especially for public clients).
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// This is the default method.
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain means no hashing, the code_verifier is sent as the challenge.
	// Weaker than S256, only protects against passive attacks. Use it only when the
	// authorization server cannot do S256.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// Valid reports whether m is one of the methods defined by RFC 7636.
func (m CodeMethodType) Valid() bool {
	return m == CodeMethodTypeS256 || m == CodeMethodTypePlain
}

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Body: grant_type, code, redirect_uri, client_id, code_verifier (if PKCE)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Body: grant_type, client_id, refresh_token, scope
	RefreshTokenGrant GrantType = "refresh_token"
)

// FormContentType is the media type of every token endpoint request body.
const FormContentType = "application/x-www-form-urlencoded"
