package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityPayload captures the data available when minting an identity token.
type IdentityPayload struct {
	UserID string
	Email  string
	JTI    string
}

// IdentityClaims represents a session token issued by the hosted identity
// provider. The subject is the provider's user id.
type IdentityClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user's identifier.
func (c *IdentityClaims) UserID() string {
	return c.Subject
}
