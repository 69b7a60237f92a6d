package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims issued by the identity service. The progression
// service only verifies the signature and reads the player ID; it never issues
// tokens itself.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims contain the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
