package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	IsStaff     bool
	Permissions []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	IsStaff     bool      `json:"is_staff"`
	Permissions []string  `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token carries the named capability.
func (c *AccessTokenClaims) HasPermission(name string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Permissions, name)
}
