package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/bloomcart-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// User ids are opaque strings owned by the external account service.
type AccessTokenPayload struct {
	UserID string
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID string     `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller may act on other users' resources.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.RoleAdmin
}
