package auth

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role accepted on the admin surface.
const RoleAdmin = "admin"

// AdminClaims is the JWT shape accepted by the admin routes.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants the admin role.
func (c AdminClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
