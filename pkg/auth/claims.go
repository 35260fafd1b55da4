package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognised by the risk service.
const (
	// RoleAdmin may train and activate bundles.
	RoleAdmin = "admin"
	// RoleUnderwriter may score farms and read assessments.
	RoleUnderwriter = "underwriter"
	// RoleAPIClient may score farms.
	RoleAPIClient = "api_client"
)

// Claims carries the caller identity and roles.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole reports whether the claims include role. Admins hold every role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role) || slices.Contains(c.Roles, RoleAdmin)
}

// HasAnyRole reports whether the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
