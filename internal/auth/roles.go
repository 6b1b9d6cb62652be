package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// Role is the caller's operational role.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleEngineer   Role = "engineer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTechnician, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// CanApprove reports whether the role may approve tickets out of draft or
// review.
func (r Role) CanApprove() bool {
	return r == RoleEngineer || r == RoleAdmin
}

// CanDelete reports whether the role may delete tickets.
func (r Role) CanDelete() bool {
	return r == RoleEngineer || r == RoleAdmin
}

// RequirePermission gates a route on a role predicate so the permission
// policy stays on the Role methods. Errors carry the proper HTTP status
// through the error envelope middleware.
func RequirePermission(permitted func(Role) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !permitted(principal.Role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
