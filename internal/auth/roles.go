package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RequireAdministrative allows super-admins, admins and supervisors.
func RequireAdministrative() fiber.Handler {
	return requireRole(domain.Role.IsAdministrative, "administrative role required")
}

// RequireDeleter allows the roles that may delete users and tickets.
func RequireDeleter() fiber.Handler {
	return requireRole(domain.Role.CanDelete, "admin role required")
}

func requireRole(allowed func(domain.Role) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !allowed(principal.User.Role) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
