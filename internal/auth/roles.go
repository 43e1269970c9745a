package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// RequireManager rejects callers without the manager flag.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.IsManager {
			return apperrors.NewPermissionDenied("manager role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal was resolved.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
