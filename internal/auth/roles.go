package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// RequireAdmin ensures an admin session was resolved upstream.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFromFiber(c); !ok {
			return apperrors.NewAuthRequired("")
		}
		return c.Next()
	}
}
