package middleware

import (
	"github.com/gofiber/fiber/v2"

	"crewdesk/authz"
	"crewdesk/utils"
)

// RequireAdmin gates a route group on the admin role. Must run after
// Protected / ProtectedWithLookup.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authz.AdminOnly(PrincipalFrom(c)); err != nil {
			return utils.WriteError(c, err)
		}
		return c.Next()
	}
}
