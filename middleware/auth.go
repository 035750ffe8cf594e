package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"crewdesk/models"
	"crewdesk/store"
	"crewdesk/utils"
)

// Locals keys set by the auth middleware.
const (
	PrincipalKey = "principal"
	UserKey      = "user"
)

const credentialsMessage = "Could not validate credentials"

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Protected authenticates by token alone: the claims are trusted as-is, with
// no store lookup. This is what the team and work services use — they do not
// own user data.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": credentialsMessage,
			})
		}

		principal, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": credentialsMessage,
			})
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// ProtectedWithLookup additionally re-loads the user row and confirms the
// account still exists and is active. Only the identity service can do this;
// it owns the user store.
func ProtectedWithLookup(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": credentialsMessage,
			})
		}

		principal, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": credentialsMessage,
			})
		}

		user, err := users.GetByUsername(principal.Username)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
		if user == nil {
			// The account was deleted after the token was issued.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": credentialsMessage,
			})
		}
		if !user.Active {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Inactive user",
			})
		}

		c.Locals(PrincipalKey, principal)
		c.Locals(UserKey, user)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by Protected /
// ProtectedWithLookup.
func PrincipalFrom(c *fiber.Ctx) *models.Principal {
	return c.Locals(PrincipalKey).(*models.Principal)
}

// UserFrom returns the user row stored by ProtectedWithLookup.
func UserFrom(c *fiber.Ctx) *models.User {
	return c.Locals(UserKey).(*models.User)
}
