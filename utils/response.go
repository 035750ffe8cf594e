package utils

import (
	"github.com/gofiber/fiber/v2"

	"crewdesk/apperr"
)

// WriteError renders an error as the shared {"error": "..."} body, using the
// taxonomy's status mapping. Errors outside the taxonomy become 500s with a
// generic message so internals never leak.
func WriteError(c *fiber.Ctx, err error) error {
	if code := apperr.CodeOf(err); code != "" {
		return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
