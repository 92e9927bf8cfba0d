package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lojadigital/storefront/internal/pkg/env"
)

// AdminTokenMiddleware guards the admin payment listing with a static header
// token. The storefront has no user management on this service; session-based
// auth lives in the web frontend's auth provider.
func AdminTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := strings.TrimSpace(env.GetEnv("ADMIN_API_TOKEN", ""))
		if expected == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service_unavailable", "message": "Admin API is not configured",
			})
		}

		got := strings.TrimSpace(c.Get("X-Admin-Token"))
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Missing admin token",
			})
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Invalid admin token",
			})
		}
		return c.Next()
	}
}
