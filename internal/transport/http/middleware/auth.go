package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoplink/backend/internal/config"
)

// AdminAuth gates a route on the configured admin API key and records the
// acting owner for downstream handlers.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := cfg.Auth.AdminAPIKey
		if apiKey != "" {
			headerToken := c.Get("X-Admin-Token")
			if headerToken == "" {
				auth := c.Get("Authorization")
				const prefix = "Bearer "
				if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
					headerToken = auth[len(prefix):]
				}
			}

			if headerToken != apiKey {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unauthorized",
				})
			}
		}

		owner := c.Get("X-User-ID")
		if owner == "" {
			owner = "admin"
		}
		c.Locals("owner_id", owner)

		return c.Next()
	}
}
