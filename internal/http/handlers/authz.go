package handlers

import (
	"strings"

	applog "lendshelf/internal/log"
	"lendshelf/internal/services"

	"github.com/gofiber/fiber/v2"
)

// bearerToken pulls the JWT from the Authorization header, falling back to
// the jwt cookie set at login.
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Cookies("jwt")
}

// RequireAuth gates a route group on a valid token and stashes the caller's
// identity in Locals for handlers and the logger.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			applog.Security(c, "auth.token.missing", nil)
			return fail(c, fiber.StatusUnauthorized, "missing bearer token")
		}
		userID, email, err := auth.VerifyToken(raw)
		if err != nil {
			applog.Security(c, "auth.token.invalid", map[string]any{"reason": err.Error()})
			return fail(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals("userID", userID)
		c.Locals("userEmail", email)
		return c.Next()
	}
}
