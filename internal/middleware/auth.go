package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/perfumatch/internal/utils"
)

const roleContextKey = "currentRole"

// AdminMiddleware accepts only Bearer tokens issued for the admin role.
func AdminMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		role, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if role != utils.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}

		c.Locals(roleContextKey, role)
		return c.Next()
	}
}

// CurrentRole returns the role of the authenticated caller, if any.
func CurrentRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals(roleContextKey).(string)
	return role, ok && role != ""
}
