package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
)

// UserIDLocalKey is the locals key under which Auth stores the
// authenticated user's id.
const UserIDLocalKey = "user_id"

// Auth verifies the Authorization bearer token and stores the subject user id
// in the request locals. Requests without a valid token get a 401 through the
// app's error handler.
func Auth(tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}
