package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// userIDKey is the fiber locals key the authenticated user id is stored
// under.
const userIDKey = "userID"

// TokenParser resolves a bearer token to the user it was issued for.
type TokenParser interface {
	GetUserID(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate validates the Authorization bearer token and stores the
// user id in the request locals.
func Authenticate(parser TokenParser) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "malformed authorization header",
			})
		}

		userID, err := parser.GetUserID(c.Context(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid access token",
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID extracts the authenticated user id set by Authenticate.
func UserID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userIDKey).(uuid.UUID)
	return id, ok
}
