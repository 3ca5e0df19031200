package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/filmdb/auth-service/internal/logger"
)

// RequestLogging logs each request with its status and duration.
func RequestLogging(l *logger.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		l.Info("request handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String())

		return err
	}
}
