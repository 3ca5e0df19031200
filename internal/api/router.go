// Package api is the HTTP adapter: routing, request decoding and the
// mapping of domain errors onto statuses.
package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/filmdb/auth-service/internal/api/middleware"
	"github.com/filmdb/auth-service/internal/logger"
	"github.com/filmdb/auth-service/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter assembles the fiber application with all routes and
// middleware wired.
func NewRouter(auth *service.Auth, tokens *service.TokenService, db Pinger, l *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "auth-service",
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogging(l))

	app.Get("/health", func(c fiber.Ctx) error {
		if err := db.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authHandler := NewAuthHandler(auth, tokens)
	userHandler := NewUserHandler(auth, tokens)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/verify", authHandler.Verify)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/oauth/google", authHandler.GoogleLogin)

	me := app.Group("/api/users/me", middleware.Authenticate(tokens))
	me.Put("/password", userHandler.ChangePassword)
	me.Put("/username", userHandler.ChangeUsername)
	me.Put("/email", userHandler.ChangeEmail)
	me.Delete("/", userHandler.DeleteUser)
	me.Put("/external/username", userHandler.ChangeExternalUsername)
	me.Delete("/external", userHandler.DeleteExternalUser)
	me.Post("/logout-all", userHandler.LogoutAll)

	return app
}
