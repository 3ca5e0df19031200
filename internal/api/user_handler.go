package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/filmdb/auth-service/internal/api/middleware"
	"github.com/filmdb/auth-service/internal/service"
)

// UserHandler exposes the authenticated self-service account mutations.
type UserHandler struct {
	auth   *service.Auth
	tokens *service.TokenService
}

func NewUserHandler(auth *service.Auth, tokens *service.TokenService) *UserHandler {
	return &UserHandler{auth: auth, tokens: tokens}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var body changePasswordRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.auth.ChangePassword(c.Context(), userID, body.CurrentPassword, body.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changeUsernameRequest struct {
	CurrentPassword string `json:"current_password"`
	NewUsername     string `json:"new_username"`
}

func (h *UserHandler) ChangeUsername(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var body changeUsernameRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.auth.ChangeUsername(c.Context(), userID, body.CurrentPassword, body.NewUsername); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changeEmailRequest struct {
	CurrentPassword string `json:"current_password"`
	NewEmail        string `json:"new_email"`
}

func (h *UserHandler) ChangeEmail(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var body changeEmailRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.auth.ChangeEmail(c.Context(), userID, body.CurrentPassword, body.NewEmail); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type deleteUserRequest struct {
	CurrentPassword string `json:"current_password"`
}

func (h *UserHandler) DeleteUser(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var body deleteUserRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.auth.DeleteUser(c.Context(), userID, body.CurrentPassword); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changeExternalUsernameRequest struct {
	NewUsername string `json:"new_username"`
}

func (h *UserHandler) ChangeExternalUsername(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var body changeExternalUsernameRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.auth.ChangeExternalUsername(c.Context(), userID, body.NewUsername); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) DeleteExternalUser(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.auth.DeleteExternalUser(c.Context(), userID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LogoutAll revokes every active session of the authenticated user.
func (h *UserHandler) LogoutAll(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.tokens.RevokeAllForUser(c.Context(), userID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
