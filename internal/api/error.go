package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/filmdb/auth-service/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

// fail maps domain errors onto HTTP statuses. Unmapped errors become an
// opaque 500 so internals never leak into responses.
func fail(c fiber.Ctx, err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: validationErr.Error()})
	}

	status, ok := statusOf(err)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal server error"})
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}

func statusOf(err error) (int, bool) {
	switch {
	case errors.Is(err, model.ErrCodeInvalid):
		return fiber.StatusBadRequest, true
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrTokenInvalid):
		return fiber.StatusUnauthorized, true
	case errors.Is(err, model.ErrPasswordMismatch):
		return fiber.StatusForbidden, true
	case errors.Is(err, model.ErrUserNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, model.ErrEmailExists),
		errors.Is(err, model.ErrUsernameExists),
		errors.Is(err, model.ErrUserExternal),
		errors.Is(err, model.ErrUserNotExternal):
		return fiber.StatusConflict, true
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway, true
	}
	return 0, false
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msg})
}
