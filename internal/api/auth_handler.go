package api

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/filmdb/auth-service/internal/model"
	"github.com/filmdb/auth-service/internal/service"
)

// AuthHandler exposes the credential lifecycle over HTTP.
type AuthHandler struct {
	auth   *service.Auth
	tokens *service.TokenService
}

func NewAuthHandler(auth *service.Auth, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register stages a registration. The verification code travels out of
// band and is deliberately absent from the response.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body registerRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ack, err := h.auth.Register(c.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(registerResponse{
		Email:     ack.Email,
		ExpiresAt: ack.ExpiresAt,
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AuthHandler) Verify(c fiber.Ctx) error {
	var body verifyRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.auth.VerifyRegistration(c.Context(), body.Code)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(userResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Username     string `json:"username,omitempty"`
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body loginRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.auth.Login(c.Context(), body.Email, body.Password, clientContext(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		Username:     result.Username,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body refreshRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	pair, err := h.auth.RefreshAccessToken(c.Context(), body.RefreshToken, clientContext(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Logout revokes a single refresh token. Revoking an unknown token is
// not an error; logout is idempotent.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	var body refreshRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.tokens.RevokeByValue(c.Context(), body.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type oauthRequest struct {
	Code string `json:"code"`
}

func (h *AuthHandler) GoogleLogin(c fiber.Ctx) error {
	var body oauthRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Code == "" {
		return badRequest(c, "missing authorization code")
	}

	result, err := h.auth.OAuthLoginOrRegister(c.Context(), body.Code, clientContext(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		Username:     result.Username,
	})
}

func clientContext(c fiber.Ctx) model.ClientContext {
	return model.ClientContext{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}
