package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/filmdb/auth-service/internal/logger"
	"github.com/filmdb/auth-service/internal/model"
)

// TokenPair is an access token plus the refresh token that can renew it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the AccessTokenProvider and
// RefreshTokenStore.
type TokenService struct {
	provider model.AccessTokenProvider
	store    model.RefreshTokenStore
	codes    model.CodeGenerator
	logger   *logger.Logger
}

func NewTokenService(provider model.AccessTokenProvider, store model.RefreshTokenStore, codes model.CodeGenerator, logger *logger.Logger) *TokenService {
	return &TokenService{provider: provider, store: store, codes: codes, logger: logger}
}

// Issue creates an access/refresh pair for the user bound to the client
// context. The refresh value is opaque; only its hash is persisted.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID, client model.ClientContext) (TokenPair, error) {
	access, ttl, err := s.provider.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	value, err := s.codes.Generate()
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashRefresh(value),
		IP:        client.IP,
		UserAgent: client.UserAgent,
		IssuedAt:  now,
		ExpiresAt: now.Add(model.RefreshTokenTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: value, ExpiresIn: ttl}, nil
}

// Refresh exchanges a still-valid refresh token for a new pair, revoking
// the old token (rotation-on-use). Presenting an already-rotated token
// revokes every outstanding token for its owner: a rotated value showing
// up again means it leaked.
func (s *TokenService) Refresh(ctx context.Context, presented string, client model.ClientContext) (TokenPair, error) {
	rt, err := s.store.GetByHash(ctx, hashRefresh(presented))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, model.ErrTokenInvalid
		}
		return TokenPair{}, fmt.Errorf("load refresh: %w", err)
	}

	now := time.Now()
	if rt.RevokedAt != nil {
		s.logger.Info("revoked refresh token reused, revoking all sessions",
			"user_id", rt.UserID)
		if err := s.store.RevokeAllByUser(ctx, rt.UserID); err != nil {
			s.logger.Error("failed to revoke user sessions",
				"user_id", rt.UserID,
				"error", err.Error())
		}
		return TokenPair{}, model.ErrTokenInvalid
	}
	if now.After(rt.ExpiresAt) {
		return TokenPair{}, model.ErrTokenInvalid
	}

	access, ttl, err := s.provider.GenerateAccessToken(rt.UserID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue new access: %w", err)
	}

	value, err := s.codes.Generate()
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue new refresh: %w", err)
	}

	rotatedFrom := rt.ID
	newRT := model.RefreshToken{
		ID:          uuid.New(),
		UserID:      rt.UserID,
		TokenHash:   hashRefresh(value),
		IP:          client.IP,
		UserAgent:   client.UserAgent,
		IssuedAt:    now,
		ExpiresAt:   now.Add(model.RefreshTokenTTL),
		RotatedFrom: &rotatedFrom,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Revoke-and-reissue is one transaction; a concurrent refresh of the
	// same token loses the race inside the store.
	if err := s.store.Rotate(ctx, rt.ID, newRT); err != nil {
		if errors.Is(err, model.ErrTokenInvalid) {
			return TokenPair{}, model.ErrTokenInvalid
		}
		return TokenPair{}, fmt.Errorf("rotate refresh: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: value, ExpiresIn: ttl}, nil
}

// RevokeByValue revokes a single refresh token (logout).
func (s *TokenService) RevokeByValue(ctx context.Context, presented string) error {
	if err := s.store.RevokeByHash(ctx, hashRefresh(presented)); err != nil {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every outstanding refresh token for the user.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// GetUserID resolves the user identity carried by an access token.
func (s *TokenService) GetUserID(ctx context.Context, token string) (uuid.UUID, error) {
	return s.provider.ParseAccessToken(token)
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
