package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenTTL is the lifetime of a refresh token.
const RefreshTokenTTL = 30 * 24 * time.Hour

// RefreshTokenStore persists refresh tokens, keyed by the hash of their
// opaque value.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByHash(ctx context.Context, hash []byte) (RefreshToken, error)
	// Rotate revokes the old token and persists its replacement in one
	// transaction. Returns ErrTokenInvalid if the old token was already
	// revoked, so of two concurrent rotations exactly one wins.
	Rotate(ctx context.Context, oldID uuid.UUID, replacement RefreshToken) error
	RevokeByHash(ctx context.Context, hash []byte) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is a rotatable long-lived credential bound to the client
// context it was issued to. Only the SHA-256 hash of the opaque value is
// stored; the value itself is a secret and never logged.
type RefreshToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TokenHash   []byte
	IP          string
	UserAgent   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientContext captures where a credential request came from.
type ClientContext struct {
	IP        string
	UserAgent string
}
