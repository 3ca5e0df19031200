package model

import (
	"context"
	"time"
)

// PendingRegistrationTTL is how long a verification code stays valid.
const PendingRegistrationTTL = 24 * time.Hour

// PendingRegistrationStore persists staged registrations awaiting
// verification.
type PendingRegistrationStore interface {
	Create(ctx context.Context, pending PendingRegistration) error
	GetByCode(ctx context.Context, code string) (PendingRegistration, error)
	ExistsByEmail(ctx context.Context, email Email) (bool, error)
	ExistsByUsername(ctx context.Context, username Username) (bool, error)
	// ConsumeAndCreate deletes the pending registration and persists the
	// user in one transaction. Returns ErrCodeInvalid when the code was
	// already consumed, so a replayed verification cannot create a second
	// account.
	ConsumeAndCreate(ctx context.Context, code string, user User) (User, error)
}

// PendingRegistration is a staged, not-yet-persisted registration keyed by
// its single-use verification code.
type PendingRegistration struct {
	Code         string
	Username     Username
	Email        Email
	PasswordHash HashedPassword
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the verification window has passed.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// CodeGenerator produces cryptographically random opaque secrets, used for
// verification codes and refresh token values.
type CodeGenerator interface {
	Generate() (string, error)
}
