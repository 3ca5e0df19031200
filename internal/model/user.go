package model

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email Email) (User, error)
	ExistsByEmail(ctx context.Context, email Email) (bool, error)
	ExistsByUsername(ctx context.Context, username Username) (bool, error)
	Create(ctx context.Context, user User) (User, error)
	// CreateExternal persists the user and its provider link in a single
	// transaction so a failure cannot leave an unlinked external account.
	CreateExternal(ctx context.Context, user User, login UserLogin) (User, error)
	Update(ctx context.Context, user User) error
	// DeleteCascade removes the user together with its user_logins and
	// refresh_tokens records.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// User is the account aggregate. Exactly one of the password hash or the
// provider pair is set: local accounts carry a hash and no provider,
// external accounts the reverse.
type User struct {
	ID           uuid.UUID
	Username     Username
	Email        Email
	PasswordHash HashedPassword
	ProviderKey  ProviderKey
	ProviderName ProviderName
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewLocalUser creates a password-authenticated account. The username and
// email are expected to be already-validated value objects.
func NewLocalUser(username Username, email Email, hash HashedPassword) User {
	now := time.Now()
	return User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewExternalUser creates an account vouched for by an identity provider.
// The username is derived from the provider identity and no password is set.
func NewExternalUser(email Email, key ProviderKey, name ProviderName) User {
	now := time.Now()
	return User{
		ID:           uuid.New(),
		Username:     ExternalUsername(name, key),
		Email:        email,
		ProviderKey:  key,
		ProviderName: name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsExternal reports whether the account is provider-authenticated.
func (u *User) IsExternal() bool {
	return u.ProviderKey != "" && u.ProviderName != ""
}

// ChangePassword replaces the stored hash after verifying the current
// password. Persistence is the caller's responsibility.
func (u *User) ChangePassword(current, newPassword PlainPassword, hasher PasswordHasher) error {
	if u.IsExternal() {
		return ErrUserExternal
	}
	ok, err := hasher.Verify(current, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify current password: %w", err)
	}
	if !ok {
		return ErrPasswordMismatch
	}
	hash, err := hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

// ChangeUsername replaces the username. Uniqueness is the caller's concern.
func (u *User) ChangeUsername(username Username) {
	u.Username = username
	u.UpdatedAt = time.Now()
}

// ChangeEmail replaces the email. Uniqueness is the caller's concern.
func (u *User) ChangeEmail(email Email) {
	u.Email = email
	u.UpdatedAt = time.Now()
}
