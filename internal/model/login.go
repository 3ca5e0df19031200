package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserLoginStore persists links between users and external providers.
type UserLoginStore interface {
	GetByProvider(ctx context.Context, key ProviderKey, name ProviderName) (UserLogin, error)
	Create(ctx context.Context, login UserLogin) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// UserLogin links a user to the external identity it authenticated with.
// Absent for local-only accounts.
type UserLogin struct {
	UserID       uuid.UUID
	ProviderKey  ProviderKey
	ProviderName ProviderName
	LinkedAt     time.Time
}

// NewUserLogin records a provider link at the moment the identity is first
// used.
func NewUserLogin(userID uuid.UUID, key ProviderKey, name ProviderName) UserLogin {
	return UserLogin{
		UserID:       userID,
		ProviderKey:  key,
		ProviderName: name,
		LinkedAt:     time.Now(),
	}
}
