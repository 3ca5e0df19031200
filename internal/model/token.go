package model

import "github.com/google/uuid"

// AccessTokenProvider signs and validates short-lived bearer tokens
// carrying a user identity claim.
type AccessTokenProvider interface {
	GenerateAccessToken(userID uuid.UUID) (token string, ttlSeconds int64, err error)
	ParseAccessToken(token string) (uuid.UUID, error)
}
