package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so a caller cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrPasswordMismatch    = errors.New("current password does not match")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExternal        = errors.New("user is externally authenticated")
	ErrUserNotExternal     = errors.New("user is not externally authenticated")
	ErrEmailExists         = errors.New("email already exists")
	ErrUsernameExists      = errors.New("username already exists")
	ErrCodeInvalid         = errors.New("verification code is invalid or expired")
	ErrTokenInvalid        = errors.New("refresh token is invalid")
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
)

// ValidationError reports an input rejected by a value object constructor.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
