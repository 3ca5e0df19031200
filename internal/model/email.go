package model

import (
	"net/mail"
	"strings"
)

// Email is a validated, lowercased address. Uniqueness checks are
// exact-match after normalization.
type Email string

// NewEmail validates and normalizes a raw email address.
func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", newValidationError("email", "cannot be empty")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", newValidationError("email", "malformed address")
	}
	return Email(v), nil
}

func (e Email) String() string {
	return string(e)
}
