package model

import "strings"

const (
	usernameMinLength = 3
	usernameMaxLength = 30
)

// Username is a validated account name. Local usernames are user-supplied;
// external accounts get one derived from their provider identity.
type Username string

// NewUsername validates a raw username: trimmed, 3-30 characters,
// alphanumeric only.
func NewUsername(raw string) (Username, error) {
	v := strings.TrimSpace(raw)
	if len(v) < usernameMinLength || len(v) > usernameMaxLength {
		return "", newValidationError("username", "must be between 3 and 30 characters")
	}
	for _, r := range v {
		if !isAlphanumeric(r) {
			return "", newValidationError("username", "must contain only letters and digits")
		}
	}
	return Username(v), nil
}

// ExternalUsername derives the username for an externally authenticated
// account. The provider key is provider-issued, so the result skips the
// local shape rules.
func ExternalUsername(name ProviderName, key ProviderKey) Username {
	return Username(strings.ToLower(string(name)) + string(key))
}

func (u Username) String() string {
	return string(u)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
