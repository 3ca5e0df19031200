package model

const (
	passwordMinLength = 8
	passwordMaxLength = 64
)

// PlainPassword is a transient wrapper around raw password input. It is
// never persisted or logged; only its hash leaves the process.
type PlainPassword string

// NewPlainPassword validates password strength: 8-64 characters with at
// least one letter and one digit.
func NewPlainPassword(raw string) (PlainPassword, error) {
	if len(raw) < passwordMinLength || len(raw) > passwordMaxLength {
		return "", newValidationError("password", "must be between 8 and 64 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return "", newValidationError("password", "must contain at least one letter and one digit")
	}
	return PlainPassword(raw), nil
}

// HashedPassword is the only persisted form of a password. Produced
// exclusively by a PasswordHasher.
type HashedPassword string

// PasswordHasher provides one-way hashing and verification.
type PasswordHasher interface {
	Hash(password PlainPassword) (HashedPassword, error)
	// Verify reports whether password matches hash. An error means the
	// stored hash could not be parsed, not a mismatch.
	Verify(password PlainPassword, hash HashedPassword) (bool, error)
}
