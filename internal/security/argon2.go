package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/filmdb/auth-service/internal/model"
)

// argon2id parameters, OWASP-recommended.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

var _ model.PasswordHasher = (*Argon2Hasher)(nil)

// Argon2Hasher implements model.PasswordHasher using argon2id with PHC
// string encoding.
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{}
}

// Hash produces an argon2id hash of the password in PHC format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2Hasher) Hash(password model.PlainPassword) (model.HashedPassword, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return model.HashedPassword(encoded), nil
}

// Verify recomputes the hash with the stored parameters and compares in
// constant time.
func (h *Argon2Hasher) Verify(password model.PlainPassword, hash model.HashedPassword) (bool, error) {
	parts := strings.Split(string(hash), "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("failed to parse hash version: %w", err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("failed to parse hash params: %w", err)
	}
	if threads > 255 {
		return false, fmt.Errorf("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}
	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, fmt.Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
