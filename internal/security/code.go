package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/filmdb/auth-service/internal/model"
)

const codeByteLength = 32

var _ model.CodeGenerator = (*CodeGenerator)(nil)

// CodeGenerator produces URL-safe base64 secrets from crypto/rand. Used
// for verification codes and refresh token values.
type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

func (g *CodeGenerator) Generate() (string, error) {
	buf := make([]byte, codeByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
