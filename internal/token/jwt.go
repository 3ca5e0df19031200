package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/filmdb/auth-service/internal/model"
)

// Claims represents JWT claims with the user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
}

var _ model.AccessTokenProvider = (*JWT)(nil)

// JWT implements model.AccessTokenProvider backed by symmetric HMAC.
type JWT struct {
	secretKey string
	ttl       time.Duration
}

// NewJWT creates a new JWT access token provider with the provided secret
// key and token lifetime.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	return &JWT{secretKey: secretKey, ttl: ttl}
}

// GenerateAccessToken creates a short-lived access token and returns it
// together with its lifetime in seconds.
func (j *JWT) GenerateAccessToken(userID uuid.UUID) (string, int64, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, int64(j.ttl.Seconds()), nil
}

// ParseAccessToken validates and extracts the user ID from an access token.
func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("access token is invalid")
	}
	return claims.UserID, nil
}
