package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filmdb/auth-service/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const refreshTokenColumns = `id, user_id, token_hash, ip, user_agent, issued_at, expires_at, revoked_at, rotated_from, created_at, updated_at`

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, ip, user_agent, issued_at, expires_at, revoked_at, rotated_from, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	if _, err := r.db.Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.IP, token.UserAgent,
		token.IssuedAt, token.ExpiresAt, token.RevokedAt, token.RotatedFrom,
	); err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash []byte) (model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.IP, &rt.UserAgent,
		&rt.IssuedAt, &rt.ExpiresAt, &rt.RevokedAt, &rt.RotatedFrom,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by hash: %w", err)
	}
	return rt, nil
}

// Rotate revokes the old token and inserts the replacement atomically.
// The revoked_at IS NULL guard makes concurrent rotations of the same
// token race to a single winner; the loser gets ErrTokenInvalid.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID uuid.UUID, replacement model.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	revokeQuery := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
					WHERE id = $1 AND revoked_at IS NULL`

	tag, err := tx.Exec(ctx, revokeQuery, oldID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenInvalid
	}

	insertQuery := `INSERT INTO refresh_tokens (id, user_id, token_hash, ip, user_agent, issued_at, expires_at, revoked_at, rotated_from, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	if _, err := tx.Exec(ctx, insertQuery,
		replacement.ID, replacement.UserID, replacement.TokenHash, replacement.IP, replacement.UserAgent,
		replacement.IssuedAt, replacement.ExpiresAt, replacement.RevokedAt, replacement.RotatedFrom,
	); err != nil {
		return fmt.Errorf("failed to create replacement token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeByHash(ctx context.Context, hash []byte) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
			  WHERE token_hash = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, hash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
			  WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens by user: %w", err)
	}
	return nil
}
