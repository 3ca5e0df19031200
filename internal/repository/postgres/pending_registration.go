package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/filmdb/auth-service/internal/model"
)

var _ model.PendingRegistrationStore = (*PendingRegistrationRepository)(nil)

type PendingRegistrationRepository struct {
	db DB
}

func NewPendingRegistrationRepository(db DB) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{db: db}
}

func (r *PendingRegistrationRepository) Create(ctx context.Context, pending model.PendingRegistration) error {
	query := `INSERT INTO pending_registrations (code, username, email, password_hash, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.Exec(ctx, query,
		pending.Code, pending.Username, pending.Email, pending.PasswordHash,
		pending.ExpiresAt, pending.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create pending registration: %w", err)
	}
	return nil
}

func (r *PendingRegistrationRepository) GetByCode(ctx context.Context, code string) (model.PendingRegistration, error) {
	query := `SELECT code, username, email, password_hash, expires_at, created_at
			  FROM pending_registrations WHERE code = $1`

	var pending model.PendingRegistration
	err := r.db.QueryRow(ctx, query, code).Scan(
		&pending.Code, &pending.Username, &pending.Email, &pending.PasswordHash,
		&pending.ExpiresAt, &pending.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PendingRegistration{}, model.ErrNotFound
		}
		return model.PendingRegistration{}, fmt.Errorf("failed to get pending registration: %w", err)
	}
	return pending, nil
}

func (r *PendingRegistrationRepository) ExistsByEmail(ctx context.Context, email model.Email) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pending_registrations WHERE email = $1 AND expires_at > NOW())`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending email: %w", err)
	}
	return exists, nil
}

func (r *PendingRegistrationRepository) ExistsByUsername(ctx context.Context, username model.Username) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pending_registrations WHERE username = $1 AND expires_at > NOW())`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending username: %w", err)
	}
	return exists, nil
}

// ConsumeAndCreate deletes the staged registration and inserts the user
// in one transaction. Zero rows deleted means the code was already spent,
// so a replayed verification fails instead of minting a second account.
func (r *PendingRegistrationRepository) ConsumeAndCreate(ctx context.Context, code string, user model.User) (model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM pending_registrations WHERE code = $1`, code)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to consume pending registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.User{}, model.ErrCodeInvalid
	}

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(tx.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.ProviderKey, user.ProviderName, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, mapUserConstraint(err, "failed to create user")
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedUser, nil
}
