package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filmdb/auth-service/internal/model"
)

var _ model.UserLoginStore = (*UserLoginRepository)(nil)

type UserLoginRepository struct {
	db DB
}

func NewUserLoginRepository(db DB) *UserLoginRepository {
	return &UserLoginRepository{db: db}
}

func (r *UserLoginRepository) GetByProvider(ctx context.Context, key model.ProviderKey, name model.ProviderName) (model.UserLogin, error) {
	query := `SELECT user_id, provider_key, provider_name, linked_at
			  FROM user_logins WHERE provider_key = $1 AND provider_name = $2`

	var login model.UserLogin
	err := r.db.QueryRow(ctx, query, key, name).Scan(
		&login.UserID, &login.ProviderKey, &login.ProviderName, &login.LinkedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserLogin{}, model.ErrNotFound
		}
		return model.UserLogin{}, fmt.Errorf("failed to get user login: %w", err)
	}

	return login, nil
}

func (r *UserLoginRepository) Create(ctx context.Context, login model.UserLogin) error {
	query := `INSERT INTO user_logins (user_id, provider_key, provider_name, linked_at)
			  VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query,
		login.UserID, login.ProviderKey, login.ProviderName, login.LinkedAt,
	); err != nil {
		return fmt.Errorf("failed to create user login: %w", err)
	}
	return nil
}

func (r *UserLoginRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM user_logins WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete user logins: %w", err)
	}
	return nil
}
