package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmdb/auth-service/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, provider_key, provider_name, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ProviderKey, &user.ProviderName, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email model.Email) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email model.Email) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username model.Username) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.ProviderKey, user.ProviderName, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, mapUserConstraint(err, "failed to create user")
	}

	return savedUser, nil
}

func (r *UserRepository) CreateExternal(ctx context.Context, user model.User, login model.UserLogin) (model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(tx.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.ProviderKey, user.ProviderName, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, mapUserConstraint(err, "failed to create external user")
	}

	loginQuery := `INSERT INTO user_logins (user_id, provider_key, provider_name, linked_at)
				   VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, loginQuery,
		login.UserID, login.ProviderKey, login.ProviderName, login.LinkedAt,
	); err != nil {
		return model.User{}, fmt.Errorf("failed to create user login: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) Update(ctx context.Context, user model.User) error {
	query := `UPDATE users
			  SET username = $2, email = $3, password_hash = $4, updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
	); err != nil {
		return mapUserConstraint(err, "failed to update user")
	}
	return nil
}

func (r *UserRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_logins WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user logins: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapUserConstraint translates unique violations on the users table into
// the domain conflicts the service reports, keeping the insert race-safe.
func mapUserConstraint(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return model.ErrEmailExists
		case "users_username_key":
			return model.ErrUsernameExists
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
