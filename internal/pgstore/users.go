package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

const userColumns = `id, email, password_hash, display_name, picture, method,
	role, is_verified, is_two_factor_enabled, created_at, updated_at`

const (
	constraintUserEmail  = "users_email_key"
	constraintAccountKey = "accounts_provider_external_id_key"
)

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Picture, &u.Method,
		&u.Role, &u.IsVerified, &u.IsTwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrRecordNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if err := insertUser(ctx, s.pool, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, db execer, u *auth.User) error {
	if u.Role == "" {
		u.Role = auth.RoleRegular
	}
	_, err := db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Picture, u.Method,
		u.Role, u.IsVerified, u.IsTwoFactorEnabled, timestamp(u.CreatedAt), timestamp(u.UpdatedAt))
	return mapUnique(err)
}

func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET
			email = $2, display_name = $3, picture = $4, is_verified = $5,
			is_two_factor_enabled = $6, updated_at = $7
		WHERE id = $1`,
		u.ID, u.Email, u.DisplayName, u.Picture, u.IsVerified, u.IsTwoFactorEnabled, timestamp(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update user: %w", mapUnique(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user: %w", auth.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", auth.ErrRecordNotFound)
	}
	return nil
}

// mapUnique translates unique violations into the auth store sentinels.
func mapUnique(err error) error {
	switch pg.DuplicateConstraint(err) {
	case constraintUserEmail:
		return auth.ErrEmailTaken
	case constraintAccountKey:
		return auth.ErrAccountExists
	}
	return err
}
