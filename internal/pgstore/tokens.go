package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

const tokenColumns = `id, email, type, value, expires_at, attempts`

func scanToken(row pgx.Row) (*auth.Token, error) {
	var t auth.Token
	if err := row.Scan(&t.ID, &t.Email, &t.Type, &t.Value, &t.ExpiresAt, &t.Attempts); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrRecordNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTokenByValue(ctx context.Context, value string, typ auth.TokenType) (*auth.Token, error) {
	t, err := scanToken(s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE value = $1 AND type = $2`, value, typ))
	if err != nil {
		return nil, fmt.Errorf("get token by value: %w", err)
	}
	return t, nil
}

func (s *Store) GetTokenByEmail(ctx context.Context, email string, typ auth.TokenType) (*auth.Token, error) {
	t, err := scanToken(s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE email = $1 AND type = $2`, email, typ))
	if err != nil {
		return nil, fmt.Errorf("get token by email: %w", err)
	}
	return t, nil
}

// ReplaceToken upserts on (email, type), so concurrent issues leave one row.
func (s *Store) ReplaceToken(ctx context.Context, t *auth.Token) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO tokens (id, email, type, value, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email, type) DO UPDATE
		SET id = EXCLUDED.id, value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, attempts = 0`,
		t.ID, t.Email, t.Type, t.Value, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete token: %w", auth.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) IncrementTokenAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`UPDATE tokens SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`, id).Scan(&n)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, fmt.Errorf("increment token attempts: %w", auth.ErrRecordNotFound)
		}
		return 0, fmt.Errorf("increment token attempts: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
