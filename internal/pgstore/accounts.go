package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

func (s *Store) GetAccount(ctx context.Context, provider, externalID string) (*auth.Account, error) {
	var (
		a       auth.Account
		expires *time.Time
	)
	err := s.pool.QueryRow(ctx, `SELECT id, user_id, provider, external_id, access_token,
			refresh_token, expires_at, created_at
		FROM accounts WHERE provider = $1 AND external_id = $2`, provider, externalID,
	).Scan(&a.ID, &a.UserID, &a.Provider, &a.ExternalID, &a.AccessToken, &a.RefreshToken, &expires, &a.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("get account: %w", auth.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if expires != nil {
		a.ExpiresAt = *expires
	}
	if a.AccessToken, err = s.tokens.Decrypt(a.AccessToken); err != nil {
		return nil, fmt.Errorf("get account: access token: %w", err)
	}
	if a.RefreshToken, err = s.tokens.Decrypt(a.RefreshToken); err != nil {
		return nil, fmt.Errorf("get account: refresh token: %w", err)
	}
	return &a, nil
}

// CreateUserWithAccount commits both rows or neither. A lost race surfaces
// as ErrEmailTaken or ErrAccountExists, whichever constraint fires first.
func (s *Store) CreateUserWithAccount(ctx context.Context, u *auth.User, a *auth.Account) error {
	access, err := s.tokens.Encrypt(a.AccessToken)
	if err != nil {
		return fmt.Errorf("create user with account: access token: %w", err)
	}
	refresh, err := s.tokens.Encrypt(a.RefreshToken)
	if err != nil {
		return fmt.Errorf("create user with account: refresh token: %w", err)
	}
	err = pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO accounts (id, user_id, provider, external_id,
				access_token, refresh_token, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.UserID, a.Provider, a.ExternalID, access, refresh,
			nullTime(a.ExpiresAt), timestamp(a.CreatedAt))
		return mapUnique(err)
	})
	if err != nil {
		return fmt.Errorf("create user with account: %w", err)
	}
	return nil
}
