// Package pgstore persists users, OAuth accounts, ledger tokens and sessions
// in PostgreSQL.
package pgstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authcore/internal/pgstore/migrations"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/secrets"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// Store implements auth.Store over a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	tokens *secrets.Cipher
}

var _ auth.Store = (*Store)(nil)

type Option func(*Store)

// WithTokenCipher encrypts OAuth access and refresh tokens at rest.
// Rows written without a cipher cannot be read back with one.
func WithTokenCipher(c *secrets.Cipher) Option {
	return func(s *Store) {
		s.tokens = c
	}
}

func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations.FS, cfg, log)
}

// Sessions returns a session.Store sharing the pool.
func (s *Store) Sessions() *SessionStore {
	return &SessionStore{pool: s.pool}
}

var _ session.Store = (*SessionStore)(nil)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// timestamp defaults the zero time to now.
func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
