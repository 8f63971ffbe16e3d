package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// SessionStore implements session.Store on the sessions table.
type SessionStore struct {
	pool *pgxpool.Pool
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO sessions (id, token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.Token, sess.UserID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	var sess session.Session
	err := s.pool.QueryRow(ctx, `SELECT id, token, user_id, created_at, expires_at
		FROM sessions WHERE token = $1`, token,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
