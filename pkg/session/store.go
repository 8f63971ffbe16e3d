package session

import "context"

// Store persists sessions keyed by their opaque token.
type Store interface {
	// Create stores a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound if absent.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all expired sessions
	DeleteExpired(ctx context.Context) error
}
