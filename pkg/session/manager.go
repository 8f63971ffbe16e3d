package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/cookie"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// Manager opens, resolves and destroys sessions.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	logger        *slog.Logger
	now           func() time.Time
	unauthorized  func(w http.ResponseWriter, r *http.Request, err error)
}

// New creates a session manager backed by store.
// A nil store falls back to an in-memory store.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		logger: logger.Discard(),
		now:    time.Now,
		unauthorized: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			// Fail fast on misconfiguration to prevent insecure runtime behavior
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
	}

	return m
}

// Open starts a new session for userID and sends its token to the client.
// Any session presented by the request is destroyed first so a token set
// before authentication never becomes an authenticated one.
func (m *Manager) Open(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Session, error) {
	if prev, err := m.transport.GetToken(r); err == nil {
		if err := m.store.Delete(ctx, prev); err != nil {
			m.logger.WarnContext(ctx, "failed to delete previous session",
				logger.UserID(userID),
				logger.Error(err),
			)
		}
	}

	token, err := generateToken()
	if err != nil {
		return nil, errors.Join(ErrSaveFailed, err)
	}

	now := m.now()
	sess := &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, errors.Join(ErrSaveFailed, err)
	}

	if err := m.transport.SetToken(w, token, m.config.TTL); err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, errors.Join(ErrSaveFailed, err)
	}

	return sess, nil
}

// Destroy removes the session presented by the request and clears the token.
// A request without a session is a no-op. When the store fails the token is
// left in place so the client can retry.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil
	}

	if err := m.store.Delete(ctx, token); err != nil {
		return errors.Join(ErrDestroyFailed, err)
	}

	return m.transport.ClearToken(w)
}

// Get resolves the session presented by the request.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	return m.Lookup(ctx, token)
}

// Lookup resolves a session by its token.
func (m *Manager) Lookup(ctx context.Context, token string) (*Session, error) {
	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(m.now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// RunCleanup deletes expired sessions every interval until ctx is done.
// The memory store sweeps itself; this serves stores that do not.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.DeleteExpired(ctx); err != nil {
				m.logger.ErrorContext(ctx, "failed to delete expired sessions",
					logger.Error(err),
					logger.Component("session"),
				)
			}
		}
	}
}

// generateToken creates a cryptographically secure token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
