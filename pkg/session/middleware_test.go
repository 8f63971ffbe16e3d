package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/session"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	m := newManager(t, session.NewMemoryStore(0))
	userID := uuid.New()

	w := httptest.NewRecorder()
	_, err := m.Open(context.Background(), w, httptest.NewRequest(http.MethodPost, "/", nil), userID)
	require.NoError(t, err)

	t.Run("attaches session", func(t *testing.T) {
		var got uuid.UUID
		h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got, _ = session.UserIDFromContext(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), requestWith(w))
		assert.Equal(t, userID, got)
	})

	t.Run("passes through without session", func(t *testing.T) {
		called := false
		h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			_, ok := session.FromContext(r.Context())
			assert.False(t, ok)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	m := newManager(t, session.NewMemoryStore(0),
		session.WithUnauthorizedHandler(func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects anonymous request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.RequireAuth(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("allows authenticated request", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, err := m.Open(context.Background(), w, httptest.NewRequest(http.MethodPost, "/", nil), uuid.New())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		m.RequireAuth(ok).ServeHTTP(rec, requestWith(w))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
