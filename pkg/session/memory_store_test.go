package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/session"
)

func newSession(ttl time.Duration) *session.Session {
	now := time.Now()
	return &session.Session{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		UserID:    uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create get delete", func(t *testing.T) {
		store := session.NewMemoryStore(0)
		s := newSession(time.Hour)

		require.NoError(t, store.Create(ctx, s))
		got, err := store.Get(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, s.UserID, got.UserID)

		got.UserID = uuid.Nil
		again, err := store.Get(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, s.UserID, again.UserID)

		require.NoError(t, store.Delete(ctx, s.Token))
		_, err = store.Get(ctx, s.Token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		require.NoError(t, store.Delete(ctx, s.Token))
	})

	t.Run("rejects invalid session", func(t *testing.T) {
		store := session.NewMemoryStore(0)
		assert.ErrorIs(t, store.Create(ctx, nil), session.ErrInvalidSession)
		assert.ErrorIs(t, store.Create(ctx, &session.Session{}), session.ErrInvalidSession)
	})

	t.Run("delete expired", func(t *testing.T) {
		store := session.NewMemoryStore(0)
		live := newSession(time.Hour)
		dead := newSession(-time.Minute)
		require.NoError(t, store.Create(ctx, live))
		require.NoError(t, store.Create(ctx, dead))

		require.NoError(t, store.DeleteExpired(ctx))
		assert.Equal(t, 1, store.Len())
		_, err := store.Get(ctx, live.Token)
		assert.NoError(t, err)
	})

	t.Run("cleanup loop", func(t *testing.T) {
		store := session.NewMemoryStore(10 * time.Millisecond)
		t.Cleanup(func() { _ = store.Close() })
		require.NoError(t, store.Create(ctx, newSession(-time.Minute)))

		assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
		assert.NoError(t, store.Close())
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := session.NewMemoryStore(0)
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := newSession(time.Hour)
				assert.NoError(t, store.Create(ctx, s))
				_, err := store.Get(ctx, s.Token)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, store.Len())
	})
}
