package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/session"
)

func TestWaitCtx(t *testing.T) {
	t.Parallel()

	assert.NoError(t, waitCtx(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	assert.ErrorIs(t, waitCtx(ctx, func() { <-block }), context.DeadlineExceeded)
}

func TestOpenBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)
		t.Setenv("AUTH_STORE", "memory")
		t.Setenv("SESSION_STORE", "memory")
		t.Setenv("RATE_LIMIT_STORE", "memory")

		b, err := openBackends(context.Background(), session.DefaultConfig(), logger.Discard())
		require.NoError(t, err)
		defer b.close()

		assert.IsType(t, &auth.MemoryStore{}, b.store)
		assert.IsType(t, &session.MemoryStore{}, b.sessions)
		assert.IsType(t, &ratelimiter.MemoryStore{}, b.limits)
		assert.Empty(t, b.checks)
		assert.False(t, b.needsCleanup)
	})

	t.Run("unknown session store", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)
		t.Setenv("AUTH_STORE", "memory")
		t.Setenv("SESSION_STORE", "etcd")

		_, err := openBackends(context.Background(), session.DefaultConfig(), logger.Discard())
		assert.ErrorContains(t, err, `unknown SESSION_STORE "etcd"`)
	})

	t.Run("postgres sessions need postgres users", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)
		t.Setenv("AUTH_STORE", "memory")
		t.Setenv("SESSION_STORE", "postgres")
		t.Setenv("PG_CONN_URL", "postgres://unreachable.invalid:1/db")

		_, err := openBackends(context.Background(), session.DefaultConfig(), logger.Discard())
		assert.ErrorContains(t, err, `SESSION_STORE=postgres requires AUTH_STORE=postgres, got "memory"`)
	})

	t.Run("unknown auth store", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)
		t.Setenv("AUTH_STORE", "sqlite")
		t.Setenv("SESSION_STORE", "memory")

		_, err := openBackends(context.Background(), session.DefaultConfig(), logger.Discard())
		assert.ErrorContains(t, err, `unknown AUTH_STORE "sqlite"`)
	})
}
