package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
)

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newRedisStore(t *testing.T) *ratelimiter.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("test:"))
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucket(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) ratelimiter.Store{
		"memory": func(*testing.T) ratelimiter.Store { return ratelimiter.NewMemoryStore() },
		"redis":  func(t *testing.T) ratelimiter.Store { return newRedisStore(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			clk := newClock()
			b, err := ratelimiter.NewBucket(newStore(t), testConfig, ratelimiter.WithClock(clk.now))
			require.NoError(t, err)

			for want := 2; want >= 0; want-- {
				res, err := b.Allow(ctx, "ip")
				require.NoError(t, err)
				assert.True(t, res.Allowed())
				assert.Equal(t, want, res.Remaining)
				assert.Equal(t, 3, res.Limit)
			}

			res, err := b.Allow(ctx, "ip")
			require.NoError(t, err)
			assert.False(t, res.Allowed())
			assert.Equal(t, -1, res.Remaining)
			assert.Equal(t, time.Minute, res.RetryAfter(clk.now()))

			other, err := b.Allow(ctx, "other-ip")
			require.NoError(t, err)
			assert.True(t, other.Allowed())

			clk.add(time.Minute)
			res, err = b.Allow(ctx, "ip")
			require.NoError(t, err)
			assert.True(t, res.Allowed())
			assert.Equal(t, 0, res.Remaining)

			clk.add(10 * time.Hour)
			res, err = b.AllowN(ctx, "ip", 3)
			require.NoError(t, err)
			assert.True(t, res.Allowed(), "refill is capped at capacity")
			assert.Equal(t, 0, res.Remaining)

			require.NoError(t, b.Reset(ctx, "ip"))
			res, err = b.Allow(ctx, "ip")
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining)

			_, err = b.AllowN(ctx, "ip", 0)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
		})
	}
}

func TestMemoryStore_Prune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	store := ratelimiter.NewMemoryStore()

	_, _, err := store.Take(ctx, "a", 1, testConfig, clk.now())
	require.NoError(t, err)

	assert.Zero(t, store.Prune(testConfig, clk.now(), time.Hour))
	clk.add(2 * time.Hour)
	assert.Equal(t, 1, store.Prune(testConfig, clk.now(), time.Hour))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(),
		ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(ctx, "k")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

type failingStore struct{}

func (failingStore) Take(context.Context, string, int, ratelimiter.Config, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, ratelimiter.ErrStoreUnavailable
}
func (failingStore) Reset(context.Context, string) error { return nil }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Key") }
	send := func(h http.Handler, key string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.Header.Set("X-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	t.Run("limits and sets headers", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), testConfig, ratelimiter.WithClock(clk.now))
		require.NoError(t, err)
		var denied *ratelimiter.Result
		h := ratelimiter.Middleware(b, byHeader, ratelimiter.WithDenyHandler(
			func(w http.ResponseWriter, _ *http.Request, res *ratelimiter.Result) {
				denied = res
				w.WriteHeader(http.StatusTooManyRequests)
			}))(ok)

		for range 3 {
			assert.Equal(t, http.StatusOK, send(h, "1.2.3.4").Code)
		}
		rec := send(h, "1.2.3.4")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		require.NotNil(t, denied)
		assert.False(t, denied.Allowed())
	})

	t.Run("empty key bypasses", func(t *testing.T) {
		t.Parallel()
		b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
		require.NoError(t, err)
		h := ratelimiter.Middleware(b, byHeader)(ok)
		for range 3 {
			assert.Equal(t, http.StatusOK, send(h, "").Code)
		}
	})

	t.Run("store failure fails open by default", func(t *testing.T) {
		t.Parallel()
		b, err := ratelimiter.NewBucket(failingStore{}, testConfig)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, send(ratelimiter.Middleware(b, byHeader)(ok), "k").Code)

		var seen error
		closed := ratelimiter.Middleware(b, byHeader, ratelimiter.WithErrorHandler(
			func(w http.ResponseWriter, _ *http.Request, err error) bool {
				seen = err
				w.WriteHeader(http.StatusServiceUnavailable)
				return false
			}))(ok)
		assert.Equal(t, http.StatusServiceUnavailable, send(closed, "k").Code)
		assert.True(t, errors.Is(seen, ratelimiter.ErrStoreUnavailable))
	})
}
