package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// KeyFunc names the bucket a request draws from. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// DenyFunc writes the response for a limited request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, res *Result)

// ErrorFunc handles store failures. The default lets the request through.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error) (proceed bool)

type middlewareConfig struct {
	deny    DenyFunc
	onError ErrorFunc
}

type MiddlewareOption func(*middlewareConfig)

func WithDenyHandler(fn DenyFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.deny = fn
		}
	}
}

func WithErrorHandler(fn ErrorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// Middleware limits requests per key and sets X-RateLimit-* headers.
func Middleware(b *Bucket, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		deny: func(w http.ResponseWriter, _ *http.Request, _ *Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		onError: func(http.ResponseWriter, *http.Request, error) bool { return true },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), key)
			if err != nil {
				if cfg.onError(w, r, err) {
					next.ServeHTTP(w, r)
				}
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if wait := res.RetryAfter(b.now()); wait > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
				}
				cfg.deny(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
