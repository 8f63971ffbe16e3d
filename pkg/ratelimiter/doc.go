// Package ratelimiter implements a token bucket limiter with in-memory and
// Redis storage plus an HTTP middleware.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//	    Capacity:       10,
//	    RefillRate:     1,
//	    RefillInterval: 30 * time.Second,
//	})
//	r.With(ratelimiter.Middleware(bucket, keyFunc, onLimit)).Post("/auth/login", login)
//
// A bucket starts full. Every RefillInterval adds RefillRate tokens up to
// Capacity. A request that finds too few tokens is denied without consuming
// any, and its Result reports a negative Remaining.
package ratelimiter
