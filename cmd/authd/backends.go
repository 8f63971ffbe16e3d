package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/internal/pgstore"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/redis"
	"github.com/dmitrymomot/authcore/pkg/secrets"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// backendConfig selects where users, tokens and sessions live.
type backendConfig struct {
	AuthStore      string `env:"AUTH_STORE" envDefault:"memory"`
	SessionStore   string `env:"SESSION_STORE" envDefault:"memory"`
	RateLimitStore string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
}

// validate rejects combinations the schema cannot serve: Postgres sessions
// reference rows in the users table.
func (c backendConfig) validate() error {
	if c.SessionStore == "postgres" && c.AuthStore != "postgres" {
		return fmt.Errorf("SESSION_STORE=postgres requires AUTH_STORE=postgres, got %q", c.AuthStore)
	}
	return nil
}

type backends struct {
	store        auth.Store
	sessions     session.Store
	limits       ratelimiter.Store
	checks       []httpserver.Check
	closers      []func()
	needsCleanup bool

	redisClient *goredis.Client
	redisPrefix string
}

// redis connects on first use and shares the client afterwards.
func (b *backends) redis(ctx context.Context) (*goredis.Client, string, error) {
	if b.redisClient != nil {
		return b.redisClient, b.redisPrefix, nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, "", err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	b.closers = append(b.closers, func() { _ = client.Close() })
	b.checks = append(b.checks, redis.Healthcheck(client))
	b.redisClient, b.redisPrefix = client, cfg.KeyPrefix
	return client, cfg.KeyPrefix, nil
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func openBackends(ctx context.Context, sessCfg session.Config, log *slog.Logger) (_ *backends, err error) {
	var cfg backendConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &backends{}
	defer func() {
		if err != nil {
			b.close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.AuthStore == "postgres" || cfg.SessionStore == "postgres" {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, err
		}
		pool, err = pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.checks = append(b.checks, pg.Healthcheck(pool))
		if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, err
		}
	}

	switch cfg.AuthStore {
	case "memory":
		b.store = auth.NewMemoryStore()
	case "postgres":
		var secCfg secrets.Config
		if err := config.Load(&secCfg); err != nil {
			return nil, err
		}
		tokens, err := secrets.NewFromConfig(secCfg, "oauth-tokens")
		if err != nil {
			return nil, err
		}
		if tokens == nil {
			log.WarnContext(ctx, "TOKEN_ENCRYPTION_KEY is not set, OAuth tokens are stored in plain text")
		}
		b.store = pgstore.New(pool, pgstore.WithTokenCipher(tokens))
	default:
		return nil, fmt.Errorf("unknown AUTH_STORE %q", cfg.AuthStore)
	}

	switch cfg.SessionStore {
	case "memory":
		ms := session.NewMemoryStore(sessCfg.CleanupInterval)
		b.closers = append(b.closers, func() { _ = ms.Close() })
		b.sessions = ms
	case "redis":
		client, prefix, err := b.redis(ctx)
		if err != nil {
			return nil, err
		}
		b.sessions = session.NewRedisStore(client, session.WithKeyPrefix(prefix))
	case "postgres":
		b.sessions = pgstore.New(pool).Sessions()
		b.needsCleanup = true
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	switch cfg.RateLimitStore {
	case "memory":
		b.limits = ratelimiter.NewMemoryStore()
	case "redis":
		client, _, err := b.redis(ctx)
		if err != nil {
			return nil, err
		}
		b.limits = ratelimiter.NewRedisStore(client)
	default:
		return nil, fmt.Errorf("unknown RATE_LIMIT_STORE %q", cfg.RateLimitStore)
	}

	return b, nil
}
