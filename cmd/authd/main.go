// Command authd serves the authentication API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/authcore/internal/api"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/cookie"
	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/requestid"
	"github.com/dmitrymomot/authcore/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(append(logger.FromConfig(logCfg),
		logger.WithContextExtractors(requestid.LogAttr, clientip.LogAttr),
	)...)
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("authd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		authCfg   auth.Config
		provCfg   auth.ProvidersConfig
		sessCfg   session.Config
		cookieCfg cookie.Config
		mailCfg   email.Config
		apiCfg    api.Config
		ipCfg     clientip.Config
		srvCfg    httpserver.Config
		rlCfg     ratelimiter.Config
	)
	if err := errors.Join(
		config.Load(&authCfg),
		config.Load(&provCfg),
		config.Load(&sessCfg),
		config.Load(&cookieCfg),
		config.Load(&mailCfg),
		config.Load(&apiCfg),
		config.Load(&ipCfg),
		config.Load(&srvCfg),
		config.Load(&rlCfg),
	); err != nil {
		return err
	}

	be, err := openBackends(ctx, sessCfg, log)
	if err != nil {
		return err
	}

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		be.close()
		return fmt.Errorf("cookie manager: %w", err)
	}
	sessions := session.NewFromConfig(be.sessions, sessCfg,
		session.WithCookieManager(cookies),
		session.WithLogger(log),
		session.WithUnauthorizedHandler(api.WriteUnauthorized),
	)

	mailer, err := email.NewAuthMailerFromConfig(mailCfg)
	if err != nil {
		be.close()
		return fmt.Errorf("mailer: %w", err)
	}

	registry := auth.NewRegistryFromConfig(provCfg)
	svc, err := auth.NewServiceFromConfig(authCfg, be.store, sessions, registry, mailer, auth.WithLogger(log))
	if err != nil {
		be.close()
		return err
	}
	log.InfoContext(ctx, "auth service ready",
		slog.Any("providers", registry.Names()),
		slog.Bool("require_email_verification", authCfg.RequireEmailVerification),
		slog.Bool("two_factor", authCfg.TwoFactor),
	)

	if authCfg.TokenPurgeInterval > 0 {
		go svc.Ledger().RunPurge(ctx, authCfg.TokenPurgeInterval, func(err error) {
			log.WarnContext(ctx, "token purge failed", logger.Error(err), logger.Component("auth"))
		})
	}
	if be.needsCleanup && sessCfg.CleanupInterval > 0 {
		go sessions.RunCleanup(ctx, sessCfg.CleanupInterval)
	}

	limiter, err := ratelimiter.NewBucket(be.limits, rlCfg)
	if err != nil {
		be.close()
		return err
	}
	if ms, ok := be.limits.(*ratelimiter.MemoryStore); ok {
		go pruneLimits(ctx, ms, rlCfg)
	}

	handler := api.New(svc, sessions, registry, apiCfg,
		api.WithLogger(log),
		api.WithReadinessChecks(be.checks...),
		api.WithTrustedHeaders(ipCfg.TrustedHeaders...),
		api.WithRateLimiter(limiter),
	).Routes()

	srv := httpserver.NewFromConfig(srvCfg,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook("mail", func(ctx context.Context) error {
			return waitCtx(ctx, svc.Wait)
		}),
		httpserver.WithShutdownHook("backends", func(context.Context) error {
			be.close()
			return nil
		}),
	)
	return srv.Run(ctx, handler)
}

// pruneLimits drops idle in-memory rate limit buckets.
func pruneLimits(ctx context.Context, store *ratelimiter.MemoryStore, cfg ratelimiter.Config) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			store.Prune(cfg, now, time.Hour)
		}
	}
}

// waitCtx runs wait and gives up when ctx is done first.
func waitCtx(ctx context.Context, wait func()) error {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
