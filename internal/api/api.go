// Package api exposes the auth flows over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/handler"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/rbac"
	"github.com/dmitrymomot/authcore/pkg/requestid"
	"github.com/dmitrymomot/authcore/pkg/session"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

// API wires HTTP routes to the auth service.
type API struct {
	svc            *auth.Service
	sessions       *session.Manager
	registry       *auth.Registry
	cfg            Config
	log            *slog.Logger
	checks         []httpserver.Check
	trustedHeaders []string
	passwordPolicy validator.PasswordStrengthConfig
	limiter        *ratelimiter.Bucket
	authz          *rbac.Authorizer
}

type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithReadinessChecks adds dependency checks to /health/ready.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(a *API) {
		a.checks = append(a.checks, checks...)
	}
}

// WithTrustedHeaders sets the proxy headers used to resolve the client ip.
func WithTrustedHeaders(headers ...string) Option {
	return func(a *API) {
		a.trustedHeaders = headers
	}
}

// WithPasswordPolicy overrides the strength rules for new passwords.
func WithPasswordPolicy(cfg validator.PasswordStrengthConfig) Option {
	return func(a *API) {
		a.passwordPolicy = cfg
	}
}

// WithRateLimiter throttles the credential and token endpoints per client ip.
func WithRateLimiter(b *ratelimiter.Bucket) Option {
	return func(a *API) {
		a.limiter = b
	}
}

// WithAuthorizer replaces the authorizer built from DefaultRoles.
func WithAuthorizer(authz *rbac.Authorizer) Option {
	return func(a *API) {
		a.authz = authz
	}
}

func New(svc *auth.Service, sessions *session.Manager, registry *auth.Registry, cfg Config, opts ...Option) *API {
	a := &API{
		svc:            svc,
		sessions:       sessions,
		registry:       registry,
		cfg:            cfg,
		log:            logger.Discard(),
		passwordPolicy: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.authz == nil {
		a.authz = rbac.MustNewAuthorizer(context.Background(), rbac.NewMemorySource(DefaultRoles()))
	}
	a.cfg.AllowedOrigin = strings.TrimRight(a.cfg.AllowedOrigin, "/")
	return a
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware(a.trustedHeaders...), middleware.Recoverer)

	r.Get("/health/live", httpserver.HealthCheckHandler(a.log, 0))
	r.Get("/health/ready", httpserver.HealthCheckHandler(a.log, a.cfg.ReadinessTimeout, a.checks...))

	r.Route("/auth", func(r chi.Router) {
		r.With(a.limit("register")).Post("/register", wrap(a, a.register, jsonBody))
		r.With(a.limit("login")).Post("/login", wrap(a, a.login, jsonBody))
		r.Post("/logout", wrap(a, a.logout))

		r.Route("/oauth", func(r chi.Router) {
			r.With(a.providerGuard).Get("/connect/{provider}", wrap(a, a.connect, pathParams))
			r.With(a.providerGuard).Get("/callback/{provider}", wrap(a, a.callback, pathParams, queryParams))
		})

		r.With(a.limit("confirm")).Post("/email-confirmation", wrap(a, a.confirmEmail, jsonBody))

		r.Route("/password-recovery", func(r chi.Router) {
			r.Use(a.limit("recovery"))
			r.Post("/reset", wrap(a, a.requestReset, jsonBody))
			r.Get("/{token}", wrap(a, a.checkResetToken, pathParams))
			r.Post("/new/{token}", wrap(a, a.newPassword, pathParams, jsonBody))
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(a.sessions.RequireAuth)
		r.Get("/profile", wrap(a, a.profile))
		r.Patch("/profile", wrap(a, a.patchProfile, jsonBody))
		r.Put("/profile", wrap(a, a.updateProfile, jsonBody))
		r.With(a.authorize(PermUsersRead)).Get("/profile/{id}", wrap(a, a.userProfile, pathParams))
		r.With(a.authorize(PermUsersUpdate)).Put("/profile/{id}", wrap(a, a.updateUserProfile, pathParams, jsonBody))
	})

	return r
}

// providerGuard rejects unknown provider names before the handler runs.
func (a *API) providerGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.registry.Get(chi.URLParam(r, "provider")); err != nil {
			a.writeError(handler.NewContext(w, r), err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limit returns the rate limiting middleware for action, or a pass-through
// when no limiter is configured.
func (a *API) limit(action string) func(http.Handler) http.Handler {
	if a.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	key := func(r *http.Request) string {
		ip := clientip.FromContext(r.Context())
		if ip == "" {
			return ""
		}
		return action + ":" + ip
	}
	return ratelimiter.Middleware(a.limiter, key,
		ratelimiter.WithDenyHandler(func(w http.ResponseWriter, _ *http.Request, _ *ratelimiter.Result) {
			writeJSON(w, http.StatusTooManyRequests, ErrorBody{
				Error:   KindTooManyRequests,
				Message: "Too many requests. Please try again later.",
			})
		}),
		ratelimiter.WithErrorHandler(func(_ http.ResponseWriter, r *http.Request, err error) bool {
			a.log.WarnContext(r.Context(), "rate limiter unavailable",
				logger.Error(err),
				logger.Component("api"),
			)
			return true
		}),
	)
}
