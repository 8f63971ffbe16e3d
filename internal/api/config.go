package api

import "time"

// Config holds the HTTP boundary settings.
type Config struct {
	// AllowedOrigin is the frontend the OAuth callback redirects to.
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// ReadinessTimeout bounds the dependency checks of /health/ready.
	ReadinessTimeout time.Duration `env:"HEALTH_READINESS_TIMEOUT" envDefault:"2s"`
}
