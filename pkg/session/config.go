package session

import "time"

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// TTL is the lifetime of an authenticated session
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// CleanupInterval for expired sessions in the memory store (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		TTL:             30 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewFromConfig creates a new Manager from the provided Config.
// A cookie manager is required via WithCookieManager unless WithTransport is given.
func NewFromConfig(store Store, cfg Config, opts ...Option) *Manager {
	return New(store, append([]Option{WithConfig(cfg)}, opts...)...)
}
