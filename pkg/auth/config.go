package auth

import "time"

// Config holds the policy switches of the auth flows.
type Config struct {
	// RequireEmailVerification withholds sessions from unverified users and
	// sends a confirmation email on registration.
	RequireEmailVerification bool `env:"AUTH_REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`

	// TwoFactor enables the emailed second factor for users who opted in.
	TwoFactor bool `env:"AUTH_TWO_FACTOR" envDefault:"true"`

	// PasswordHasher is argon2id or bcrypt.
	PasswordHasher string `env:"AUTH_PASSWORD_HASHER" envDefault:"argon2id"`

	ConfirmationTokenTTL time.Duration `env:"AUTH_CONFIRMATION_TOKEN_TTL" envDefault:"1h"`
	ResetTokenTTL        time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"1h"`
	TwoFactorTokenTTL    time.Duration `env:"AUTH_TWO_FACTOR_TOKEN_TTL" envDefault:"5m"`

	// TwoFactorMaxAttempts revokes a two-factor code after this many wrong guesses.
	TwoFactorMaxAttempts int `env:"AUTH_TWO_FACTOR_MAX_ATTEMPTS" envDefault:"5"`

	// TokenPurgeInterval controls expired token cleanup (0 disables it).
	TokenPurgeInterval time.Duration `env:"AUTH_TOKEN_PURGE_INTERVAL" envDefault:"1h"`

	// MailTimeout bounds each background email send.
	MailTimeout time.Duration `env:"AUTH_MAIL_TIMEOUT" envDefault:"10s"`
}

// LedgerOptions maps the token lifetimes and attempt cap onto ledger options.
func (c Config) LedgerOptions() []LedgerOption {
	return []LedgerOption{
		WithTokenTTL(TokenEmailConfirmation, c.ConfirmationTokenTTL),
		WithTokenTTL(TokenPasswordReset, c.ResetTokenTTL),
		WithTokenTTL(TokenTwoFactor, c.TwoFactorTokenTTL),
		WithMaxAttempts(c.TwoFactorMaxAttempts),
	}
}

// NewServiceFromConfig builds a Service whose policy and hasher follow cfg.
// Explicit opts are applied last.
func NewServiceFromConfig(cfg Config, store Store, sessions Sessions, registry *Registry, mailer Mailer, opts ...Option) (*Service, error) {
	hasher, err := NewHasher(cfg.PasswordHasher)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithRequireEmailVerification(cfg.RequireEmailVerification),
		WithTwoFactor(cfg.TwoFactor),
		WithHasher(hasher),
		WithLedger(NewLedger(store, cfg.LedgerOptions()...)),
		WithMailTimeout(cfg.MailTimeout),
	}
	return NewService(store, sessions, registry, mailer, append(base, opts...)...), nil
}
