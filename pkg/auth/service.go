package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// Sessions opens and destroys the server-side session of a request.
// *session.Manager satisfies it.
type Sessions interface {
	Open(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*session.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

var _ Sessions = (*session.Manager)(nil)

// Service runs the register, login, OAuth, logout and profile flows.
// Every returned error is an *Error.
type Service struct {
	store    Store
	sessions Sessions
	registry *Registry
	hasher   Hasher
	ledger   *Ledger
	linker   *Linker
	mail     *dispatcher
	logger   *slog.Logger
	now      func() time.Time

	requireVerification bool
	twoFactor           bool

	confirmation *Confirmation
	recovery     *Recovery
}

type Option func(*Service)

func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithLedger replaces the token ledger built over the store.
func WithLedger(l *Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequireEmailVerification toggles the verification-required policy.
func WithRequireEmailVerification(on bool) Option {
	return func(s *Service) {
		s.requireVerification = on
	}
}

// WithTwoFactor toggles the emailed second factor.
func WithTwoFactor(on bool) Option {
	return func(s *Service) {
		s.twoFactor = on
	}
}

// WithClock overrides time.Now for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMailTimeout bounds each background email send. Default 10s.
func WithMailTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mail.timeout = d
		}
	}
}

// NewService wires the flows. Both policies are on by default.
func NewService(store Store, sessions Sessions, registry *Registry, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		store:               store,
		sessions:            sessions,
		registry:            registry,
		hasher:              NewArgon2Hasher(),
		logger:              logger.Discard(),
		now:                 time.Now,
		requireVerification: true,
		twoFactor:           true,
		mail:                &dispatcher{mailer: mailer, timeout: 10 * time.Second},
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ledger == nil {
		s.ledger = NewLedger(store, WithLedgerClock(s.now))
	}
	s.mail.logger = s.logger
	s.linker = &Linker{users: store, accounts: store, now: s.now}
	s.confirmation = &Confirmation{store: store, ledger: s.ledger, mail: s.mail}
	s.recovery = &Recovery{store: store, ledger: s.ledger, hasher: s.hasher, mail: s.mail}

	return s
}

// Confirmation exposes the email confirmation flow.
func (s *Service) Confirmation() *Confirmation {
	return s.confirmation
}

// Recovery exposes the password recovery flow.
func (s *Service) Recovery() *Recovery {
	return s.recovery
}

// Ledger exposes the token ledger, e.g. for scheduled purges.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Wait blocks until background email sends have finished.
func (s *Service) Wait() {
	s.mail.wait()
}

// Register creates a credentials user. With verification required it mails
// a confirmation token and opens no session; otherwise the user is signed in.
func (s *Service) Register(ctx context.Context, w http.ResponseWriter, r *http.Request, in RegisterInput) (*RegisterResult, error) {
	email := normalizeEmail(in.Email)

	switch _, err := s.store.GetUserByEmail(ctx, email); {
	case err == nil:
		return nil, errUserExists
	case !errors.Is(err, ErrRecordNotFound):
		return nil, internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal(msgInternal, fmt.Errorf("hash password: %w", err))
	}

	now := s.now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Method:       MethodCredentials,
		Role:         RoleRegular,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, errUserExists
		}
		return nil, internal(msgInternal, fmt.Errorf("create user: %w", err))
	}

	s.logger.InfoContext(ctx, "user registered",
		logger.UserID(user.ID),
		logger.Event("register"),
		logger.Component("auth"),
	)

	if s.requireVerification {
		tok, err := s.ledger.Issue(ctx, email, TokenEmailConfirmation)
		if err != nil {
			return nil, err
		}
		s.mail.confirmation(ctx, tok)
		return &RegisterResult{User: user, VerificationPending: true}, nil
	}

	if err := s.openSession(ctx, w, r, user); err != nil {
		return nil, err
	}
	return &RegisterResult{User: user}, nil
}

// Login checks credentials and the active policies, then opens a session.
// With two-factor on for the user, a call without a code mails one and
// reports ChallengePending; the repeat call with the code completes the login.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}
	if err != nil || !user.HasPassword() {
		return nil, NewError(KindNotFound, "User not found or password is not set", nil)
	}

	ok, err := s.verifyPassword(ctx, user, in.Password)
	if err != nil {
		return nil, internal(msgInternal, fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return nil, NewError(KindUnauthorized, "Invalid password", nil)
	}

	if s.requireVerification && !user.IsVerified {
		tok, err := s.ledger.Issue(ctx, email, TokenEmailConfirmation)
		if err != nil {
			return nil, err
		}
		s.mail.confirmation(ctx, tok)
		return nil, NewError(KindUnauthorized, "Email is not verified. Please check your inbox and confirm your email.", nil)
	}

	if s.twoFactor && user.IsTwoFactorEnabled {
		code := strings.TrimSpace(in.Code)
		if code == "" {
			tok, err := s.ledger.Issue(ctx, email, TokenTwoFactor)
			if err != nil {
				return nil, err
			}
			s.mail.twoFactor(ctx, tok)
			return &LoginResult{ChallengePending: true}, nil
		}

		tok, err := s.ledger.Verify(ctx, email, TokenTwoFactor, code)
		if err != nil {
			err = rephrase(err, KindNotFound, "Two-factor token not found. Please request a new code.")
			err = rephrase(err, KindUnauthorized, "Invalid two-factor authentication code. Please check the code and try again.")
			err = rephrase(err, KindBadRequest, "Two-factor token has expired. Please request a new code.")
			return nil, err
		}
		if err := s.ledger.Revoke(ctx, tok); err != nil {
			return nil, err
		}
	}

	if err := s.openSession(ctx, w, r, user); err != nil {
		return nil, err
	}
	return &LoginResult{User: user}, nil
}

// AuthorizeURL returns the consent URL of the named provider.
func (s *Service) AuthorizeURL(_ context.Context, provider string) (string, error) {
	p, err := s.registry.Get(provider)
	if err != nil {
		return "", err
	}
	return p.AuthURL(), nil
}

// OAuthCallback exchanges code with the provider, links the identity to a
// user and opens a session.
func (s *Service) OAuthCallback(ctx context.Context, w http.ResponseWriter, r *http.Request, provider, code string) (*User, error) {
	p, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	prof, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "provider exchange failed",
			logger.Provider(provider),
			logger.Error(err),
			logger.Component("auth"),
		)
		switch {
		case errors.Is(err, ErrInvalidCode):
			return nil, NewError(KindBadRequest, "Invalid authorization code", err)
		case errors.Is(err, ErrNoVerifiedEmail):
			return nil, NewError(KindBadRequest, "Provider did not return a verified email", err)
		default:
			return nil, internal("Failed to fetch provider profile", err)
		}
	}
	prof.Provider = p.Name()

	user, err := s.linker.Link(ctx, prof)
	if err != nil {
		return nil, err
	}

	if err := s.openSession(ctx, w, r, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout destroys the request's session and clears its cookie.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := s.sessions.Destroy(ctx, w, r); err != nil {
		s.logger.ErrorContext(ctx, "failed to destroy session",
			logger.Error(err),
			logger.Component("auth"),
		)
		return internal("Failed to destroy session", err)
	}
	return nil
}

// Profile returns the user with the given id.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "User not found", err)
		}
		return nil, internal(msgInternal, fmt.Errorf("get user: %w", err))
	}
	return user, nil
}

// UpdateProfile changes email, display name and the two-factor opt-in.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email := normalizeEmail(in.Email); email != "" && email != user.Email {
		switch _, err := s.store.GetUserByEmail(ctx, email); {
		case err == nil:
			return nil, errEmailInUse
		case !errors.Is(err, ErrRecordNotFound):
			return nil, internal(msgInternal, fmt.Errorf("get user by email: %w", err))
		}
		user.Email = email
	}
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		user.DisplayName = name
	}
	if in.IsTwoFactorEnabled != nil {
		user.IsTwoFactorEnabled = *in.IsTwoFactorEnabled
	}
	user.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, errEmailInUse
		}
		return nil, internal(msgInternal, fmt.Errorf("update user: %w", err))
	}
	return user, nil
}

// verifyPassword checks password against the hasher that produced the
// stored hash. A match on a hash from another scheme is rehashed with the
// configured hasher.
func (s *Service) verifyPassword(ctx context.Context, user *User, password string) (bool, error) {
	verifier := s.hasher
	stored, current := HashScheme(user.PasswordHash), schemeOf(s.hasher)
	stale := stored != "" && current != "" && stored != current
	if stale {
		h, err := NewHasher(stored)
		if err != nil {
			return false, err
		}
		verifier = h
	}

	ok, err := verifier.Verify(user.PasswordHash, password)
	if err != nil || !ok || !stale {
		return ok, err
	}

	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.store.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehash password",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("auth"),
		)
		return true, nil
	}
	user.PasswordHash = hash
	return true, nil
}

func (s *Service) openSession(ctx context.Context, w http.ResponseWriter, r *http.Request, user *User) error {
	if _, err := s.sessions.Open(ctx, w, r, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to save session",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("auth"),
		)
		return internal("Failed to save session", err)
	}
	s.logger.InfoContext(ctx, "session opened",
		logger.UserID(user.ID),
		logger.Event("login"),
		logger.Component("auth"),
	)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	errUserExists = NewError(KindConflict, "User already exists. Use another email or login.", nil)
	errEmailInUse = NewError(KindConflict, "User with this email already exists.", nil)
)
