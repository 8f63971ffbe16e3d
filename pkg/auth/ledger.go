package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Default token lifetimes.
const (
	DefaultConfirmationTTL = time.Hour
	DefaultResetTTL        = time.Hour
	DefaultTwoFactorTTL    = 5 * time.Minute
)

// DefaultMaxAttempts is how many wrong codes a token tolerates before it is revoked.
const DefaultMaxAttempts = 5

// Ledger issues and checks single-use, expiring tokens. At most one token
// per (email, type) is live: issuing replaces the previous one.
type Ledger struct {
	store TokenStore
	ttl         map[TokenType]time.Duration
	now         func() time.Time
	maxAttempts int
}

type LedgerOption func(*Ledger)

// WithTokenTTL sets the lifetime of tokens of the given type.
func WithTokenTTL(typ TokenType, ttl time.Duration) LedgerOption {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl[typ] = ttl
		}
	}
}

// WithMaxAttempts sets how many wrong codes Verify accepts before it
// deletes the token.
func WithMaxAttempts(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithLedgerClock overrides time.Now.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLedger(store TokenStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store: store,
		ttl: map[TokenType]time.Duration{
			TokenEmailConfirmation: DefaultConfirmationTTL,
			TokenPasswordReset:     DefaultResetTTL,
			TokenTwoFactor:         DefaultTwoFactorTTL,
		},
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TTL reports the lifetime of tokens of typ.
func (l *Ledger) TTL(typ TokenType) time.Duration {
	return l.ttl[typ]
}

// Issue creates a fresh token for (email, typ), invalidating any earlier one.
func (l *Ledger) Issue(ctx context.Context, email string, typ TokenType) (*Token, error) {
	ttl, ok := l.ttl[typ]
	if !ok {
		return nil, internal(msgInternal, fmt.Errorf("unknown token type %q", typ))
	}

	value, err := generateTokenValue(typ)
	if err != nil {
		return nil, internal(msgInternal, err)
	}

	tok := &Token{
		ID:        uuid.New(),
		Email:     email,
		Value:     value,
		Type:      typ,
		ExpiresAt: l.now().Add(ttl),
	}
	if err := l.store.ReplaceToken(ctx, tok); err != nil {
		return nil, internal(msgInternal, fmt.Errorf("replace token: %w", err))
	}
	return tok, nil
}

// Consume looks a token up by value and checks its expiry. It does not
// delete the token; callers Revoke it once the dependent change is stored.
func (l *Ledger) Consume(ctx context.Context, value string, typ TokenType) (*Token, error) {
	if value == "" {
		return nil, NewError(KindNotFound, "Token not found", nil)
	}
	tok, err := l.store.GetTokenByValue(ctx, value, typ)
	if err != nil {
		return nil, lookupError(err)
	}
	if tok.Expired(l.now()) {
		return nil, NewError(KindBadRequest, "Token has expired", nil)
	}
	return tok, nil
}

// Verify checks a code presented for the live token of (email, typ).
// Used for two-factor codes, which are only unique per email. Each wrong
// code counts against the token; once maxAttempts is reached it is deleted.
func (l *Ledger) Verify(ctx context.Context, email string, typ TokenType, value string) (*Token, error) {
	tok, err := l.store.GetTokenByEmail(ctx, email, typ)
	if err != nil {
		return nil, lookupError(err)
	}
	if subtle.ConstantTimeCompare([]byte(tok.Value), []byte(value)) != 1 {
		if err := l.recordFailure(ctx, tok); err != nil {
			return nil, err
		}
		return nil, NewError(KindUnauthorized, "Invalid code", nil)
	}
	if tok.Expired(l.now()) {
		return nil, NewError(KindBadRequest, "Token has expired", nil)
	}
	return tok, nil
}

func (l *Ledger) recordFailure(ctx context.Context, tok *Token) error {
	n, err := l.store.IncrementTokenAttempts(ctx, tok.ID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil
		}
		return internal(msgInternal, fmt.Errorf("increment token attempts: %w", err))
	}
	if n >= l.maxAttempts {
		return l.Revoke(ctx, tok)
	}
	return nil
}

// Revoke deletes a token after use.
func (l *Ledger) Revoke(ctx context.Context, tok *Token) error {
	if err := l.store.DeleteToken(ctx, tok.ID); err != nil && !errors.Is(err, ErrRecordNotFound) {
		return internal(msgInternal, fmt.Errorf("delete token: %w", err))
	}
	return nil
}

// Purge deletes every expired token and returns how many were removed.
func (l *Ledger) Purge(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteExpiredTokens(ctx, l.now())
	if err != nil {
		return 0, internal(msgInternal, fmt.Errorf("delete expired tokens: %w", err))
	}
	return n, nil
}

// RunPurge calls Purge every interval until ctx is done.
func (l *Ledger) RunPurge(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.Purge(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

func lookupError(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return NewError(KindNotFound, "Token not found", err)
	}
	return internal(msgInternal, fmt.Errorf("get token: %w", err))
}

var twoFactorRange = big.NewInt(900000)

// generateTokenValue returns a 6-digit code for two-factor tokens and a
// random UUID for everything else.
func generateTokenValue(typ TokenType) (string, error) {
	if typ != TokenTwoFactor {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	n, err := rand.Int(rand.Reader, twoFactorRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
