package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore persists users.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser returns ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, user *User) error
	// UpdateUser saves the mutable profile fields and flags.
	UpdateUser(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
}

// AccountStore persists OAuth links.
type AccountStore interface {
	GetAccount(ctx context.Context, provider, externalID string) (*Account, error)
	// CreateUserWithAccount inserts both records atomically. It returns
	// ErrAccountExists when (provider, external id) is already linked and
	// ErrEmailTaken when the user's email is registered.
	CreateUserWithAccount(ctx context.Context, user *User, account *Account) error
}

// TokenStore persists ledger tokens.
type TokenStore interface {
	GetTokenByValue(ctx context.Context, value string, typ TokenType) (*Token, error)
	GetTokenByEmail(ctx context.Context, email string, typ TokenType) (*Token, error)
	// ReplaceToken stores token as the only one for its (email, type) pair in
	// a single atomic step.
	ReplaceToken(ctx context.Context, token *Token) error
	DeleteToken(ctx context.Context, id uuid.UUID) error
	// IncrementTokenAttempts records a failed check against the token and
	// returns the new count.
	IncrementTokenAttempts(ctx context.Context, id uuid.UUID) (int, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Store is everything the auth flows need from persistence. Lookups return
// ErrRecordNotFound when nothing matches.
type Store interface {
	UserStore
	AccountStore
	TokenStore
}
