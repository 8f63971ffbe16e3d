package auth

import (
	"time"

	"github.com/google/uuid"
)

// MethodCredentials marks users registered with email and password.
// OAuth users carry the provider name instead.
const MethodCredentials = "credentials"

// User roles. Every new user is regular; admins are promoted in the store.
const (
	RoleRegular = "regular"
	RoleAdmin   = "admin"
)

// TokenType identifies the flow a ledger token belongs to.
type TokenType string

const (
	TokenEmailConfirmation TokenType = "email_confirmation"
	TokenPasswordReset     TokenType = "password_reset"
	TokenTwoFactor         TokenType = "two_factor"
)

// User is the root identity record.
type User struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	DisplayName        string    `json:"display_name"`
	Picture            string    `json:"picture,omitempty"`
	Method             string    `json:"method"`
	Role               string    `json:"role"`
	IsVerified         bool      `json:"is_verified"`
	IsTwoFactorEnabled bool      `json:"is_two_factor_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Account links a user to one external OAuth identity.
type Account struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Provider     string
	ExternalID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Token is a single-use, expiring secret owned by an email address.
type Token struct {
	ID        uuid.UUID
	Email     string
	Value     string
	Type      TokenType
	ExpiresAt time.Time
	// Attempts counts failed checks; reset when the token is replaced.
	Attempts int
}

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Profile is the provider-neutral identity returned by a code exchange.
type Profile struct {
	ExternalID   string
	Provider     string
	Email        string
	DisplayName  string
	Picture      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"name"`
}

// RegisterResult carries the new user. When VerificationPending is set no
// session was opened and a confirmation email is on its way.
type RegisterResult struct {
	User                *User `json:"user"`
	VerificationPending bool  `json:"verification_pending"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

// LoginResult carries the authenticated user. When ChallengePending is set
// the user must repeat the login with the emailed two-factor code.
type LoginResult struct {
	User             *User `json:"user,omitempty"`
	ChallengePending bool  `json:"challenge_pending"`
}

// ProfileInput changes the fields that are set. Empty strings and a nil
// IsTwoFactorEnabled leave the stored values as they are.
type ProfileInput struct {
	Email              string `json:"email"`
	DisplayName        string `json:"display_name"`
	IsTwoFactorEnabled *bool  `json:"is_two_factor_enabled,omitempty"`
}
