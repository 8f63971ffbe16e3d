package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Linker maps an external identity onto a local user.
type Linker struct {
	users    UserStore
	accounts AccountStore
	now      func() time.Time
}

func NewLinker(users UserStore, accounts AccountStore) *Linker {
	return &Linker{users: users, accounts: accounts, now: time.Now}
}

// Link returns the user owning the (provider, external id) identity,
// creating a verified user and its account on first sight. Concurrent calls
// for the same identity converge on one user.
func (l *Linker) Link(ctx context.Context, prof Profile) (*User, error) {
	if user, found, err := l.owner(ctx, prof); found || err != nil {
		return user, err
	}

	email := normalizeEmail(prof.Email)
	if email == "" {
		return nil, NewError(KindBadRequest, "Provider did not return a verified email", ErrNoVerifiedEmail)
	}
	switch _, err := l.users.GetUserByEmail(ctx, email); {
	case err == nil:
		return l.settle(ctx, prof)
	case !errors.Is(err, ErrRecordNotFound):
		return nil, internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}

	now := l.now()
	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: prof.DisplayName,
		Picture:     prof.Picture,
		Method:      prof.Provider,
		Role:        RoleRegular,
		IsVerified:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	account := &Account{
		ID:           uuid.New(),
		UserID:       user.ID,
		Provider:     prof.Provider,
		ExternalID:   prof.ExternalID,
		AccessToken:  prof.AccessToken,
		RefreshToken: prof.RefreshToken,
		ExpiresAt:    prof.ExpiresAt,
		CreatedAt:    now,
	}

	err := l.accounts.CreateUserWithAccount(ctx, user, account)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrAccountExists), errors.Is(err, ErrEmailTaken):
		return l.settle(ctx, prof)
	default:
		return nil, internal(msgInternal, fmt.Errorf("create user with account: %w", err))
	}
}

// settle runs after the email turned out to be taken: either a concurrent
// callback for the same identity created the user, or the email belongs to
// someone else.
func (l *Linker) settle(ctx context.Context, prof Profile) (*User, error) {
	user, found, err := l.owner(ctx, prof)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errEmailOwned
	}
	return user, nil
}

// owner resolves the user behind an existing account. found is false when
// the identity has never been linked.
func (l *Linker) owner(ctx context.Context, prof Profile) (user *User, found bool, err error) {
	acc, err := l.accounts.GetAccount(ctx, prof.Provider, prof.ExternalID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, internal(msgInternal, fmt.Errorf("get account: %w", err))
	}

	user, err = l.users.GetUserByID(ctx, acc.UserID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, true, NewError(KindNotFound, "User not found", err)
		}
		return nil, true, internal(msgInternal, fmt.Errorf("get user: %w", err))
	}
	return user, true, nil
}

var errEmailOwned = NewError(KindConflict, "User with this email already exists. Sign in with your password.", nil)
