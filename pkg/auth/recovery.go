package auth

import (
	"context"
	"errors"
	"fmt"
)

// Recovery runs password reset: SendRecovery issues a token, ConfirmRecovery
// checks it without spending it, PasswordRecovery sets the new password and
// spends it. Sessions are not touched.
type Recovery struct {
	store  UserStore
	ledger *Ledger
	hasher Hasher
	mail   *dispatcher
}

// SendRecovery mails a reset token. Delivery happens in the background and
// does not affect the result.
func (r *Recovery) SendRecovery(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := r.store.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return NewError(KindNotFound, "User doesn't exist. Try to use different email.", err)
		}
		return internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}

	tok, err := r.ledger.Issue(ctx, email, TokenPasswordReset)
	if err != nil {
		return err
	}
	r.mail.recovery(ctx, tok)
	return nil
}

// ConfirmRecovery reports whether the token exists and has not expired.
func (r *Recovery) ConfirmRecovery(ctx context.Context, value string) error {
	_, err := r.ledger.Consume(ctx, value, TokenPasswordReset)
	return err
}

// PasswordRecovery replaces the password of the token owner and deletes the
// token so it cannot be replayed.
func (r *Recovery) PasswordRecovery(ctx context.Context, value, password string) error {
	tok, err := r.ledger.Consume(ctx, value, TokenPasswordReset)
	if err != nil {
		return err
	}

	user, err := r.store.GetUserByEmail(ctx, tok.Email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return NewError(KindNotFound, "User not found", err)
		}
		return internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}
	if user.Method != MethodCredentials {
		return NewError(KindBadRequest, "User with current method doesn't exist.", nil)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return internal(msgInternal, fmt.Errorf("hash password: %w", err))
	}
	if err := r.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return internal(msgInternal, fmt.Errorf("update password: %w", err))
	}

	return r.ledger.Revoke(ctx, tok)
}
