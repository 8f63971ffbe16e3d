package auth

import (
	"context"
	"errors"
	"fmt"
)

// Confirmation proves ownership of a registered email address.
type Confirmation struct {
	store  UserStore
	ledger *Ledger
	mail   *dispatcher
}

// Send mails a fresh confirmation token to a registered user.
func (c *Confirmation) Send(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := c.user(ctx, email); err != nil {
		return err
	}

	tok, err := c.ledger.Issue(ctx, email, TokenEmailConfirmation)
	if err != nil {
		return err
	}
	c.mail.confirmation(ctx, tok)
	return nil
}

// Confirm marks the token owner as verified and spends the token.
// It does not sign the user in.
func (c *Confirmation) Confirm(ctx context.Context, value string) (*User, error) {
	tok, err := c.ledger.Consume(ctx, value, TokenEmailConfirmation)
	if err != nil {
		err = rephrase(err, KindNotFound, "Confirmation token not found. Make sure you have the correct token.")
		return nil, rephrase(err, KindBadRequest, "Token has expired. Please request a new confirmation token.")
	}

	user, err := c.user(ctx, tok.Email)
	if err != nil {
		return nil, err
	}

	if !user.IsVerified {
		user.IsVerified = true
		if err := c.store.UpdateUser(ctx, user); err != nil {
			return nil, internal(msgInternal, fmt.Errorf("update user: %w", err))
		}
	}

	if err := c.ledger.Revoke(ctx, tok); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Confirmation) user(ctx context.Context, email string) (*User, error) {
	user, err := c.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "User with this email not found.", err)
		}
		return nil, internal(msgInternal, fmt.Errorf("get user by email: %w", err))
	}
	return user, nil
}
