package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

// Mailer delivers the messages the auth flows emit.
type Mailer interface {
	SendConfirmationEmail(ctx context.Context, email, token string) error
	SendRecoveryEmail(ctx context.Context, email, token string) error
	SendTwoFactorEmail(ctx context.Context, email, code string) error
}

// dispatcher sends mail off the request path. Delivery failures are logged,
// never returned to the flow that triggered them.
type dispatcher struct {
	mailer  Mailer
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func (d *dispatcher) send(ctx context.Context, event, email string, fn func(context.Context, Mailer) error) {
	if d.mailer == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("mail sender panicked",
					logger.Event(event),
					logger.Email(email),
					slog.Any("panic", r),
					logger.Component("auth"),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := fn(ctx, d.mailer); err != nil {
			d.logger.Error("failed to send email",
				logger.Event(event),
				logger.Email(email),
				logger.Error(err),
				logger.Component("auth"),
			)
		}
	}()
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}

func (d *dispatcher) confirmation(ctx context.Context, tok *Token) {
	d.send(ctx, "confirmation_email", tok.Email, func(ctx context.Context, m Mailer) error {
		return m.SendConfirmationEmail(ctx, tok.Email, tok.Value)
	})
}

func (d *dispatcher) recovery(ctx context.Context, tok *Token) {
	d.send(ctx, "recovery_email", tok.Email, func(ctx context.Context, m Mailer) error {
		return m.SendRecoveryEmail(ctx, tok.Email, tok.Value)
	})
}

func (d *dispatcher) twoFactor(ctx context.Context, tok *Token) {
	d.send(ctx, "two_factor_email", tok.Email, func(ctx context.Context, m Mailer) error {
		return m.SendTwoFactorEmail(ctx, tok.Email, tok.Value)
	})
}
