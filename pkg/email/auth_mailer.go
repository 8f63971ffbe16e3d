package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/email/templates"
)

// AuthMailer renders the auth flow messages and hands them to an EmailSender.
type AuthMailer struct {
	sender  EmailSender
	baseURL string
	product string
}

var _ auth.Mailer = (*AuthMailer)(nil)

// NewAuthMailer builds links against baseURL, e.g. https://app.example.com.
func NewAuthMailer(sender EmailSender, baseURL, product string) *AuthMailer {
	if product == "" {
		product = "authcore"
	}
	return &AuthMailer{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		product: product,
	}
}

// NewAuthMailerFromConfig picks the sender from cfg.
func NewAuthMailerFromConfig(cfg Config) (*AuthMailer, error) {
	sender, err := NewSenderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewAuthMailer(sender, cfg.LinkBaseURL, cfg.ProductName), nil
}

func (m *AuthMailer) SendConfirmationEmail(ctx context.Context, email, token string) error {
	link := m.baseURL + "/auth/email-confirmation?token=" + url.QueryEscape(token)
	return m.send(ctx, email, "Confirm your email address", "email_confirmation",
		templates.Confirmation(templates.LinkData{Product: m.product, Link: link}))
}

func (m *AuthMailer) SendRecoveryEmail(ctx context.Context, email, token string) error {
	link := m.baseURL + "/auth/password-recovery/" + url.PathEscape(token)
	return m.send(ctx, email, "Reset your password", "password_reset",
		templates.Recovery(templates.LinkData{Product: m.product, Link: link}))
}

func (m *AuthMailer) SendTwoFactorEmail(ctx context.Context, email, code string) error {
	return m.send(ctx, email, "Your sign-in code", "two_factor",
		templates.TwoFactor(templates.CodeData{Product: m.product, Code: code}))
}

func (m *AuthMailer) send(ctx context.Context, to, subject, tag string, tpl templ.Component) error {
	body, err := templates.Render(ctx, tpl)
	if err != nil {
		return fmt.Errorf("render %s email: %w", tag, err)
	}
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: body,
		Tag:      tag,
	})
}
