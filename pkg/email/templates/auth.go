package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// LinkData fills the confirmation and recovery messages.
type LinkData struct {
	Product string
	Link    string
}

// CodeData fills the two-factor message.
type CodeData struct {
	Product string
	Code    string
}

// Confirmation asks the user to confirm their email address.
func Confirmation(d LinkData) templ.Component {
	return layout(d.Product, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeAll(w,
			text("Thanks for signing up for "+d.Product+". Confirm your email address to finish creating your account."),
			button("Confirm email", d.Link),
			secondary("If you did not create an account, you can ignore this message."),
		)
	}))
}

// Recovery carries the password reset link.
func Recovery(d LinkData) templ.Component {
	return layout(d.Product, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeAll(w,
			text("We received a request to reset the password of your "+d.Product+" account."),
			button("Reset password", d.Link),
			secondary("If you did not request a reset, your password stays unchanged."),
		)
	}))
}

// TwoFactor carries the one-time sign-in code.
func TwoFactor(d CodeData) templ.Component {
	return layout(d.Product, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeAll(w,
			text("Use this code to finish signing in to "+d.Product+":"),
			otp(d.Code),
			secondary("The code expires in a few minutes. Never share it with anyone."),
		)
	}))
}

func layout(product string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head>`+
				`<body style="margin:0;padding:24px;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">`+
				`<table role="presentation" width="100%%" style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px;"><tr><td>`+
				`<h1 style="margin:0 0 24px;font-size:20px;color:#18181b;">%s</h1>`,
			templ.EscapeString(product), templ.EscapeString(product),
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</td></tr></table></body></html>`)
		return err
	})
}

func text(s string) string {
	return `<p style="margin:0 0 16px;font-size:15px;line-height:22px;color:#27272a;">` + templ.EscapeString(s) + `</p>`
}

func secondary(s string) string {
	return `<p style="margin:16px 0 0;font-size:13px;line-height:18px;color:#71717a;">` + templ.EscapeString(s) + `</p>`
}

func button(label, href string) string {
	return `<p style="margin:24px 0;"><a href="` + templ.EscapeString(href) +
		`" style="display:inline-block;padding:12px 24px;background:#2563eb;color:#ffffff;text-decoration:none;border-radius:6px;font-weight:bold;">` +
		templ.EscapeString(label) + `</a></p>`
}

func otp(code string) string {
	return `<p style="margin:24px 0;font-size:32px;letter-spacing:8px;font-weight:bold;font-family:monospace;color:#18181b;">` +
		templ.EscapeString(code) + `</p>`
}

func writeAll(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
