package auth

import "errors"

// Kind classifies an authentication failure for the boundary layer.
type Kind string

const (
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindBadRequest   Kind = "bad_request"
	KindInternal     Kind = "internal_error"
)

// Error is returned by every Service operation. Message is safe to show to
// the end user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels: errors.Is(err, ErrNotFound) holds for any
// NotFound error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrInternal     = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err, or KindInternal for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// rephrase replaces the message of err when it has the given kind, so flows
// can attach their own wording to generic ledger errors.
func rephrase(err error, kind Kind, message string) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == kind {
		return NewError(kind, message, e.Err)
	}
	return err
}

// internal wraps an infrastructure failure with a generic message.
func internal(message string, cause error) error {
	return NewError(KindInternal, message, cause)
}

// Store sentinels. Store implementations return these (possibly wrapped).
var (
	ErrRecordNotFound = errors.New("auth.record_not_found")
	ErrEmailTaken     = errors.New("auth.email_taken")
	ErrAccountExists  = errors.New("auth.account_exists")
)

// Provider adapter errors.
var (
	ErrInvalidCode     = errors.New("auth.invalid_oauth_code")
	ErrNoVerifiedEmail = errors.New("auth.no_verified_email")
)

const msgInternal = "Internal server error"
