// Package auth implements authentication and session orchestration: password
// and OAuth sign-in, email verification, an emailed second factor and
// password recovery.
//
// # Components
//
//   - Hasher: argon2id (default) or bcrypt password hashing.
//   - Registry and Provider: name-keyed OAuth adapters for Google, Yandex and GitHub.
//   - Ledger: typed, expiring, single-use tokens; one live token per (email, type).
//   - Linker: find-or-create of users behind external identities.
//   - Service: the register, login, OAuth callback, logout and profile flows.
//   - Confirmation and Recovery: the email confirmation and password reset flows.
//
// Persistence is behind the Store interface; MemoryStore ships here and a
// PostgreSQL implementation lives in internal/pgstore. Sessions come from
// pkg/session and mail from any Mailer, such as email.AuthMailer.
//
// # Usage
//
//	svc := auth.NewService(store, sessions, registry, mailer,
//		auth.WithRequireEmailVerification(true),
//		auth.WithTwoFactor(true),
//		auth.WithLogger(log),
//	)
//
//	res, err := svc.Login(ctx, w, r, auth.LoginInput{Email: email, Password: pw})
//	switch {
//	case err != nil:
//		// map auth.KindOf(err) to a status code
//	case res.ChallengePending:
//		// ask for the emailed code and call Login again with Code set
//	}
//
// # Errors
//
// Every operation returns *Error values with a Kind (conflict, not_found,
// unauthorized, bad_request, internal_error) and a message that is safe to
// show to users. errors.Is(err, auth.ErrNotFound) matches any NotFound error.
// Internal errors carry a generic message and keep the cause for logging.
//
// Emails are sent on background goroutines detached from request
// cancellation; delivery failures are logged and never fail a flow. Call
// Service.Wait during shutdown to let pending sends finish.
package auth
