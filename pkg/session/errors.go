package session

import "errors"

var (
	// ErrInvalidSession indicates a malformed session was passed to a store
	ErrInvalidSession = errors.New("session.invalid")

	// ErrSessionExpired indicates the session has expired
	ErrSessionExpired = errors.New("session.expired")

	// ErrSessionNotFound indicates no session was found
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrSaveFailed indicates a new session could not be persisted
	ErrSaveFailed = errors.New("session.save_failed")

	// ErrDestroyFailed indicates a session could not be removed from the store
	ErrDestroyFailed = errors.New("session.destroy_failed")
)
