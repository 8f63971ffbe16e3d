package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewError(KindInternal, "Failed to save session", cause)

	assert.Equal(t, "Failed to save session", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("login: %w", err)
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrInternal)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"conflict", errUserExists, KindConflict},
		{"not found", NewError(KindNotFound, "Token not found", nil), KindNotFound},
		{"foreign error", errors.New("boom"), KindInternal},
		{"sentinel", ErrBadRequest, KindBadRequest},
		{"forbidden", NewError(KindForbidden, "Insufficient rights", nil), KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRephrase(t *testing.T) {
	t.Parallel()

	base := NewError(KindNotFound, "Token not found", ErrRecordNotFound)

	got := rephrase(base, KindNotFound, "Confirmation token not found.")
	assert.Equal(t, "Confirmation token not found.", got.Error())
	assert.ErrorIs(t, got, ErrRecordNotFound)

	same := rephrase(base, KindBadRequest, "expired")
	assert.Equal(t, base, same)

	assert.Equal(t, "internal_error", ErrInternal.Error())
}
