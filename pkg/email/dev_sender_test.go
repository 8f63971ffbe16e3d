package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/email"
)

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	sender := email.NewDevSender(dir, email.WithDevClock(func() time.Time { return at }))

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Your sign-in code",
		BodyHTML: "<p>123456</p>",
		Tag:      "two factor",
	})
	require.NoError(t, err)

	base := filepath.Join(dir, "2025_03_04_050607.000000_two_factor")
	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Equal(t, "<p>123456</p>", string(html))

	raw, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "user@example.com", meta["send_to"])
	assert.Equal(t, "Your sign-in code", meta["subject"])
	assert.Equal(t, "two factor", meta["tag"])
}

func TestDevSender_InvalidParams(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{SendTo: "bad"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
