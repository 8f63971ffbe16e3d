package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authcore/pkg/session"
)

const testPassword = "Str0ng!Pass"

func TestService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("verification required", func(t *testing.T) {
		env := newTestEnv(t)
		w, r := newRequest()

		res, err := env.svc.Register(ctx, w, r, RegisterInput{Email: " A@x.com ", Password: testPassword, DisplayName: "A"})
		require.NoError(t, err)
		assert.True(t, res.VerificationPending)
		assert.Equal(t, "a@x.com", res.User.Email)
		assert.False(t, res.User.IsVerified)
		assert.Equal(t, MethodCredentials, res.User.Method)
		assert.NotEqual(t, testPassword, res.User.PasswordHash)

		assert.Empty(t, w.Result().Cookies())
		assert.Equal(t, 1, env.store.TokenCount("a@x.com", TokenEmailConfirmation))

		env.svc.Wait()
		assert.NotEmpty(t, env.mailer.sent("SendConfirmationEmail", "a@x.com"))
	})

	t.Run("immediate session", func(t *testing.T) {
		env := newTestEnv(t, WithRequireEmailVerification(false))
		w, r := newRequest()

		res, err := env.svc.Register(ctx, w, r, RegisterInput{Email: "b@x.com", Password: testPassword, DisplayName: "B"})
		require.NoError(t, err)
		assert.False(t, res.VerificationPending)

		sess, err := env.sessionFrom(w)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, sess.UserID)

		env.svc.Wait()
		env.mailer.AssertNotCalled(t, "SendConfirmationEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, false)

		w, r := newRequest()
		_, err := env.svc.Register(ctx, w, r, RegisterInput{Email: "a@x.com", Password: "other", DisplayName: "A"})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, "User already exists. Use another email or login.", err.Error())
		assert.Equal(t, 1, env.store.UserCount())
	})

	t.Run("duplicate caught by store constraint", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.store = &failingStore{MemoryStore: env.store, errs: map[string]error{"CreateUser": ErrEmailTaken}}

		w, r := newRequest()
		_, err := env.svc.Register(ctx, w, r, RegisterInput{Email: "a@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 0, env.store.UserCount())
	})

	t.Run("store failure is internal", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.store = &failingStore{MemoryStore: env.store, errs: map[string]error{"GetUserByEmail": errors.New("pq: connection refused")}}

		w, r := newRequest()
		_, err := env.svc.Register(ctx, w, r, RegisterInput{Email: "a@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrInternal)
		assert.NotContains(t, err.Error(), "pq")
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("verified user without two-factor", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "a@x.com", testPassword, true, false)

		w, r := newRequest()
		res, err := env.svc.Login(ctx, w, r, LoginInput{Email: "A@X.com", Password: testPassword})
		require.NoError(t, err)
		assert.False(t, res.ChallengePending)
		assert.Equal(t, user.ID, res.User.ID)

		sess, err := env.sessionFrom(w)
		require.NoError(t, err)
		assert.Equal(t, user.ID, sess.UserID)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "nobody@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "User not found or password is not set", err.Error())
	})

	t.Run("oauth-only user", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.store.CreateUser(ctx, &User{ID: uuid.New(), Email: "g@x.com", Method: ProviderGoogle, IsVerified: true}))

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "g@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, false)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Invalid password", err.Error())
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("unverified user", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, false, false)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Email is not verified. Please check your inbox and confirm your email.", err.Error())
		assert.Empty(t, w.Result().Cookies())

		env.svc.Wait()
		assert.NotEmpty(t, env.mailer.sent("SendConfirmationEmail", "a@x.com"))
	})

	t.Run("unverified user allowed when verification is off", func(t *testing.T) {
		env := newTestEnv(t, WithRequireEmailVerification(false))
		env.seedUser(t, "a@x.com", testPassword, false, false)

		w, r := newRequest()
		res, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		assert.NotNil(t, res.User)
	})

	t.Run("hash from the previous scheme is accepted and upgraded", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "a@x.com", testPassword, true, false)
		require.Equal(t, HasherArgon2id, HashScheme(user.PasswordHash))
		env.svc.hasher = NewBcryptHasher(bcrypt.MinCost)

		w, r := newRequest()
		res, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, user.ID, res.User.ID)

		stored, err := env.store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, HasherBcrypt, HashScheme(stored.PasswordHash))

		w, r = newRequest()
		_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
	})

	t.Run("wrong password against the previous scheme", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "a@x.com", testPassword, true, false)
		env.svc.hasher = NewBcryptHasher(bcrypt.MinCost)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrUnauthorized)

		stored, err := env.store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.PasswordHash, stored.PasswordHash)
	})

	t.Run("failed upgrade still logs in", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "a@x.com", testPassword, true, false)
		env.svc.store = &failingStore{MemoryStore: env.store, errs: map[string]error{"UpdatePassword": errors.New("db down")}}
		env.svc.hasher = NewBcryptHasher(bcrypt.MinCost)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)

		stored, err := env.store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, HasherArgon2id, HashScheme(stored.PasswordHash))
	})

	t.Run("session save failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, false)
		sessions := &MockSessions{}
		sessions.On("Open", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, session.ErrSaveFailed)
		env.svc.sessions = sessions

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrInternal)
		assert.Equal(t, "Failed to save session", err.Error())
		assert.ErrorIs(t, err, session.ErrSaveFailed)
	})
}

func TestService_LoginTwoFactor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("challenge then code", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		res, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		assert.True(t, res.ChallengePending)
		assert.Nil(t, res.User)
		assert.Empty(t, w.Result().Cookies())
		assert.Equal(t, 1, env.store.TokenCount("a@x.com", TokenTwoFactor))

		env.svc.Wait()
		code := env.mailer.sent("SendTwoFactorEmail", "a@x.com")
		require.Len(t, code, 6)

		w, r = newRequest()
		res, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: code})
		require.NoError(t, err)
		assert.Equal(t, user.ID, res.User.ID)
		assert.Equal(t, 0, env.store.TokenCount("a@x.com", TokenTwoFactor))

		sess, err := env.sessionFrom(w)
		require.NoError(t, err)
		assert.Equal(t, user.ID, sess.UserID)

		w, r = newRequest()
		_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: code})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong code", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)

		_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: "000000"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("too many wrong codes revoke the challenge", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		env.svc.Wait()
		code := env.mailer.sent("SendTwoFactorEmail", "a@x.com")

		for range DefaultMaxAttempts {
			_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: "000000"})
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
		assert.Equal(t, 0, env.store.TokenCount("a@x.com", TokenTwoFactor))

		_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: code})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("code without challenge", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: "123456"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired code", func(t *testing.T) {
		clock := newFakeClock()
		env := newTestEnv(t, WithClock(clock.Now))
		env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		env.svc.Wait()
		code := env.mailer.sent("SendTwoFactorEmail", "a@x.com")

		clock.Advance(5*time.Minute + time.Second)
		_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword, Code: code})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("disabled by policy", func(t *testing.T) {
		env := newTestEnv(t, WithTwoFactor(false))
		env.seedUser(t, "a@x.com", testPassword, true, true)

		w, r := newRequest()
		res, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)
		assert.False(t, res.ChallengePending)
		assert.NotNil(t, res.User)
	})
}

func TestService_RegisterConfirmLoginScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	w, r := newRequest()
	res, err := env.svc.Register(ctx, w, r, RegisterInput{Email: "a@x.com", Password: testPassword, DisplayName: "A"})
	require.NoError(t, err)
	assert.False(t, res.User.IsVerified)

	w, r = newRequest()
	_, err = env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Email is not verified")

	env.svc.Wait()
	token := env.mailer.sent("SendConfirmationEmail", "a@x.com")
	require.NotEmpty(t, token)

	user, err := env.svc.Confirmation().Confirm(ctx, token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	w, r = newRequest()
	login, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	sess, err := env.sessionFrom(w)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, sess.UserID)
}

// stubProvider returns a fixed profile for validCode.
type stubProvider struct {
	name string
	prof Profile
	err  error
}

func (p *stubProvider) Name() string    { return p.name }
func (p *stubProvider) AuthURL() string { return "https://idp.example/authorize?client_id=c" }
func (p *stubProvider) Exchange(_ context.Context, code string) (Profile, error) {
	if p.err != nil {
		return Profile{}, p.err
	}
	if code != validCode {
		return Profile{}, ErrInvalidCode
	}
	return p.prof, nil
}

func TestService_OAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newOAuthEnv := func(t *testing.T, p Provider) *testEnv {
		env := newTestEnv(t)
		env.svc.registry = NewRegistry(p)
		return env
	}
	google := &stubProvider{name: ProviderGoogle, prof: testProfile()}

	t.Run("authorize url", func(t *testing.T) {
		env := newOAuthEnv(t, google)
		u, err := env.svc.AuthorizeURL(ctx, ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, google.AuthURL(), u)

		_, err = env.svc.AuthorizeURL(ctx, "facebook")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("callback links and opens session", func(t *testing.T) {
		env := newOAuthEnv(t, google)

		w, r := newRequest()
		user, err := env.svc.OAuthCallback(ctx, w, r, ProviderGoogle, validCode)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.Equal(t, ProviderGoogle, user.Method)

		sess, err := env.sessionFrom(w)
		require.NoError(t, err)
		assert.Equal(t, user.ID, sess.UserID)

		w, r = newRequest()
		again, err := env.svc.OAuthCallback(ctx, w, r, ProviderGoogle, validCode)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, 1, env.store.AccountCount())
	})

	t.Run("bad code", func(t *testing.T) {
		env := newOAuthEnv(t, google)
		w, r := newRequest()
		_, err := env.svc.OAuthCallback(ctx, w, r, ProviderGoogle, "bad")
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("unknown provider", func(t *testing.T) {
		env := newOAuthEnv(t, google)
		w, r := newRequest()
		_, err := env.svc.OAuthCallback(ctx, w, r, "facebook", validCode)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		env := newOAuthEnv(t, &stubProvider{name: ProviderGoogle, err: errors.New("503")})
		w, r := newRequest()
		_, err := env.svc.OAuthCallback(ctx, w, r, ProviderGoogle, validCode)
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("email owned by password user", func(t *testing.T) {
		env := newOAuthEnv(t, google)
		env.seedUser(t, "alice@x.com", testPassword, true, false)

		w, r := newRequest()
		_, err := env.svc.OAuthCallback(ctx, w, r, ProviderGoogle, validCode)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestService_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("destroys session", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", testPassword, true, false)

		w, r := newRequest()
		_, err := env.svc.Login(ctx, w, r, LoginInput{Email: "a@x.com", Password: testPassword})
		require.NoError(t, err)

		logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		for _, c := range w.Result().Cookies() {
			logoutReq.AddCookie(c)
		}
		lw := httptest.NewRecorder()
		require.NoError(t, env.svc.Logout(ctx, lw, logoutReq))

		_, err = env.sessionFrom(w)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		require.Len(t, lw.Result().Cookies(), 1)
		assert.Equal(t, -1, lw.Result().Cookies()[0].MaxAge)
	})

	t.Run("destroy failure", func(t *testing.T) {
		env := newTestEnv(t)
		sessions := &MockSessions{}
		sessions.On("Destroy", mock.Anything, mock.Anything, mock.Anything).Return(session.ErrDestroyFailed)
		env.svc.sessions = sessions

		w, r := newRequest()
		err := env.svc.Logout(ctx, w, r)
		assert.ErrorIs(t, err, ErrInternal)
		assert.Equal(t, "Failed to destroy session", err.Error())
	})
}

func TestService_Profile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t)
	user := env.seedUser(t, "a@x.com", testPassword, true, false)
	env.seedUser(t, "taken@x.com", testPassword, true, false)

	got, err := env.svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = env.svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "User not found", err.Error())

	on, off := true, false
	updated, err := env.svc.UpdateProfile(ctx, user.ID, ProfileInput{Email: "New@x.com", DisplayName: "New", IsTwoFactorEnabled: &on})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", updated.Email)
	assert.Equal(t, "New", updated.DisplayName)
	assert.True(t, updated.IsTwoFactorEnabled)

	updated, err = env.svc.UpdateProfile(ctx, user.ID, ProfileInput{DisplayName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.Equal(t, "new@x.com", updated.Email)
	assert.True(t, updated.IsTwoFactorEnabled, "two-factor kept when not sent")

	updated, err = env.svc.UpdateProfile(ctx, user.ID, ProfileInput{IsTwoFactorEnabled: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsTwoFactorEnabled)
	assert.Equal(t, "Renamed", updated.DisplayName)

	stored, err := env.store.GetUserByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.NotEmpty(t, stored.PasswordHash)

	_, err = env.svc.UpdateProfile(ctx, user.ID, ProfileInput{Email: "taken@x.com", DisplayName: "New"})
	assert.ErrorIs(t, err, ErrConflict)
}
