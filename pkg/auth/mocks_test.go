package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/cookie"
	"github.com/dmitrymomot/authcore/pkg/session"
)

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendConfirmationEmail(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func (m *MockMailer) SendRecoveryEmail(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func (m *MockMailer) SendTwoFactorEmail(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

// sent returns the token passed to the last call of method for email.
func (m *MockMailer) sent(method, email string) string {
	var value string
	for _, c := range m.Calls {
		if c.Method == method && c.Arguments.String(1) == email {
			value = c.Arguments.String(2)
		}
	}
	return value
}

// acceptAll makes every send succeed.
func (m *MockMailer) acceptAll() *MockMailer {
	m.On("SendConfirmationEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendRecoveryEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendTwoFactorEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// MockSessions is a mock implementation of Sessions.
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Open(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, w, r, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	args := m.Called(ctx, w, r)
	return args.Error(0)
}

// failingStore wraps MemoryStore and fails the methods listed in errs.
type failingStore struct {
	*MemoryStore
	errs map[string]error
}

func (s *failingStore) CreateUser(ctx context.Context, u *User) error {
	if err := s.errs["CreateUser"]; err != nil {
		return err
	}
	return s.MemoryStore.CreateUser(ctx, u)
}

func (s *failingStore) ReplaceToken(ctx context.Context, t *Token) error {
	if err := s.errs["ReplaceToken"]; err != nil {
		return err
	}
	return s.MemoryStore.ReplaceToken(ctx, t)
}

func (s *failingStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := s.errs["GetUserByEmail"]; err != nil {
		return nil, err
	}
	return s.MemoryStore.GetUserByEmail(ctx, email)
}

func (s *failingStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if err := s.errs["UpdatePassword"]; err != nil {
		return err
	}
	return s.MemoryStore.UpdatePassword(ctx, id, hash)
}

// fastHasher keeps argon2id but with parameters cheap enough for tests.
func fastHasher() Hasher {
	return NewArgon2HasherWithParams(Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

type testEnv struct {
	svc      *Service
	store    *MemoryStore
	sessions *session.Manager
	sessDB   *session.MemoryStore
	mailer   *MockMailer
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	env := &testEnv{
		store:  NewMemoryStore(),
		mailer: (&MockMailer{}).acceptAll(),
	}
	env.sessDB = session.NewMemoryStore(0)
	t.Cleanup(func() { _ = env.sessDB.Close() })
	env.sessions = session.New(env.sessDB, session.WithCookieManager(cookies))
	env.svc = NewService(env.store, env.sessions, nil, env.mailer,
		append([]Option{WithHasher(fastHasher())}, opts...)...)
	return env
}

// seedUser stores a credentials user with the given password.
func (e *testEnv) seedUser(t *testing.T, email, password string, verified, twoFactor bool) *User {
	t.Helper()
	hash, err := e.svc.hasher.Hash(password)
	require.NoError(t, err)

	u := &User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       hash,
		DisplayName:        "Test",
		Method:             MethodCredentials,
		IsVerified:         verified,
		IsTwoFactorEnabled: twoFactor,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

// sessionFrom resolves the session cookie written to rec.
func (e *testEnv) sessionFrom(rec *httptest.ResponseRecorder) (*session.Session, error) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return e.sessions.Get(context.Background(), r)
}

func newRequest() (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil)
}
