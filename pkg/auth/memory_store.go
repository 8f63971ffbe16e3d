package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tokenKey struct {
	email string
	typ   TokenType
}

type accountKey struct {
	provider   string
	externalID string
}

// MemoryStore is a Store kept in process memory. Every method runs under a
// single mutex, so the atomicity guarantees match a transactional database.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]User
	emails   map[string]uuid.UUID
	accounts map[accountKey]Account
	tokens   map[tokenKey]Token
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]User),
		emails:   make(map[string]uuid.UUID),
		accounts: make(map[accountKey]Account),
		tokens:   make(map[tokenKey]Token),
	}
}

func (m *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, ErrRecordNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertUser(user)
}

func (m *MemoryStore) insertUser(user *User) error {
	if _, taken := m.emails[user.Email]; taken {
		return ErrEmailTaken
	}
	if user.Role == "" {
		user.Role = RoleRegular
	}
	m.users[user.ID] = *user
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[user.ID]
	if !ok {
		return ErrRecordNotFound
	}
	if user.Email != cur.Email {
		if _, taken := m.emails[user.Email]; taken {
			return ErrEmailTaken
		}
		delete(m.emails, cur.Email)
		m.emails[user.Email] = user.ID
	}

	cur.Email = user.Email
	cur.DisplayName = user.DisplayName
	cur.Picture = user.Picture
	cur.IsVerified = user.IsVerified
	cur.IsTwoFactorEnabled = user.IsTwoFactorEnabled
	cur.UpdatedAt = user.UpdatedAt
	m.users[user.ID] = cur
	return nil
}

func (m *MemoryStore) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrRecordNotFound
	}
	u.PasswordHash = hash
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, provider, externalID string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[accountKey{provider, externalID}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &a, nil
}

func (m *MemoryStore) CreateUserWithAccount(_ context.Context, user *User, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey{account.Provider, account.ExternalID}
	if _, exists := m.accounts[key]; exists {
		return ErrAccountExists
	}
	if err := m.insertUser(user); err != nil {
		return err
	}
	m.accounts[key] = *account
	return nil
}

func (m *MemoryStore) GetTokenByValue(_ context.Context, value string, typ TokenType) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tokens {
		if t.Type == typ && t.Value == value {
			return &t, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryStore) GetTokenByEmail(_ context.Context, email string, typ TokenType) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[tokenKey{email, typ}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &t, nil
}

func (m *MemoryStore) ReplaceToken(_ context.Context, token *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := *token
	t.Attempts = 0
	m.tokens[tokenKey{token.Email, token.Type}] = t
	return nil
}

func (m *MemoryStore) IncrementTokenAttempts(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, t := range m.tokens {
		if t.ID == id {
			t.Attempts++
			m.tokens[k] = t
			return t.Attempts, nil
		}
	}
	return 0, ErrRecordNotFound
}

func (m *MemoryStore) DeleteToken(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, k)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (m *MemoryStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

// TokenCount returns the number of stored tokens of typ for email (0 or 1).
func (m *MemoryStore) TokenCount(email string, typ TokenType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.tokens[tokenKey{email, typ}]; ok {
		return 1
	}
	return 0
}

// AccountCount returns the number of linked accounts.
func (m *MemoryStore) AccountCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

// UserCount returns the number of users.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
