package session

import (
	"context"
	"errors"
	"sync"

	"dentalcore/pkg/domain"
)

// Authenticator verifies credentials. *core.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
}

// Manager combines an authenticator with a session store and caches the
// current identity in memory.
type Manager struct {
	auth  Authenticator
	store Store

	mu      sync.RWMutex
	current *domain.User
}

// NewManager builds a manager. A nil store falls back to in-memory sessions.
func NewManager(auth Authenticator, store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{auth: auth, store: store}
}

// Login authenticates the credentials and, on success, persists the returned
// identity as the active session. The stored user never carries credential
// material.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	if err := m.store.Save(user); err != nil {
		return domain.User{}, err
	}
	m.mu.Lock()
	m.current = &user
	m.mu.Unlock()
	return user, nil
}

// Logout clears the active session. Logging out with no session is not an
// error.
func (m *Manager) Logout(context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.store.Clear()
}

// Current returns the active identity, or ErrNoSession.
func (m *Manager) Current() (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return domain.User{}, ErrNoSession
	}
	return *m.current, nil
}

// Restore loads a previously persisted session into memory, typically at
// startup. A missing session leaves the manager logged out without error.
func (m *Manager) Restore(context.Context) (domain.User, bool, error) {
	user, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	m.mu.Lock()
	m.current = &user
	m.mu.Unlock()
	return user, true, nil
}
