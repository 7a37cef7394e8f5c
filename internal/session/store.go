// Package session tracks the authenticated identity across restarts. The
// current user is persisted under a single well-known key, mirroring how the
// rest of the system keeps its document under one key.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"dentalcore/pkg/domain"
)

// sessionKey is the single slot a session store manages.
const sessionKey = "dental_session"

// ErrNoSession is returned when no identity has been stored.
var ErrNoSession = errors.New("no active session")

// Store persists the current identity. Implementations hold at most one user.
type Store interface {
	Save(user domain.User) error
	Load() (domain.User, error)
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	user *domain.User
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := user.Sanitize()
	s.user = &cp
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load() (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, ErrNoSession
	}
	return *s.user, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

// FileStore persists the session as a JSON file so identity survives process
// restarts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a file-backed session store rooted at dir. An empty
// dir falls back to the user cache directory, then the working directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		if cache, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(cache, "dentalcore")
		} else {
			dir = "."
		}
	}
	return &FileStore{path: filepath.Join(dir, sessionKey+".json")}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Save implements Store.
func (s *FileStore) Save(user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(user.Sanitize())
	if err != nil {
		return domain.StorageError{Op: "encode session", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.StorageError{Op: "prepare session dir", Err: err}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return domain.StorageError{Op: "write session", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return domain.StorageError{Op: "commit session", Err: err}
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load() (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.User{}, ErrNoSession
	}
	if err != nil {
		return domain.User{}, domain.StorageError{Op: "read session", Err: err}
	}
	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return domain.User{}, domain.StorageError{Op: "decode session", Err: err}
	}
	return user, nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.StorageError{Op: "clear session", Err: err}
	}
	return nil
}
