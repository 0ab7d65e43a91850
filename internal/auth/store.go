// Package auth owns the process-wide bearer credential lifecycle.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store holds the current bearer token and mirrors it to a 0600 file.
//
// Lifecycle: set on login/register, cleared on logout or any 401. The core
// only consumes the Token/Invalidate capabilities.
type Store struct {
	path string

	mu    sync.RWMutex
	token string
}

// Open loads any persisted token from path, creating parent dirs lazily.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read token file %q: %w", path, err)
	}

	s.token = strings.TrimSpace(string(content))
	return s, nil
}

// Token returns the current bearer credential, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authed reports whether a credential is currently held.
func (s *Store) Authed() bool {
	return s.Token() != ""
}

// SetToken stores and persists a freshly issued credential.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Invalidate clears the credential in memory and on disk.
//
// Called on logout and whenever the server answers 401; the practice flow
// never handles expiry itself, it propagates and the user re-authenticates.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	_ = os.Remove(s.path)
}

// DefaultPath resolves the token location under the user state directory.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "echo", "token"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "echo", "token"), nil
}
