package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const lastRequestFile = "last.json"

// FileStore remembers the last request of a CLI viewer.
// It is stored as JSON in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based store.
// If baseDir is empty, defaults to ~/.config/trustchain/session/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "trustchain", "session")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the file holding the last request.
func (s *FileStore) Path() string {
	return filepath.Join(s.baseDir, lastRequestFile)
}

// Last returns the saved request. ok is false when nothing was saved or
// the file no longer parses.
func (s *FileStore) Last() (req Request, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return Request{}, false, nil
		}
		return Request{}, false, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Domain == "" {
		return Request{}, false, nil
	}
	return req, true, nil
}

// Save stores req, replacing any earlier request.
func (s *FileStore) Save(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the saved request.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
