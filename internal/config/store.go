package config

import (
	"fmt"
	"sync"
)

// FileStore serves credentials from a config file and writes changes back
// to it immediately.
type FileStore struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// NewFileStore wraps an already loaded config.
func NewFileStore(path string, cfg *Config) *FileStore {
	return &FileStore{path: path, cfg: cfg}
}

// Credentials returns the current credentials.
func (s *FileStore) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Credentials
}

// SetCredentials updates the credentials and saves the file.
func (s *FileStore) SetCredentials(apiID int32, apiHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cfg.Credentials
	s.cfg.Credentials = Credentials{APIID: apiID, APIHash: apiHash}
	if err := Save(s.path, s.cfg); err != nil {
		s.cfg.Credentials = prev
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Config returns the wrapped config. Callers must not modify it.
func (s *FileStore) Config() *Config {
	return s.cfg
}
