package localstore

// Package localstore persists identity-less device preferences as a small
// JSON file. Used for preferences of anonymous users; authenticated
// preferences live on the profile row instead.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/itcache/portal/internal/ports"
)

// Store is a file-backed string key/value store. Writes rewrite the whole
// file through a temp-file rename so a crash never leaves a torn file.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

var _ ports.DeviceStore = (*Store)(nil)

// Open loads the store at path, creating parent directories as needed. A
// missing file is an empty store; a corrupt file is discarded and replaced
// on the next write.
func Open(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "portal", "device.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &Store{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read device store: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Unreadable stores reset rather than block startup.
		s.values = make(map[string]string)
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal device store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write device store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace device store: %w", err)
	}
	return nil
}
