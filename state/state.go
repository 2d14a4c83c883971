// Package state is the key/value store behind the wallcycle settings file.
//
// Values are kept as a generic map so keys written by other tools survive a
// round trip. The encoding (YAML or TOML) follows the file extension.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/pkg/paths"
)

// State is the settings file as a generic map of key-value pairs.
type State map[string]interface{}

// Store reads and writes one settings file.
type Store struct {
	path   string
	format config.Format
	mu     sync.Mutex
}

// New returns a store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path, format: config.FormatFor(path)}
}

// Default returns the store for paths.SettingsPath.
func Default() *Store {
	return New(paths.SettingsPath())
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file.
// Returns an empty state if the file doesn't exist.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	raw, err := config.Unmarshal(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	return State(raw), nil
}

// Save writes the state. The file is replaced atomically so a watcher never
// observes a half-written document.
func (s *Store) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(st)
}

func (s *Store) save(st State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := config.Marshal(map[string]interface{}(st), s.format)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result. Nothing is
// written when fn returns an error.
func (s *Store) Update(fn func(State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.save(st)
}

// Get retrieves a value by key.
// Returns the value and true if found, nil and false otherwise.
func (s *Store) Get(key string) (interface{}, bool, error) {
	st, err := s.Load()
	if err != nil {
		return nil, false, err
	}

	val, ok := st[key]
	return val, ok, nil
}

// GetString returns the value for key formatted as a string, or "" when the
// key is missing.
func (s *Store) GetString(key string) (string, error) {
	val, ok, err := s.Get(key)
	if err != nil || !ok || val == nil {
		return "", err
	}
	if str, ok := val.(string); ok {
		return str, nil
	}
	return fmt.Sprint(val), nil
}

// Set sets a value.
func (s *Store) Set(key string, value interface{}) error {
	return s.Update(func(st State) error {
		st[key] = value
		return nil
	})
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	return s.Update(func(st State) error {
		delete(st, key)
		return nil
	})
}
