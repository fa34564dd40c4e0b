// Package config owns the persisted app settings. The on-disk file is a flat
// JSON object, created with defaults on first run and fully rewritten on every
// mutation. The running process is the only writer; the file is a mirror.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/web96lol/reveal/internal/shell"
)

// Config is the user-facing settings record.
type Config struct {
	AutoOpen      bool   `json:"autoOpen"`
	AutoAccept    bool   `json:"autoAccept"`
	AcceptDelayMs uint32 `json:"acceptDelay"`
	MultiProvider string `json:"multiProvider"`
	AutoReport    bool   `json:"autoReport"`
}

// Default returns the first-run settings.
func Default() Config {
	return Config{
		AutoOpen:      true,
		AutoAccept:    true,
		AcceptDelayMs: 2000,
		MultiProvider: "opgg",
		AutoReport:    false,
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "reveal", "config.json"), nil
}

// Store is the exclusive owner of the live config. Reads get a snapshot;
// writes persist to disk and broadcast the new value to the shell.
type Store struct {
	mu     sync.Mutex
	path   string
	cfg    Config
	notify shell.Notifier
}

// Load opens the store at path, creating the file with defaults when absent.
func Load(path string, notify shell.Notifier) (*Store, error) {
	if notify == nil {
		notify = shell.Discard
	}
	s := &Store{path: path, cfg: Default(), notify: notify}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := s.write(s.cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, &s.cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if s.cfg.MultiProvider == "" {
			s.cfg.MultiProvider = Default().MultiProvider
		}
	}

	return s, nil
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update replaces the settings, persists them, and notifies the shell.
func (s *Store) Update(cfg Config) error {
	s.mu.Lock()
	s.cfg = cfg
	err := s.write(cfg)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify.Emit(shell.EventConfigUpdated, cfg)
	return nil
}

func (s *Store) write(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
