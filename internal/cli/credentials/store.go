// Package credentials persists smbdctl's control-plane login to disk
// between invocations. Unlike the teacher's multi-context credential
// store, smbdctl only ever talks to one admin API at a time, so there's
// a single saved server/token pair rather than a map of named contexts.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	fileName    = "smbdctl-credentials.json"
	filePerm    = 0600
	dirPerm     = 0700
)

// ErrNotLoggedIn indicates no saved credentials exist.
var ErrNotLoggedIn = errors.New("not logged in - run 'smbdctl login' first")

// Session is the saved control-plane login.
type Session struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the access token has expired or is within
// 60 seconds of expiring.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(60 * time.Second).After(s.ExpiresAt)
}

// HasRefreshToken reports whether a refresh token was saved.
func (s *Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// Store reads and writes the saved Session.
type Store struct {
	path string
}

// NewStore opens the store at its default location
// ($XDG_CONFIG_HOME/smbd/smbdctl-credentials.json).
func NewStore() (*Store, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// Path returns the file path credentials are saved to.
func (s *Store) Path() string { return s.path }

// Load returns the saved Session, or ErrNotLoggedIn if none exists.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: read %s: %w", s.path, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("credentials: parse %s: %w", s.path, err)
	}
	return &sess, nil
}

// Save writes sess, creating the containing directory if needed.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("credentials: create directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		return fmt.Errorf("credentials: write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes any saved session.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smbd"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("credentials: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "smbd"), nil
}
