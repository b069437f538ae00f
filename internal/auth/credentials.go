// Package auth implements the chat service login flow and the on-disk
// credential cache shared across runs.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"deepseek/internal/logging"
)

// Credentials is the triple produced by a successful login. All three
// fields are present together or the record is treated as absent.
type Credentials struct {
	SessionID string `json:"session_id"`
	AuthToken string `json:"auth_token"`
	Cookie    string `json:"cookie"`
}

// Valid reports whether the record carries the full triple.
func (c *Credentials) Valid() bool {
	return c != nil && c.SessionID != "" && c.AuthToken != "" && c.Cookie != ""
}

// Store persists a single credential record to a fixed file path.
//
// There is no cross-process locking: concurrent writers race and the last
// writer wins. Acceptable for a single-user local tool.
type Store struct {
	path string
}

// NewStore creates a store at the default location,
// ~/.deepseek_credentials.json.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Store{path: filepath.Join(home, ".deepseek_credentials.json")}, nil
}

// NewStoreAt creates a store at an explicit path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cached record. A missing file returns (nil, nil). A file
// that fails to parse, or parses without the full triple, is treated as
// absent: the corruption is logged and a fresh login is forced. Any other
// I/O failure (permissions and the like) surfaces to the caller.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		logging.CacheWarn("ignoring corrupt credential file %s: %v", s.path, err)
		return nil, nil
	}
	if !creds.Valid() {
		logging.CacheWarn("ignoring incomplete credential file %s", s.path)
		return nil, nil
	}

	logging.Cache("loaded credentials from %s", s.path)
	return &creds, nil
}

// Save overwrites the record wholesale. The write goes through a temp file
// and rename so a crash never leaves a truncated record behind.
func (s *Store) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".deepseek_credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close credentials file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	logging.Cache("saved credentials to %s", s.path)
	return nil
}
