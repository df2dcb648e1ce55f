package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StoredAuth represents the persisted login for the CLI.
type StoredAuth struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStoredAuth builds the persisted form of a successful login.
func NewStoredAuth(username string, s *Session) *StoredAuth {
	return &StoredAuth{
		Token:     s.AccessToken,
		Username:  username,
		ExpiresAt: s.Expiry(),
		CreatedAt: time.Now(),
	}
}

func TokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".folio", "auth.json")
}

// LoadToken reads the stored login from disk. Returns nil if the file
// doesn't exist or the token is expired.
func LoadToken() (*StoredAuth, error) {
	path := TokenPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	var stored StoredAuth
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse auth file: %w", err)
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, nil
	}

	return &stored, nil
}

// SaveToken writes the login to disk with 0600 permissions (temp file + rename).
func SaveToken(stored *StoredAuth) error {
	path := TokenPath()
	if path == "" {
		return fmt.Errorf("failed to resolve home directory")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename auth file: %w", err)
	}

	return nil
}

func DeleteToken() error {
	path := TokenPath()
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete auth file: %w", err)
	}
	return nil
}

func IsAuthenticated() bool {
	stored, err := LoadToken()
	return err == nil && stored != nil
}
