// Package prefs persists lexa's non-sensitive per-install preferences.
//
// The vault password lives here: it is generated once per install and
// only protects the vault together with the salt file and Argon2.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/logger"
)

type file struct {
	VaultPassword string `toml:"vault_password,omitempty"`
}

// Store is a preferences file loaded into memory.
type Store struct {
	path   string
	values file
}

// Load reads the preferences at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	if _, err := toml.Decode(string(data), &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	return s, nil
}

// Path returns the preferences file path.
func (s *Store) Path() string {
	return s.path
}

// VaultPassword returns the stored vault password, or "" if none.
func (s *Store) VaultPassword() string {
	return s.values.VaultPassword
}

// Save writes the preferences to disk.
func (s *Store) Save() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.values); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), constants.SecretFileMode); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// GetOrCreateVaultPassword returns the per-install vault password,
// generating and saving a random one on first use.
func (s *Store) GetOrCreateVaultPassword() (string, error) {
	if pw := s.values.VaultPassword; pw != "" {
		return pw, nil
	}

	pw, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate vault password: %w", err)
	}
	s.values.VaultPassword = pw.String()
	if err := s.Save(); err != nil {
		s.values.VaultPassword = ""
		return "", err
	}

	logger.Info("generated new vault password", "prefs", s.path)
	return s.values.VaultPassword, nil
}
