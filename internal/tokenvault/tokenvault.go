// Package tokenvault stores the OIDC refresh token between runs.
package tokenvault

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/logger"
	"github.com/lexaledger/lexa/internal/prefs"
	"github.com/lexaledger/lexa/internal/secretstore"
)

// Vault is refresh-token storage.
type Vault interface {
	SetRefreshToken(token string) error
	// GetRefreshToken reports ok=false when no token is stored.
	GetRefreshToken() (token string, ok bool, err error)
	Clear() error
	HasRefreshToken() (bool, error)
}

// Declare conformity to Vault interface
var (
	_ Vault = (*Secure)(nil)
	_ Vault = Ephemeral{}
)

// Secure keeps the token in the encrypted secret store. The vault
// password comes from the preferences file in the same directory.
type Secure struct {
	backend      secretstore.Backend
	snapshotPath string
	prefsPath    string
}

// NewSecure returns a vault rooted at dataDir.
func NewSecure(backend secretstore.Backend, dataDir string) *Secure {
	return &Secure{
		backend:      backend,
		snapshotPath: filepath.Join(dataDir, constants.SnapshotFileName),
		prefsPath:    filepath.Join(dataDir, constants.PrefsFileName),
	}
}

// SnapshotPath returns the vault file location.
func (v *Secure) SnapshotPath() string {
	return v.snapshotPath
}

func (v *Secure) open() (*secretstore.Snapshot, *secretstore.Client, error) {
	p, err := prefs.Load(v.prefsPath)
	if err != nil {
		return nil, nil, err
	}
	pw, err := p.GetOrCreateVaultPassword()
	if err != nil {
		return nil, nil, err
	}

	snap, err := v.backend.Load(v.snapshotPath, []byte(pw))
	if err != nil {
		return nil, nil, err
	}
	client, err := snap.LoadOrCreateClient(constants.ClientName)
	if err != nil {
		snap.Close()
		return nil, nil, err
	}
	return snap, client, nil
}

// SetRefreshToken stores token, replacing any previous one.
func (v *Secure) SetRefreshToken(token string) error {
	if token == "" {
		return errors.New("tokenvault: empty refresh token")
	}

	snap, client, err := v.open()
	if err != nil {
		return fmt.Errorf("tokenvault: %w", err)
	}
	defer snap.Close()

	if err := client.Insert(constants.RefreshKey, []byte(token)); err != nil {
		return fmt.Errorf("tokenvault: %w", err)
	}
	if err := snap.Save(); err != nil {
		return fmt.Errorf("tokenvault: %w", err)
	}

	logger.Info("refresh token stored")
	return nil
}

// GetRefreshToken returns the stored token.
func (v *Secure) GetRefreshToken() (string, bool, error) {
	snap, client, err := v.open()
	if err != nil {
		return "", false, fmt.Errorf("tokenvault: %w", err)
	}
	defer snap.Close()

	data, err := client.Get(constants.RefreshKey)
	if errors.Is(err, secretstore.ErrRecordNotFound) {
		logger.Info("no refresh token found")
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tokenvault: %w", err)
	}

	logger.Info("refresh token retrieved")
	return string(data), true, nil
}

// Clear removes the stored token.
func (v *Secure) Clear() error {
	snap, client, err := v.open()
	if err != nil {
		return fmt.Errorf("tokenvault: %w", err)
	}
	defer snap.Close()

	client.Remove(constants.RefreshKey)
	if err := snap.Save(); err != nil {
		return fmt.Errorf("tokenvault: %w", err)
	}

	logger.Info("refresh token cleared")
	return nil
}

// HasRefreshToken reports whether a token is stored.
func (v *Secure) HasRefreshToken() (bool, error) {
	_, ok, err := v.GetRefreshToken()
	return ok, err
}

// Ephemeral never persists tokens.
type Ephemeral struct{}

func (Ephemeral) SetRefreshToken(string) error {
	logger.Info("token persistence disabled, refresh token not stored")
	return nil
}

func (Ephemeral) GetRefreshToken() (string, bool, error) { return "", false, nil }

func (Ephemeral) Clear() error { return nil }

func (Ephemeral) HasRefreshToken() (bool, error) { return false, nil }
