// Package secretstore is lexa's encrypted credential vault.
//
// A Backend turns a vault password into an unlocked Snapshot. The only
// backend today is the snapshot backend, which keeps every client and
// record in a single encrypted file keyed by Argon2id. Platforms
// without a backend fail closed with ErrUnsupportedPlatform; there is
// no plaintext fallback.
package secretstore

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUnsupportedPlatform = errors.New("secretstore: no secret store backend for this platform")
	ErrSaltMismatch        = errors.New("secretstore: snapshot was sealed with a different salt")
	ErrDecrypt             = errors.New("secretstore: snapshot decryption failed (wrong password or tampered file)")
	ErrCorruptSnapshot     = errors.New("secretstore: snapshot is corrupted")
	ErrClientNotFound      = errors.New("secretstore: client not found")
	ErrClientExists        = errors.New("secretstore: client already exists")
	ErrRecordNotFound      = errors.New("secretstore: record not found")
	ErrClosed              = errors.New("secretstore: snapshot is closed")
)

// KeyDeriver turns a password into a symmetric key. Fingerprint
// identifies the salt the deriver is bound to.
type KeyDeriver interface {
	DeriveKey(password []byte) ([]byte, error)
	Fingerprint() [32]byte
}

// Backend unlocks vault files.
type Backend interface {
	// Name identifies the backend in logs and diagnostics
	Name() string
	// Load opens the vault at path with password. A missing file
	// yields an empty snapshot that is created on the first Save.
	Load(path string, password []byte) (*Snapshot, error)
}

// desktopPlatforms have a persistent, user-private filesystem for the
// snapshot and salt files.
var desktopPlatforms = map[string]bool{
	"linux":   true,
	"darwin":  true,
	"windows": true,
	"freebsd": true,
	"openbsd": true,
	"netbsd":  true,
}

// New returns the backend for goos.
func New(goos string, deriver KeyDeriver) (Backend, error) {
	if deriver == nil {
		return nil, errors.New("secretstore: nil key deriver")
	}
	if !desktopPlatforms[goos] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	return &snapshotBackend{deriver: deriver}, nil
}
