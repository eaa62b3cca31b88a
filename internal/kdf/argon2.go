package kdf

import (
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/argon2"
)

// fingerprintDomain separates salt fingerprints from any other BLAKE3
// use of the same bytes.
var fingerprintDomain = []byte("lexa.kdf.salt-fingerprint.v1")

// Argon2 derives keys with Argon2id from a fixed salt.
type Argon2 struct {
	salt        []byte
	params      Params
	fingerprint [32]byte
}

// NewArgon2 returns a deriver bound to salt. The salt is copied.
func NewArgon2(salt []byte, params Params) (*Argon2, error) {
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedSalt, len(salt), SaltLength)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("kdf: %w", err)
	}

	a := &Argon2{
		salt:   append([]byte(nil), salt...),
		params: params,
	}
	a.fingerprint = Fingerprint(a.salt)
	return a, nil
}

// DeriveKey stretches password into a KeyLength-byte key.
func (a *Argon2) DeriveKey(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("kdf: empty password")
	}
	return argon2.IDKey(password, a.salt, a.params.Time, a.params.Memory, a.params.Threads, a.params.KeyLength), nil
}

// Fingerprint identifies the salt without revealing it.
func (a *Argon2) Fingerprint() [32]byte {
	return a.fingerprint
}

// Params returns the cost parameters in use.
func (a *Argon2) Params() Params {
	return a.params
}

// Fingerprint returns the domain-separated BLAKE3 hash of salt.
func Fingerprint(salt []byte) [32]byte {
	h := blake3.New()
	h.Write(fingerprintDomain)
	h.Write(salt)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
