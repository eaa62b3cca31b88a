// Package kdf derives vault keys from a password and a persistent salt
// file using Argon2id.
package kdf

import (
	"errors"
	"fmt"
)

// KeyLength is the only derived key length accepted. The secret store
// cipher takes 256-bit keys.
const KeyLength = 32

// Params are the Argon2id cost parameters.
type Params struct {
	// Time is the number of passes over memory
	Time uint32 `toml:"time"`
	// Memory is the memory cost in KiB
	Memory uint32 `toml:"memory"`
	// Threads is the degree of parallelism
	Threads uint8 `toml:"threads"`
	// KeyLength is the derived key size in bytes
	KeyLength uint32 `toml:"key_length"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		Time:      3,
		Memory:    64 * 1024,
		Threads:   4,
		KeyLength: KeyLength,
	}
}

// Validate rejects parameter sets Argon2id cannot run with, or that
// produce keys of the wrong size.
func (p Params) Validate() error {
	if p.Time == 0 {
		return errors.New("time must be at least 1")
	}
	if p.Threads == 0 {
		return errors.New("threads must be at least 1")
	}
	// Argon2 requires at least 8 KiB per lane.
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	}
	if p.KeyLength != KeyLength {
		return fmt.Errorf("key_length must be %d, got %d", KeyLength, p.KeyLength)
	}
	return nil
}
