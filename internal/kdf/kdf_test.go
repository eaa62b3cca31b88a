package kdf

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fastParams keeps Argon2 cheap enough for unit tests.
var fastParams = Params{Time: 1, Memory: 64, Threads: 1, KeyLength: KeyLength}

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"fast", fastParams, false},
		{"zero time", Params{Time: 0, Memory: 64, Threads: 1, KeyLength: 32}, true},
		{"zero threads", Params{Time: 1, Memory: 64, Threads: 0, KeyLength: 32}, true},
		{"memory below lanes", Params{Time: 1, Memory: 15, Threads: 2, KeyLength: 32}, true},
		{"short key", Params{Time: 1, Memory: 64, Threads: 1, KeyLength: 16}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadOrCreateSaltCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salt.txt")

	salt, err := LoadOrCreateSalt(path)
	require.NoError(t, err)
	require.Len(t, salt, SaltLength)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, salt, onDisk)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadOrCreateSaltKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salt.txt")
	existing := bytes.Repeat([]byte{0xA5}, SaltLength)
	require.NoError(t, os.WriteFile(path, existing, 0600))
	before, err := os.Stat(path)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		salt, err := LoadOrCreateSalt(path)
		require.NoError(t, err)
		require.Equal(t, existing, salt)
	}

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestLoadOrCreateSaltMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"short", []byte("too short")},
		{"long", bytes.Repeat([]byte{1}, SaltLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "salt.txt")
			require.NoError(t, os.WriteFile(path, tt.content, 0600))

			_, err := LoadOrCreateSalt(path)
			require.ErrorIs(t, err, ErrMalformedSalt)

			onDisk, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, len(tt.content), len(onDisk), "malformed salt must not be rewritten")
		})
	}
}

func TestLoadOrCreateSaltDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salt.txt")
	require.NoError(t, os.Mkdir(path, 0700))

	_, err := LoadOrCreateSalt(path)
	require.ErrorIs(t, err, ErrMalformedSalt)
}

func TestLoadOrCreateSaltConcurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "salt.txt")

	const workers = 16
	salts := make([][]byte, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			salts[i], errs[i] = LoadOrCreateSalt(path)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		require.Equal(t, salts[0], salts[i], "worker %d saw a different salt", i)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary salt files must be removed")
	require.Equal(t, "salt.txt", entries[0].Name())
}

func TestLoadOrCreateSaltMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "salt.txt")

	_, err := LoadOrCreateSalt(path)
	require.Error(t, err)
}

func TestArgon2DeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltLength)
	a, err := NewArgon2(salt, fastParams)
	require.NoError(t, err)

	k1, err := a.DeriveKey([]byte("password"))
	require.NoError(t, err)
	require.Len(t, k1, KeyLength)

	k2, err := a.DeriveKey([]byte("password"))
	require.NoError(t, err)
	require.Equal(t, k1, k2, "derivation must be deterministic")

	k3, err := a.DeriveKey([]byte("other"))
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)

	other, err := NewArgon2(bytes.Repeat([]byte{8}, SaltLength), fastParams)
	require.NoError(t, err)
	k4, err := other.DeriveKey([]byte("password"))
	require.NoError(t, err)
	require.NotEqual(t, k1, k4, "salt must change the key")
}

func TestArgon2RejectsEmptyPassword(t *testing.T) {
	a, err := NewArgon2(make([]byte, SaltLength), fastParams)
	require.NoError(t, err)

	_, err = a.DeriveKey(nil)
	require.Error(t, err)
}

func TestNewArgon2Errors(t *testing.T) {
	_, err := NewArgon2([]byte("short"), fastParams)
	require.ErrorIs(t, err, ErrMalformedSalt)

	_, err = NewArgon2(make([]byte, SaltLength), Params{})
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	salt := bytes.Repeat([]byte{3}, SaltLength)
	a, err := NewArgon2(salt, fastParams)
	require.NoError(t, err)

	require.Equal(t, Fingerprint(salt), a.Fingerprint())
	require.NotEqual(t, Fingerprint(salt), Fingerprint(bytes.Repeat([]byte{4}, SaltLength)))

	salt[0] = 99
	require.NotEqual(t, Fingerprint(salt), a.Fingerprint(), "deriver must keep its own copy of the salt")
}
