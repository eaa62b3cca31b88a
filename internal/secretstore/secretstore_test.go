package secretstore

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexaledger/lexa/internal/kdf"
	"github.com/stretchr/testify/require"
)

// fakeDeriver hashes the password so tests skip Argon2's cost.
type fakeDeriver struct {
	fingerprint [32]byte
}

func (f fakeDeriver) DeriveKey(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("empty password")
	}
	sum := sha256.Sum256(password)
	return sum[:], nil
}

func (f fakeDeriver) Fingerprint() [32]byte {
	return f.fingerprint
}

func newBackend(t *testing.T, fp byte) Backend {
	t.Helper()
	var fingerprint [32]byte
	fingerprint[0] = fp
	b, err := New("linux", fakeDeriver{fingerprint: fingerprint})
	require.NoError(t, err)
	return b
}

func TestNewPlatforms(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows", "freebsd"} {
		b, err := New(goos, fakeDeriver{})
		require.NoError(t, err, goos)
		require.Equal(t, "argon2-snapshot", b.Name())
	}
	for _, goos := range []string{"android", "ios", "js", "wasip1"} {
		_, err := New(goos, fakeDeriver{})
		require.ErrorIs(t, err, ErrUnsupportedPlatform, goos)
	}

	_, err := New("linux", nil)
	require.Error(t, err)
}

func TestLoadMissingIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.hold")
	s, err := newBackend(t, 1).Load(path, []byte("pw"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadClient("app")
	require.ErrorIs(t, err, ErrClientNotFound)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "Load must not create the file")
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.hold")
	backend := newBackend(t, 1)

	s, err := backend.Load(path, []byte("pw"))
	require.NoError(t, err)

	c, err := s.CreateClient("app")
	require.NoError(t, err)
	require.NoError(t, c.Insert("token", []byte("secret-value")))
	require.NoError(t, c.Insert("other", []byte{0, 1, 2}))
	require.NoError(t, s.Save())
	s.Close()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, bytes.Contains(raw, []byte("secret-value")), "plaintext leaked into snapshot")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	s2, err := backend.Load(path, []byte("pw"))
	require.NoError(t, err)
	defer s2.Close()

	c2, err := s2.LoadClient("app")
	require.NoError(t, err)
	require.Equal(t, []string{"other", "token"}, c2.Keys())

	v, err := c2.Get("token")
	require.NoError(t, err)
	require.Equal(t, []byte("secret-value"), v)
}

func TestWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.hold")
	backend := newBackend(t, 1)

	s, err := backend.Load(path, []byte("right"))
	require.NoError(t, err)
	require.NoError(t, s.Save())
	s.Close()

	_, err = backend.Load(path, []byte("wrong"))
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestSaltMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.hold")

	s, err := newBackend(t, 1).Load(path, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, s.Save())
	s.Close()

	_, err = newBackend(t, 2).Load(path, []byte("pw"))
	require.ErrorIs(t, err, ErrSaltMismatch)
}

func TestCorruptSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"truncated", func(b []byte) []byte { return b[:10] }, ErrCorruptSnapshot},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrCorruptSnapshot},
		{"bad version", func(b []byte) []byte { b[4] = 9; return b }, ErrCorruptSnapshot},
		{"flipped ciphertext", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }, ErrDecrypt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vault.hold")
			backend := newBackend(t, 1)

			s, err := backend.Load(path, []byte("pw"))
			require.NoError(t, err)
			c, err := s.CreateClient("app")
			require.NoError(t, err)
			require.NoError(t, c.Insert("k", []byte("v")))
			require.NoError(t, s.Save())
			s.Close()

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, tt.mutate(raw), 0600))

			_, err = backend.Load(path, []byte("pw"))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClientOperations(t *testing.T) {
	s, err := newBackend(t, 1).Load(filepath.Join(t.TempDir(), "v"), []byte("pw"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateClient("")
	require.Error(t, err)

	c, err := s.LoadOrCreateClient("app")
	require.NoError(t, err)
	require.Equal(t, "app", c.Name())

	_, err = s.CreateClient("app")
	require.ErrorIs(t, err, ErrClientExists)

	again, err := s.LoadOrCreateClient("app")
	require.NoError(t, err)

	require.Error(t, c.Insert("", []byte("x")))

	value := []byte("abc")
	require.NoError(t, c.Insert("k", value))
	value[0] = 'z'

	got, err := again.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got, "Insert must copy its input")

	got[0] = 'q'
	got2, err := c.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got2, "Get must return a copy")

	c.Remove("k")
	c.Remove("k")
	_, err = c.Get("k")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestClosedSnapshot(t *testing.T) {
	s, err := newBackend(t, 1).Load(filepath.Join(t.TempDir(), "v"), []byte("pw"))
	require.NoError(t, err)
	s.Close()

	_, err = s.LoadClient("app")
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.CreateClient("app")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Save(), ErrClosed)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.hold")

	s, err := newBackend(t, 1).Load(path, []byte("pw"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "vault.hold", entries[0].Name())
}

func TestArgon2Backend(t *testing.T) {
	salt := bytes.Repeat([]byte{9}, kdf.SaltLength)
	deriver, err := kdf.NewArgon2(salt, kdf.Params{Time: 1, Memory: 64, Threads: 1, KeyLength: kdf.KeyLength})
	require.NoError(t, err)

	backend, err := New("linux", deriver)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "vault.hold")
	s, err := backend.Load(path, []byte("pw"))
	require.NoError(t, err)
	c, err := s.CreateClient("app")
	require.NoError(t, err)
	require.NoError(t, c.Insert("k", []byte("v")))
	require.NoError(t, s.Save())
	s.Close()

	s2, err := backend.Load(path, []byte("pw"))
	require.NoError(t, err)
	defer s2.Close()
	c2, err := s2.LoadClient("app")
	require.NoError(t, err)
	v, err := c2.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}
