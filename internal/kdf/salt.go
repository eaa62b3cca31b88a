package kdf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/logger"
)

// SaltLength is the size in bytes of a salt file.
const SaltLength = 32

// ErrMalformedSalt is returned when an existing salt file cannot be used.
var ErrMalformedSalt = errors.New("kdf: malformed salt file")

// LoadOrCreateSalt returns the salt stored at path, creating the file
// with fresh random bytes if it does not exist. An existing file is
// never rewritten.
func LoadOrCreateSalt(path string) ([]byte, error) {
	salt, err := readSalt(path)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	salt, err = createSalt(path)
	if errors.Is(err, fs.ErrExist) {
		// Lost a creation race; the other writer's salt wins.
		return readSalt(path)
	}
	return salt, err
}

func readSalt(path string) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrMalformedSalt, path)
	}

	salt, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrMalformedSalt, path, len(salt), SaltLength)
	}
	return salt, nil
}

// createSalt writes a fresh salt to a temporary file and links it into
// place, so path never exists with partial contents. The link fails with
// fs.ErrExist if another process created path first.
func createSalt(path string) ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create salt file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(constants.SecretFileMode); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to set salt file mode: %w", err)
	}
	if _, err := tmp.Write(salt); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write salt file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to sync salt file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close salt file: %w", err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		return nil, err
	}

	logger.Info("created salt file", "path", path)
	return salt, nil
}
