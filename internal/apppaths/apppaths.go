// Package apppaths resolves the per-application local data directory
// that holds lexa's security-sensitive state.
package apppaths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lexaledger/lexa/internal/constants"
)

// ErrNoDataDir is returned when the host offers no local data directory.
var ErrNoDataDir = errors.New("apppaths: no local data directory available")

// Resolver locates the app-local-data directory.
type Resolver interface {
	AppLocalDataDir() (string, error)
}

// OSResolver resolves the directory from the environment and the
// platform conventions, creating it if needed.
type OSResolver struct {
	// Identifier is the per-application subdirectory name
	Identifier string
	// Override, when set, is used instead of the platform default
	Override string
	// Getenv looks up environment variables (defaults to os.Getenv)
	Getenv func(string) string
	// GOOS selects the platform conventions (defaults to runtime.GOOS)
	GOOS string
}

// Declare conformity to Resolver interface
var _ Resolver = (*OSResolver)(nil)

// AppLocalDataDir returns an absolute, existing, writable directory.
func (r *OSResolver) AppLocalDataDir() (string, error) {
	dir, err := r.locate()
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("app local data dir must be an absolute path, got %s", dir)
	}
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (r *OSResolver) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

func (r *OSResolver) goos() string {
	if r.GOOS != "" {
		return r.GOOS
	}
	return runtime.GOOS
}

func (r *OSResolver) locate() (string, error) {
	if r.Override != "" {
		return filepath.Clean(r.Override), nil
	}
	if dir := r.getenv(constants.EnvDataDir); dir != "" {
		return filepath.Clean(dir), nil
	}
	if r.Identifier == "" {
		return "", errors.New("apppaths: empty application identifier")
	}

	base, err := r.platformDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, r.Identifier), nil
}

// platformDataDir mirrors the local-data conventions of each desktop OS.
func (r *OSResolver) platformDataDir() (string, error) {
	switch r.goos() {
	case "windows":
		if dir := r.getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return "", fmt.Errorf("%w: %%LOCALAPPDATA%% is not set", ErrNoDataDir)
	case "darwin", "ios":
		home := r.getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("%w: $HOME is not set", ErrNoDataDir)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "plan9":
		home := r.getenv("home")
		if home == "" {
			return "", fmt.Errorf("%w: $home is not set", ErrNoDataDir)
		}
		return filepath.Join(home, "lib"), nil
	default:
		if dir := r.getenv("XDG_DATA_HOME"); dir != "" && filepath.IsAbs(dir) {
			return dir, nil
		}
		home := r.getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("%w: neither $XDG_DATA_HOME nor $HOME is set", ErrNoDataDir)
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, constants.SecretDirMode); err != nil {
			return fmt.Errorf("failed to create app local data dir: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to stat app local data dir: %w", err)
	case !info.IsDir():
		return fmt.Errorf("app local data dir %s is not a directory", dir)
	}

	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("app local data dir %s is not writable: %w", dir, err)
	}
	return nil
}

// Static is a Resolver that always returns Dir, or Err when set.
type Static struct {
	Dir string
	Err error
}

// AppLocalDataDir implements Resolver.
func (s Static) AppLocalDataDir() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Dir, nil
}
