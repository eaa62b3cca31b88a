// Package testutil provides shared test utilities for lexa tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lexaledger/lexa/internal/config"
	"github.com/lexaledger/lexa/internal/constants"
)

// SetupTestConfig points LEXA_CONFIG and LEXA_DATA_DIR at fresh
// temporary directories and loads configContent as the config file.
// It returns the data directory and a cleanup function that should be
// deferred.
func SetupTestConfig(t *testing.T, configContent string) (string, func()) {
	t.Helper()

	configDir := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv(constants.EnvConfigDir, configDir)
	t.Setenv(constants.EnvDataDir, dataDir)

	if configContent != "" {
		configPath := filepath.Join(configDir, constants.ConfigFileName)
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	if err := config.Init(); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}

	return dataDir, func() {
		config.Reset()
	}
}

// FastTestConfig keeps Argon2 cheap so startup runs quickly in tests.
const FastTestConfig = `
identifier = "com.lexaledger.test"
persist_tokens = true

[argon2]
time = 1
memory = 64
threads = 1
key_length = 32
`

// EphemeralTestConfig disables token persistence.
const EphemeralTestConfig = `
identifier = "com.lexaledger.test"
persist_tokens = false

[argon2]
time = 1
memory = 64
threads = 1
key_length = 32
`
