// Package config handles configuration loading and parsing for lexa.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/kdf"
	"github.com/lexaledger/lexa/internal/logger"
	"mvdan.cc/sh/v3/shell"
)

//go:embed config.toml
var defaultConfig []byte

// Config holds the effective lexa configuration.
type Config struct {
	// Identifier names the per-application data directory
	Identifier string `toml:"identifier"`
	// DataDir overrides the platform app-local-data directory
	DataDir string `toml:"data_dir"`
	// PersistTokens selects the encrypted token vault over the ephemeral one
	PersistTokens bool `toml:"persist_tokens"`

	Log    LogConfig  `toml:"log"`
	Argon2 kdf.Params `toml:"argon2"`
}

// LogConfig controls the diagnostic log sink.
type LogConfig struct {
	JSON bool `toml:"json"`
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
)

// GetConfigDir returns the config directory path.
// Uses LEXA_CONFIG env var if set, otherwise ~/.config/lexa
func GetConfigDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// WriteDefaultConfig writes the embedded default config.toml into
// configDir and returns its path. An existing file is only replaced
// when force is set.
func WriteDefaultConfig(configDir string, force bool) (string, error) {
	configPath := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return configPath, fmt.Errorf("config file already exists at %s (use --force to overwrite): %w", configPath, fs.ErrExist)
	}

	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return configPath, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, constants.FileMode); err != nil {
		return configPath, fmt.Errorf("failed to write config file: %w", err)
	}
	return configPath, nil
}

// LoadConfig parses TOML data on top of the embedded defaults.
// Keys absent from data keep their default values.
func LoadConfig(data []byte) (*Config, error) {
	cfg, err := decodeDefaults()
	if err != nil {
		return nil, err
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeDefaults() (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(defaultConfig), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Identifier == "" {
		return errors.New("identifier must not be empty")
	}
	if strings.ContainsAny(c.Identifier, `/\`) || c.Identifier == "." || c.Identifier == ".." {
		return fmt.Errorf("identifier %q must be a single path element", c.Identifier)
	}
	if err := c.Argon2.Validate(); err != nil {
		return fmt.Errorf("invalid [argon2] section: %w", err)
	}
	return nil
}

// ExpandDataDir returns DataDir with shell variables and a leading ~
// expanded. An empty DataDir expands to "".
// Command substitution is rejected.
func (c *Config) ExpandDataDir(env func(string) string) (string, error) {
	if c.DataDir == "" {
		return "", nil
	}
	if env == nil {
		env = os.Getenv
	}

	dir := c.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home := env("HOME")
		if home == "" {
			return "", fmt.Errorf("cannot expand %q: HOME is not set", c.DataDir)
		}
		dir = home + dir[1:]
	}

	expanded, err := shell.Expand(dir, env)
	if err != nil {
		return "", fmt.Errorf("failed to expand data_dir %q: %w", c.DataDir, err)
	}
	return filepath.Clean(expanded), nil
}

// Init loads config.toml from the config directory. A missing file
// means the embedded defaults apply; nothing is written to disk. Any
// other failure is returned and leaves the configuration unloaded.
func Init() error {
	if configInitialized {
		return nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, constants.ConfigFileName)
	configData, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no config file, using embedded defaults", "path", configPath)
		configData = nil
	case err != nil:
		return fmt.Errorf("failed to read config.toml: %w", err)
	}

	cfg, err := LoadConfig(configData)
	if err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	globalConfig = cfg
	configInitialized = true
	logger.Debug("config loaded",
		"path", configPath,
		"identifier", cfg.Identifier,
		"persist_tokens", cfg.PersistTokens)
	return nil
}

// Get returns the configuration loaded by Init, or nil if Init has not
// succeeded.
func Get() *Config {
	return globalConfig
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
