// Package constants defines shared constants used across the lexa codebase.
package constants

import "os"

// File permissions
const (
	DirMode        os.FileMode = 0755
	FileMode       os.FileMode = 0644
	SecretDirMode  os.FileMode = 0700
	SecretFileMode os.FileMode = 0600
)

// Environment variables
const (
	EnvConfigDir = "LEXA_CONFIG"
	EnvDataDir   = "LEXA_DATA_DIR"
)

// Application paths
const (
	AppName          = "lexa"
	AppIdentifier    = "com.lexaledger.desktop"
	XDGConfigSubdir  = ".config"
	ConfigFileName   = "config.toml"
	SaltFileName     = "salt.txt"
	SnapshotFileName = "lexa.vault.hold"
	PrefsFileName    = "prefs.toml"
)

// Secret store identifiers
const (
	ClientName = "lexa-ledger"
	RefreshKey = "oidc.refresh_token"
)
