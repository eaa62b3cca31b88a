// Package cmd implements the CLI commands for lexa.
package cmd

import (
	"context"

	"github.com/lexaledger/lexa/internal/apppaths"
	"github.com/lexaledger/lexa/internal/buildmode"
	"github.com/lexaledger/lexa/internal/config"
	"github.com/lexaledger/lexa/internal/startup"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logJSON bool
	dataDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lexa",
	Short: "Lexa Ledger desktop bootstrap with an encrypted credential vault",
	Long: `lexa prepares the Lexa Ledger desktop client for use.

When called without arguments it runs the startup sequence and then
waits in the host loop until interrupted:

  1. attach diagnostic logging (debug builds only)
  2. resolve the app-local-data directory
  3. create or load <data dir>/salt.txt
  4. initialize the Argon2id secret store

Any failure aborts with a non-zero exit status before the host loop
starts.`,
	// Run the host loop by default when no subcommand is given
	RunE: runHost,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit diagnostic logs as JSON (debug builds only)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the app-local-data directory (or set LEXA_DATA_DIR)")
}

// loadConfig loads config.toml for commands that run startup. A config
// file that fails to parse or validate aborts the command; init and
// validate read the file themselves so they still work on a broken one.
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	return config.Get(), nil
}

// resolverFor builds the app-paths resolver from flags and config.
// A data_dir that fails to expand becomes a resolution failure.
func resolverFor(cfg *config.Config) apppaths.Resolver {
	override := dataDir
	if override == "" {
		expanded, err := cfg.ExpandDataDir(nil)
		if err != nil {
			return apppaths.Static{Err: err}
		}
		override = expanded
	}
	return &apppaths.OSResolver{
		Identifier: cfg.Identifier,
		Override:   override,
	}
}

// newSequencer returns the startup sequence for the current build and config.
func newSequencer(cmd *cobra.Command) (*startup.Sequencer, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return startup.New(startup.Options{
		Mode:      buildmode.Current(),
		Resolver:  resolverFor(cfg),
		KDF:       cfg.Argon2,
		LogOutput: cmd.ErrOrStderr(),
		LogJSON:   logJSON || cfg.Log.JSON,
	}), cfg, nil
}
