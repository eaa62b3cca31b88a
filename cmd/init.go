package cmd

import (
	"fmt"

	"github.com/lexaledger/lexa/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default lexa configuration file",
	Long: `Init writes the default configuration to ~/.config/lexa/config.toml
(or to the directory named by LEXA_CONFIG).

No other command writes this file. Without it lexa runs on the built-in
defaults. The file controls:

  identifier      name of the per-application data directory
  data_dir        explicit data directory; $VAR and ~ are expanded
  persist_tokens  keep refresh tokens in the encrypted vault
  [argon2]        time, memory (KiB), threads and key_length for key derivation

Changing identifier, data_dir or [argon2] after tokens are stored points
lexa at a different vault, or makes the existing one unreadable.

Use --force to overwrite an existing configuration file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	configPath, err := config.WriteDefaultConfig(configDir, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	fmt.Fprintln(out, "Run 'lexa validate' to verify your configuration.")

	return nil
}
