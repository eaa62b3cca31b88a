package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexaledger/lexa/internal/config"
	"github.com/lexaledger/lexa/internal/constants"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show effective settings",
	Long: `Validate parses the lexa configuration file and displays the effective settings.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which data directory override and Argon2 parameters apply
- Catching settings that would make startup fail`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, constants.ConfigFileName)

	cfg := config.GetDefaultConfig()
	source := "embedded defaults"
	if data, err := os.ReadFile(configPath); err == nil {
		cfg = data
		source = configPath
	}

	parsed, err := config.LoadConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", source, err)
	}

	dir, err := parsed.ExpandDataDir(nil)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = "(platform default)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration valid!")
	fmt.Fprintf(out, "Source: %s\n", source)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Identifier:     %s\n", parsed.Identifier)
	fmt.Fprintf(out, "Data dir:       %s\n", dir)
	fmt.Fprintf(out, "Persist tokens: %t\n", parsed.PersistTokens)
	fmt.Fprintf(out, "JSON logs:      %t\n", parsed.Log.JSON)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Argon2id:")
	fmt.Fprintf(out, "  time:       %d\n", parsed.Argon2.Time)
	fmt.Fprintf(out, "  memory:     %d KiB\n", parsed.Argon2.Memory)
	fmt.Fprintf(out, "  threads:    %d\n", parsed.Argon2.Threads)
	fmt.Fprintf(out, "  key_length: %d\n", parsed.Argon2.KeyLength)

	return nil
}
