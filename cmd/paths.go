package cmd

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/lexaledger/lexa/internal/constants"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Run startup and show the resolved data paths",
	Long: `Paths runs the startup sequence and prints where lexa keeps its state.

The salt fingerprint is a BLAKE3 hash of the salt file. It identifies
which salt a vault was sealed with without revealing the salt itself.`,
	Args: cobra.NoArgs,
	RunE: runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	seq, _, err := newSequencer(cmd)
	if err != nil {
		return err
	}
	app, err := seq.Run()
	if err != nil {
		return err
	}

	fp := app.KDF.Fingerprint()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Build mode:       %s\n", app.Mode)
	fmt.Fprintf(out, "Data dir:         %s\n", app.DataDir)
	fmt.Fprintf(out, "Salt file:        %s\n", app.SaltPath)
	fmt.Fprintf(out, "Salt fingerprint: %s\n", hex.EncodeToString(fp[:]))
	fmt.Fprintf(out, "Vault file:       %s\n", filepath.Join(app.DataDir, constants.SnapshotFileName))
	fmt.Fprintf(out, "Preferences:      %s\n", filepath.Join(app.DataDir, constants.PrefsFileName))
	fmt.Fprintf(out, "Secret store:     %s\n", app.Store.Name())
	return nil
}
