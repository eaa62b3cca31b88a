package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lexaledger/lexa/internal/tokenvault"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var tokenFile string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored OIDC refresh token",
	Long: `Manage the OIDC refresh token kept in the encrypted vault.

Every token subcommand runs the full startup sequence first, so a
missing data directory or a corrupt salt file fails before the vault
is touched. With persist_tokens = false nothing is ever stored.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a refresh token",
	Long: `Store a refresh token, replacing any previous one.

The token is read from --token-file, or from stdin. When stdin is a
terminal the token is read without echo.`,
	Args: cobra.NoArgs,
	RunE: runTokenSet,
}

var tokenGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored refresh token",
	Args:  cobra.NoArgs,
	RunE:  runTokenGet,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored refresh token",
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a refresh token is stored",
	Args:  cobra.NoArgs,
	RunE:  runTokenStatus,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenGetCmd, tokenClearCmd, tokenStatusCmd)
	tokenSetCmd.Flags().StringVar(&tokenFile, "token-file", "", "Read the token from this file (\"-\" for stdin)")
}

// openTokenVault runs startup and returns the configured token vault.
func openTokenVault(cmd *cobra.Command) (tokenvault.Vault, error) {
	seq, cfg, err := newSequencer(cmd)
	if err != nil {
		return nil, err
	}
	app, err := seq.Run()
	if err != nil {
		return nil, err
	}
	if !cfg.PersistTokens {
		return tokenvault.Ephemeral{}, nil
	}
	return tokenvault.NewSecure(app.Store, app.DataDir), nil
}

// readToken reads the token from --token-file or stdin, stripping
// trailing newlines.
func readToken(cmd *cobra.Command) (string, error) {
	var data []byte
	var err error

	switch {
	case tokenFile != "" && tokenFile != "-":
		data, err = os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
	default:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(cmd.ErrOrStderr(), "Refresh token: ")
			data, err = term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
		} else {
			data, err = io.ReadAll(in)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
	}

	token := strings.TrimRight(string(data), "\r\n")
	if token == "" {
		return "", errors.New("empty refresh token")
	}
	return token, nil
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	token, err := readToken(cmd)
	if err != nil {
		return err
	}
	vault, err := openTokenVault(cmd)
	if err != nil {
		return err
	}
	if err := vault.SetRefreshToken(token); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Refresh token stored.")
	return nil
}

func runTokenGet(cmd *cobra.Command, args []string) error {
	vault, err := openTokenVault(cmd)
	if err != nil {
		return err
	}
	token, ok, err := vault.GetRefreshToken()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no refresh token stored")
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runTokenClear(cmd *cobra.Command, args []string) error {
	vault, err := openTokenVault(cmd)
	if err != nil {
		return err
	}
	if err := vault.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Refresh token cleared.")
	return nil
}

func runTokenStatus(cmd *cobra.Command, args []string) error {
	vault, err := openTokenVault(cmd)
	if err != nil {
		return err
	}
	has, err := vault.HasRefreshToken()
	if err != nil {
		return err
	}
	if has {
		fmt.Fprintln(cmd.OutOrStdout(), "Refresh token: stored")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Refresh token: none")
	}
	return nil
}
