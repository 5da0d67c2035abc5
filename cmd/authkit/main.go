// Command authkit runs the token trust server and drives OAuth2 flows
// against remote authorization servers.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "authkit",
		Short:         "OAuth2 flow engine and bearer token trust server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringP("config", "c", "authkit.yaml", "Path to the auth config YAML")

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newAuthorizeCmd(),
		newCallbackCmd(),
		newTokenCmd(),
		newRefreshCmd(),
		newPKCECmd(),
		newHashPasswordCmd(),
	)

	return root
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				return fmt.Errorf("no input")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(scanner.Text()), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
