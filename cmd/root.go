package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codelens-auth",
	Short: "Authentication backend for the CodeLens chat application",
	Long:  `Authentication and credential-lifecycle backend: registration, login, Google federation, email confirmation, and password reset over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
