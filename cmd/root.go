package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "shophub",
	Short:         "ShopHub storefront and admin dashboard",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds registered commands and runs the CLI.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
