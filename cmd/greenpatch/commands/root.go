// Package commands implements the greenpatch CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "greenpatch",
	Short: "greenpatch - selective cooperative primitive substitution",
	Long: `greenpatch swaps blocking primitives (os, select, socket, thread, time,
subprocess, ssl and database drivers) for cooperative counterparts inside a
process-scoped environment.

Use "greenpatch [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/greenpatch/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(primitivesCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
