// Package commands implements the smsledger command line.
package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

var timeNow = time.Now

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "smsledger",
		Short:   "Personal finance tracking from bank SMS notifications",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	defaultDir := os.Getenv("SMSLEDGER_DATA_DIR")
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", defaultDir, "data directory (env SMSLEDGER_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/config.yaml)")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAccountsCommand(opts),
		newFetchCommand(opts),
		newReviewCommand(opts),
		newApplyCommand(opts),
		newSkipCommand(opts),
		newManualCommand(opts),
		newHistoryCommand(opts),
		newForecastCommand(opts),
	)

	return rootCmd
}
