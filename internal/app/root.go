package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPathFlag string

	// RootCmd is the root command for tick
	RootCmd = &cobra.Command{
		Use:   "tick",
		Short: "Local-first task tracking with a resilient embedded database",
		Long: `tick keeps tickets, epics and comments in a single local SQLite file
and looks after that file so you don't have to: daily verified backups,
integrity checking, safe restore with automatic rollback, and detection
of accidental database deletion.

Quick Start:
  1. tick add "my first ticket"
  2. tick watch        # runs migration, daily backup and the deletion watch
  3. tick check --full # on-demand deep diagnostics

Examples:
  # List tickets
  tick list

  # Create a backup right now
  tick backup create

  # Show available backups
  tick backup list

  # Restore from the newest backup
  tick restore --latest

  # Verify database health
  tick check`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			fmt.Println("tick: local-first task tracking")
			fmt.Println()
			if _, err := os.Stat(env.dbPath); os.IsNotExist(err) {
				fmt.Println("No database yet. Run 'tick add \"...\"' to create one.")
			} else {
				fmt.Println("Tip: Run 'tick check' to verify database health.")
				fmt.Println("     Run 'tick backup list' to see available backups.")
			}
			fmt.Println("     Run 'tick --help' for all commands.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "database path (default: platform data directory)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
