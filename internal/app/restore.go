package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/output"
)

var (
	restoreLatest bool

	restoreCmd = &cobra.Command{
		Use:   "restore [backup-path]",
		Short: "Replace the database with a verified backup",
		Long: `Restores the database from a backup file.

The backup is verified before anything is touched. A safety copy of the
current database is taken first, and if the restored file fails
verification the previous state is reinstated automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRestore,
	}
)

func init() {
	restoreCmd.Flags().BoolVar(&restoreLatest, "latest", false, "restore from the most recent backup")
	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	engine := env.backupEngine()

	var backupPath string
	switch {
	case restoreLatest:
		records, err := engine.ListBackups()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no backups available to restore from")
		}
		backupPath = records[0].Path
	case len(args) == 1:
		backupPath = args[0]
	default:
		return fmt.Errorf("provide a backup path or use --latest")
	}

	spinner := output.NewSpinner(fmt.Sprintf("Restoring from %s", backupPath))
	spinner.Start()
	outcome, err := engine.RestoreFromBackup(backupPath)
	if err != nil {
		spinner.StopWithMessage("✗ Restore failed")
		fmt.Println(" ", outcome.Message)
		if outcome.PreRestoreBackupPath != "" {
			fmt.Println("  Pre-restore state preserved at:", outcome.PreRestoreBackupPath)
		}
		return fmt.Errorf("restore failed")
	}
	spinner.StopWithMessage("✓ " + outcome.Message)
	if outcome.PreRestoreBackupPath != "" {
		fmt.Println("  Previous database saved at:", outcome.PreRestoreBackupPath)
	}
	return nil
}
