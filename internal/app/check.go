package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/integrity"
	"github.com/ticktools/tick/internal/output"
)

var (
	checkFull bool

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify database health",
		Long: `Runs integrity diagnostics against the database.

The default quick check stops at the first problem and is cheap enough
to run constantly. --full runs the deep structural scan, foreign key
audit, WAL inspection and schema table check, and prints an aggregated
health report with suggestions.`,
		RunE: runCheck,
	}
)

func init() {
	checkCmd.Flags().BoolVar(&checkFull, "full", false, "run the full diagnostic suite")
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	checker := integrity.NewChecker(env.log)

	if !checkFull {
		if err := checker.QuickCheck(env.dbPath); err != nil {
			fmt.Println("✗ Quick check failed:", err)
			fmt.Println("  Action: Run 'tick check --full' for details, or 'tick restore --latest'")
			return fmt.Errorf("database unhealthy")
		}
		fmt.Println("✓ Quick check passed:", env.dbPath)
		return nil
	}

	// Point the report's suggestions at the newest backup, if any.
	if records, err := env.backupEngine().ListBackups(); err == nil && len(records) > 0 {
		checker.BackupHint = records[0].Path
	}

	spinner := output.NewSpinner("Running full database check")
	spinner.Start()
	report := checker.FullDatabaseCheck(env.dbPath)
	spinner.Stop()

	fmt.Print(output.RenderHealthReport(report))

	if report.Overall == integrity.StatusError {
		return fmt.Errorf("database unhealthy")
	}
	return nil
}
