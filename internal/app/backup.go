package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/output"
)

var (
	backupForce    bool
	backupKeepDays int

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Create, list and prune database backups",
	}

	backupCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a verified backup of the database",
		Long: `Creates a point-in-time copy of the database in the backup directory.

The copy is taken with an atomic online snapshot, verified with a quick
integrity check, and only then installed under its dated name. One
backup per calendar day is kept; use --force to replace today's.`,
		RunE: runBackupCreate,
	}

	backupListCmd = &cobra.Command{
		Use:   "list",
		Short: "List available backups, newest first",
		RunE:  runBackupList,
	}

	backupCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups beyond the retention window",
		RunE:  runBackupCleanup,
	}
)

func init() {
	backupCreateCmd.Flags().BoolVar(&backupForce, "force", false, "replace today's backup if it exists")
	backupCleanupCmd.Flags().IntVar(&backupKeepDays, "keep-days", 0, "number of dated backups to retain (default: config keep_days)")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupCleanupCmd)
	RootCmd.AddCommand(backupCmd)
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	res, err := env.backupEngine().CreateBackupIfNeeded(backupForce)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	if !res.Created {
		fmt.Println(res.Message)
		fmt.Println("Use --force to replace today's backup.")
		return nil
	}
	fmt.Println("✓", res.Message)
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	records, err := env.backupEngine().ListBackups()
	if err != nil {
		return err
	}
	fmt.Print(output.RenderBackupTable(records))
	return nil
}

func runBackupCleanup(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	keep := backupKeepDays
	if keep <= 0 {
		keep = env.cfg.Backup.KeepDays
	}

	res, err := env.backupEngine().CleanupOldBackups(keep)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Cleanup complete: %d deleted, %d kept", res.Deleted, res.Kept)
	if res.Failed > 0 {
		fmt.Printf(", %d failed (see log)", res.Failed)
	}
	fmt.Println()
	return nil
}
