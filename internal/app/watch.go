package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the resilience loop in the foreground",
	Long: `Runs the full startup sequence and then keeps watching the database
file for external deletion until interrupted.

Startup order:
  1. Migrate legacy ~/.tick data if present (once)
  2. Create today's backup if missing, then prune old backups
  3. Start the deletion watcher

A deletion of the database or its WAL companions is reported once per
session, with a hint to restore from the latest backup.`,
	RunE: runWatch,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	// Migration runs before the daily backup so the backup is taken
	// from the database at its final location.
	migRes, err := migrateFromLegacy(env)
	if err != nil {
		return fmt.Errorf("startup migration failed: %w", err)
	}
	if migRes.Migrated {
		fmt.Println("✓", migRes.Message)
	}

	daily, err := env.backupEngine().PerformDailyBackupSync(env.cfg.Backup.KeepDays)
	if err != nil {
		// A failed backup should not keep the watcher from running.
		env.log.Warnw("daily backup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: daily backup failed: %v\n", err)
	} else if daily.Backup.Created {
		fmt.Println("✓", daily.Backup.Message)
		if daily.Cleanup.Deleted > 0 {
			fmt.Printf("  Pruned %d old backup(s)\n", daily.Cleanup.Deleted)
		}
	}

	w, err := watcher.StartWatching(env.dbPath, watcher.Options{
		Debounce: env.cfg.Watcher.DebounceWindow,
		Logger:   env.log,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	fmt.Println("Watching", env.dbPath, "(Ctrl-C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case path, ok := <-w.Deletions():
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "\n✗ Database deleted: %s\n", path)
			fmt.Fprintln(os.Stderr, "  Run 'tick restore --latest' to recover from the newest backup.")
		case <-sigCh:
			fmt.Println("\nStopping.")
			return nil
		}
	}
}
