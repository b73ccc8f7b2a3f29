package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move data from the legacy ~/.tick directory",
	Long: `Relocates the database and attachments from the legacy ~/.tick
directory to the platform data directory.

The migration runs at most once, takes a backup of the legacy database
first, verifies the copied database before committing, and never deletes
the legacy directory.`,
	RunE: runMigrate,
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	res, err := migrateFromLegacy(env)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if !res.Migrated {
		fmt.Println(res.Message)
		return nil
	}

	fmt.Println("✓", res.Message)
	if res.BackupPath != "" {
		fmt.Println("  Pre-migration backup:", res.BackupPath)
	}
	if res.AttachmentsCopied > 0 || res.AttachmentsFailed > 0 {
		fmt.Printf("  Attachments: %d copied, %d failed\n",
			res.AttachmentsCopied, res.AttachmentsFailed)
	}
	fmt.Println("  Legacy data left in place at:", env.resolver.LegacyDir())
	return nil
}

// migrateFromLegacy wires the migrator from the resolved layout.
func migrateFromLegacy(env *env) (*migrate.Result, error) {
	m := migrate.NewMigrator(
		env.resolver.LegacyDir(),
		env.resolver.DataDir(),
		env.resolver.BackupDir(),
		env.log)
	return m.MigrateFromLegacy()
}
