package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ticktools/tick/internal/store"
)

// redirectHome points every resolved directory into a temp dir so
// command tests never touch the real user layout.
func redirectHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	return home
}

func seedDatabase(t *testing.T, path string) {
	t.Helper()
	s, err := store.New(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	now := time.Now()
	if _, err := s.InsertTicket(&store.Ticket{Title: "seed", Status: "open", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("failed to insert ticket: %v", err)
	}
}

func TestNewEnvResolvesUnderRedirectedHome(t *testing.T) {
	home := redirectHome(t)

	env, err := newEnv()
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	if !strings.HasPrefix(env.dbPath, home) {
		t.Errorf("dbPath = %q, want it under %q", env.dbPath, home)
	}
	if _, err := os.Stat(filepath.Dir(env.dbPath)); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestDBFlagOverridesDatabasePath(t *testing.T) {
	redirectHome(t)

	custom := filepath.Join(t.TempDir(), "elsewhere.db")
	old := dbPathFlag
	dbPathFlag = custom
	defer func() { dbPathFlag = old }()

	env, err := newEnv()
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	if env.dbPath != custom {
		t.Errorf("dbPath = %q, want %q", env.dbPath, custom)
	}
}

func TestBackupCreateCommand(t *testing.T) {
	redirectHome(t)

	env, err := newEnv()
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	seedDatabase(t, env.dbPath)

	if err := runBackupCreate(backupCreateCmd, nil); err != nil {
		t.Fatalf("runBackupCreate failed: %v", err)
	}

	records, err := env.backupEngine().ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d backups, want 1", len(records))
	}
}

func TestCheckQuickCommand(t *testing.T) {
	redirectHome(t)

	env, err := newEnv()
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	seedDatabase(t, env.dbPath)

	old := checkFull
	checkFull = false
	defer func() { checkFull = old }()

	if err := runCheck(checkCmd, nil); err != nil {
		t.Errorf("runCheck on healthy database failed: %v", err)
	}
}

func TestRestoreLatestWithoutBackups(t *testing.T) {
	redirectHome(t)

	old := restoreLatest
	restoreLatest = true
	defer func() { restoreLatest = old }()

	if err := runRestore(restoreCmd, nil); err == nil {
		t.Error("expected an error when no backups exist")
	}
}

func TestMigrateCommandWithoutLegacyData(t *testing.T) {
	redirectHome(t)

	if err := runMigrate(migrateCmd, nil); err != nil {
		t.Errorf("runMigrate with no legacy data failed: %v", err)
	}
}
