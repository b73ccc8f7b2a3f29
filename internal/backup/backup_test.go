package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ticktools/tick/internal/store"
)

// newTestEnv creates a live database with seeded rows and an Engine
// pointed at a fresh backup directory.
func newTestEnv(t *testing.T) (*Engine, string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tick.db")
	backupDir := filepath.Join(dir, "backups")

	db, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.InsertTicket(&store.Ticket{
			Title:  fmt.Sprintf("ticket %d", i),
			Status: "open",
		}); err != nil {
			t.Fatalf("Failed to insert ticket: %v", err)
		}
	}

	return NewEngine(dbPath, backupDir, nil), dbPath, backupDir
}

func countTickets(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", dbPath, err)
	}
	defer db.Close()
	n, err := db.CountTickets()
	if err != nil {
		t.Fatalf("Failed to count tickets: %v", err)
	}
	return n
}

func TestCreateBackupAndVerify(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	res, err := engine.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if !res.Created {
		t.Fatal("Expected Created = true")
	}

	// The copy must be a usable database with identical row counts.
	if got, want := countTickets(t, res.Path), countTickets(t, dbPath); got != want {
		t.Errorf("Backup has %d tickets, source has %d", got, want)
	}
}

func TestCreateBackupMissingSource(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(filepath.Join(dir, "absent.db"), filepath.Join(dir, "backups"), nil)

	if _, err := engine.CreateBackup(""); err == nil {
		t.Fatal("Expected error for missing source database")
	}
}

func TestCreateBackupRejectsUnverifiableCopy(t *testing.T) {
	engine, _, backupDir := newTestEnv(t)
	engine.verify = func(string) error { return errors.New("forced verification failure") }

	if _, err := engine.CreateBackup(""); err == nil {
		t.Fatal("Expected error when verification fails")
	}

	// The unverified copy must not be left on disk.
	entries, _ := os.ReadDir(backupDir)
	for _, e := range entries {
		if e.Name() != markerFilename {
			t.Errorf("Unexpected file left in backup dir: %s", e.Name())
		}
	}
}

func TestListBackupsOrderedNewestFirst(t *testing.T) {
	engine, _, backupDir := newTestEnv(t)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("Failed to create backup dir: %v", err)
	}

	for _, date := range []string{"2026-01-10", "2026-01-12", "2026-01-11"} {
		name := fmt.Sprintf("%s-%s.db", FilenamePrefix, date)
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	// Files outside the daily pattern are ignored.
	for _, name := range []string{"notes.txt", FilenamePrefix + "-prerestore-1736526000000.db"} {
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	records, err := engine.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	want := []string{"2026-01-12", "2026-01-11", "2026-01-10"}
	if len(records) != len(want) {
		t.Fatalf("Got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i, date := range want {
		if records[i].Date != date {
			t.Errorf("records[%d].Date = %s, want %s", i, records[i].Date, date)
		}
	}
}

func TestListBackupsMissingDirectory(t *testing.T) {
	engine, _, _ := newTestEnv(t)
	records, err := engine.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups on missing dir failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestCreateBackupIfNeededAtMostOncePerDay(t *testing.T) {
	engine, _, _ := newTestEnv(t)

	first, err := engine.CreateBackupIfNeeded(false)
	if err != nil {
		t.Fatalf("First CreateBackupIfNeeded failed: %v", err)
	}
	if !first.Created {
		t.Fatal("First call should create a backup")
	}
	if !engine.WasBackupCreatedToday() {
		t.Error("Marker should report a backup today")
	}

	second, err := engine.CreateBackupIfNeeded(false)
	if err != nil {
		t.Fatalf("Second CreateBackupIfNeeded failed: %v", err)
	}
	if second.Created {
		t.Error("Second same-day call should be a no-op")
	}

	records, err := engine.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected exactly 1 backup record, got %d", len(records))
	}
}

func TestCreateBackupIfNeededForcedReplacesToday(t *testing.T) {
	engine, _, _ := newTestEnv(t)

	if _, err := engine.CreateBackupIfNeeded(false); err != nil {
		t.Fatalf("Initial backup failed: %v", err)
	}

	forced, err := engine.CreateBackupIfNeeded(true)
	if err != nil {
		t.Fatalf("Forced backup failed: %v", err)
	}
	if !forced.Created {
		t.Error("Forced call should create a new backup")
	}

	// Still exactly one record for today.
	records, _ := engine.ListBackups()
	if len(records) != 1 {
		t.Errorf("Expected 1 record after forced re-backup, got %d", len(records))
	}
}

func TestCreateBackupIfNeededHonorsExistingFileWithoutMarker(t *testing.T) {
	engine, _, backupDir := newTestEnv(t)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("Failed to create backup dir: %v", err)
	}

	// Today's file exists but no marker (e.g. marker was lost).
	today := engine.dailyBackupPath(time.Now())
	if err := os.WriteFile(today, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write today's backup: %v", err)
	}

	res, err := engine.CreateBackupIfNeeded(false)
	if err != nil {
		t.Fatalf("CreateBackupIfNeeded failed: %v", err)
	}
	if res.Created {
		t.Error("Should not overwrite today's existing backup without force")
	}
}

func TestCleanupOldBackupsRetentionBound(t *testing.T) {
	engine, _, backupDir := newTestEnv(t)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("Failed to create backup dir: %v", err)
	}

	dates := []string{"2026-01-08", "2026-01-09", "2026-01-10", "2026-01-11", "2026-01-12"}
	for _, date := range dates {
		name := fmt.Sprintf("%s-%s.db", FilenamePrefix, date)
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	res, err := engine.CleanupOldBackups(3)
	if err != nil {
		t.Fatalf("CleanupOldBackups failed: %v", err)
	}
	if res.Deleted != 2 || res.Kept != 3 || res.Failed != 0 {
		t.Errorf("CleanupResult = %+v, want 2 deleted / 3 kept", res)
	}

	records, _ := engine.ListBackups()
	if len(records) != 3 {
		t.Fatalf("Expected 3 remaining records, got %d", len(records))
	}
	// The most recent dates survive.
	for i, date := range []string{"2026-01-12", "2026-01-11", "2026-01-10"} {
		if records[i].Date != date {
			t.Errorf("records[%d].Date = %s, want %s", i, records[i].Date, date)
		}
	}
}

func TestCleanupOldBackupsRejectsZero(t *testing.T) {
	engine, _, _ := newTestEnv(t)
	if _, err := engine.CleanupOldBackups(0); err == nil {
		t.Error("Expected error for keepDays = 0")
	}
}

func TestPerformDailyBackupSync(t *testing.T) {
	engine, _, backupDir := newTestEnv(t)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("Failed to create backup dir: %v", err)
	}

	// Pre-existing old backups beyond retention.
	for _, date := range []string{"2020-05-01", "2020-05-02"} {
		name := fmt.Sprintf("%s-%s.db", FilenamePrefix, date)
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	res, err := engine.PerformDailyBackupSync(2)
	if err != nil {
		t.Fatalf("PerformDailyBackupSync failed: %v", err)
	}
	if !res.Backup.Created {
		t.Error("Expected a fresh backup")
	}
	if res.Cleanup.Deleted != 1 || res.Cleanup.Kept != 2 {
		t.Errorf("Cleanup = %+v, want 1 deleted / 2 kept", res.Cleanup)
	}

	// Today's backup must be among the survivors.
	records, _ := engine.ListBackups()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Path != res.Backup.Path {
		t.Errorf("Newest record %s is not today's backup %s", records[0].Path, res.Backup.Path)
	}
}

func TestMarkerFilePermissions(t *testing.T) {
	engine, _, _ := newTestEnv(t)
	if _, err := engine.CreateBackupIfNeeded(false); err != nil {
		t.Fatalf("CreateBackupIfNeeded failed: %v", err)
	}

	info, err := os.Stat(engine.markerPath())
	if err != nil {
		t.Fatalf("Marker file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Marker permissions = %o, want 600", perm)
	}
}
