package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ticktools/tick/internal/store"
)

func TestRestoreRoundTrip(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	res, err := engine.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	wantCount := countTickets(t, dbPath)

	// Mutate the live database after the backup.
	db, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	if _, err := db.InsertTicket(&store.Ticket{Title: "post-backup", Status: "open"}); err != nil {
		t.Fatalf("Failed to insert ticket: %v", err)
	}
	db.Close()

	outcome, err := engine.RestoreFromBackup(res.Path)
	if err != nil {
		t.Fatalf("RestoreFromBackup failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Outcome = %+v, want success", outcome)
	}
	if outcome.PreRestoreBackupPath == "" {
		t.Error("Expected a pre-restore safety backup path")
	}
	if _, err := os.Stat(outcome.PreRestoreBackupPath); err != nil {
		t.Errorf("Safety backup not on disk: %v", err)
	}

	if got := countTickets(t, dbPath); got != wantCount {
		t.Errorf("Restored database has %d tickets, want %d", got, wantCount)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	engine, _, _ := newTestEnv(t)

	outcome, err := engine.RestoreFromBackup(filepath.Join(t.TempDir(), "absent.db"))
	if !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Expected ErrBackupNotFound, got %v", err)
	}
	if outcome.Success {
		t.Error("Outcome should report failure")
	}
}

func TestRestoreRejectsCorruptBackup(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	corrupt := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(corrupt, []byte("not a database"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	before, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("Failed to read live database: %v", err)
	}

	_, err = engine.RestoreFromBackup(corrupt)
	if !errors.Is(err, ErrBackupCorrupted) {
		t.Errorf("Expected ErrBackupCorrupted, got %v", err)
	}

	// The live database must be untouched.
	after, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("Live database missing after rejected restore: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Live database was modified by a rejected restore")
	}
}

func TestRestoreRollbackOnVerificationFailure(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	res, err := engine.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	wantCount := countTickets(t, dbPath)

	// Pass source verification and the safety snapshot, then fail the
	// post-install verification of the live path.
	realVerify := engine.verify
	engine.verify = func(path string) error {
		if path == dbPath {
			return errors.New("forced post-restore verification failure")
		}
		return realVerify(path)
	}

	outcome, err := engine.RestoreFromBackup(res.Path)
	if err == nil {
		t.Fatal("Expected restore to fail")
	}
	if outcome.Success {
		t.Error("Outcome should report failure")
	}
	if outcome.PreRestoreBackupPath == "" {
		t.Fatal("Failure outcome must carry the safety backup path")
	}
	if !strings.Contains(outcome.Message, "rolled back") {
		t.Errorf("Message = %q, want rollback mention", outcome.Message)
	}

	// The rollback must reinstate the pre-restore content.
	engine.verify = realVerify
	if got := countTickets(t, dbPath); got != wantCount {
		t.Errorf("Rolled-back database has %d tickets, want %d", got, wantCount)
	}
}

func TestRestoreRemovesStaleCompanions(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	res, err := engine.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	// Stale companions beside the live file.
	for _, suffix := range companionSuffixes {
		if err := os.WriteFile(dbPath+suffix, []byte("stale"), 0o644); err != nil {
			t.Fatalf("Failed to write companion: %v", err)
		}
	}

	if _, err := engine.RestoreFromBackup(res.Path); err != nil {
		t.Fatalf("RestoreFromBackup failed: %v", err)
	}

	for _, suffix := range companionSuffixes {
		if _, err := os.Stat(dbPath + suffix); !os.IsNotExist(err) {
			t.Errorf("Stale companion %s survived the restore", dbPath+suffix)
		}
	}
}

func TestRestoreWithNoLiveDatabase(t *testing.T) {
	engine, dbPath, _ := newTestEnv(t)

	res, err := engine.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := os.Remove(dbPath); err != nil {
		t.Fatalf("Failed to remove live database: %v", err)
	}

	outcome, err := engine.RestoreFromBackup(res.Path)
	if err != nil {
		t.Fatalf("RestoreFromBackup onto empty target failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Outcome = %+v, want success", outcome)
	}
	// No live database existed, so no safety copy was taken.
	if outcome.PreRestoreBackupPath != "" {
		t.Errorf("Unexpected safety backup: %s", outcome.PreRestoreBackupPath)
	}
}
