// Package migrate relocates tick data from the fixed legacy directory
// (~/.tick) to the platform-resolved data directory.
//
// The migration runs once, is safe to call on every startup, and never
// deletes the legacy directory: whatever happens, the old copy stays
// recoverable by hand.
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ticktools/tick/internal/backup"
	"github.com/ticktools/tick/internal/integrity"
	"github.com/ticktools/tick/internal/paths"
)

// markerFilename is the completion sentinel written into the legacy
// directory. Its existence makes every later attempt a no-op.
const markerFilename = ".migrated.json"

// attachmentsDirname holds ticket attachments in both layouts.
const attachmentsDirname = "attachments"

// ErrVerificationFailed indicates the copied database did not pass the
// integrity check at the new location. No marker is written, so the
// migration stays retryable.
var ErrVerificationFailed = errors.New("migrated database failed verification")

// Marker is the JSON completion sentinel.
type Marker struct {
	MigratedAt time.Time `json:"migratedAt"`
	MigratedTo string    `json:"migratedTo"`
	Note       string    `json:"note"`
}

// Result reports one migration attempt.
type Result struct {
	// Migrated is true only when data was actually moved this call.
	Migrated bool
	Message  string
	// BackupPath names the pre-migration backup of the legacy
	// database, when one was taken.
	BackupPath string
	// AttachmentsCopied / AttachmentsFailed count per-file outcomes;
	// individual failures do not abort the migration.
	AttachmentsCopied int
	AttachmentsFailed int
}

// Migrator performs the one-time legacy relocation.
type Migrator struct {
	legacyDir string
	dataDir   string
	backupDir string
	checker   *integrity.Checker
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewMigrator builds a Migrator from the resolved directory layout.
// A nil logger disables logging.
func NewMigrator(legacyDir, dataDir, backupDir string, log *zap.SugaredLogger) *Migrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Migrator{
		legacyDir: legacyDir,
		dataDir:   dataDir,
		backupDir: backupDir,
		checker:   integrity.NewChecker(log),
		log:       log,
		now:       time.Now,
	}
}

func (m *Migrator) markerPath() string {
	return filepath.Join(m.legacyDir, markerFilename)
}

func (m *Migrator) legacyDBPath() string {
	return filepath.Join(m.legacyDir, paths.DatabaseFilename)
}

func (m *Migrator) newDBPath() string {
	return filepath.Join(m.dataDir, paths.DatabaseFilename)
}

// MigrateFromLegacy is idempotent: four short-circuits are evaluated in
// order before any data moves.
func (m *Migrator) MigrateFromLegacy() (*Result, error) {
	// 1. Already migrated.
	if _, err := os.Stat(m.markerPath()); err == nil {
		return &Result{Migrated: false, Message: "already migrated"}, nil
	}

	// 2. Nothing to migrate.
	legacyDB := m.legacyDBPath()
	if _, err := os.Stat(legacyDB); os.IsNotExist(err) {
		return &Result{Migrated: false, Message: "no legacy data found"}, nil
	}

	// 3. Never overwrite an existing destination.
	newDB := m.newDBPath()
	if _, err := os.Stat(newDB); err == nil {
		m.log.Warnw("destination database already exists, skipping migration",
			"legacy", legacyDB, "destination", newDB)
		return &Result{
			Migrated: false,
			Message:  "destination database already exists; using it and leaving legacy data in place",
		}, nil
	}

	// 4. Perform the migration.
	return m.perform(legacyDB, newDB)
}

func (m *Migrator) perform(legacyDB, newDB string) (*Result, error) {
	result := &Result{}

	// Pre-migration backup of the legacy database. Unlike the restore
	// safety copy this is a hard precondition: without it a botched
	// copy has no second recovery path beyond the legacy files.
	preName := fmt.Sprintf("%s-premigrate-%d.db", backup.FilenamePrefix, m.now().UnixMilli())
	prePath := filepath.Join(m.backupDir, preName)
	engine := backup.NewEngine(legacyDB, m.backupDir, m.log)
	if _, err := engine.CreateBackup(prePath); err != nil {
		return result, fmt.Errorf("pre-migration backup failed: %w", err)
	}
	result.BackupPath = prePath

	if err := paths.EnsureDir(m.dataDir); err != nil {
		return result, err
	}

	// Copy the main file and whichever companions exist. All three
	// move together so a stale WAL cannot resurrect old data.
	if err := copyFile(legacyDB, newDB); err != nil {
		return result, fmt.Errorf("failed to copy database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		src := legacyDB + suffix
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, newDB+suffix); err != nil {
			m.cleanupDestination(newDB)
			return result, fmt.Errorf("failed to copy companion %s: %w", src, err)
		}
	}

	// Verify at the new location; abort retryable on failure.
	if err := m.checker.QuickCheck(newDB); err != nil {
		m.cleanupDestination(newDB)
		m.log.Errorw("migrated database failed verification", "path", newDB, "error", err)
		return result, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	// Attachments are copied individually; a failed file is logged
	// and skipped, never fatal.
	copied, failed := m.copyAttachments()
	result.AttachmentsCopied = copied
	result.AttachmentsFailed = failed

	// The marker is written last, only after every prior step held.
	if err := m.writeMarker(); err != nil {
		return result, err
	}

	result.Migrated = true
	result.Message = fmt.Sprintf("migrated database to %s", m.dataDir)
	m.log.Infow("legacy migration complete",
		"from", m.legacyDir, "to", m.dataDir,
		"attachmentsCopied", copied, "attachmentsFailed", failed)
	return result, nil
}

// cleanupDestination removes a partially installed destination so a
// retry starts clean. The legacy source is untouched.
func (m *Migrator) cleanupDestination(newDB string) {
	for _, p := range []string{newDB, newDB + "-wal", newDB + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.log.Warnw("failed to clean destination file", "path", p, "error", err)
		}
	}
}

// copyAttachments copies every regular file under the legacy
// attachments directory, counting per-file failures.
func (m *Migrator) copyAttachments() (copied, failed int) {
	srcDir := filepath.Join(m.legacyDir, attachmentsDirname)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warnw("failed to read attachments directory", "path", srcDir, "error", err)
		}
		return 0, 0
	}

	dstDir := filepath.Join(m.dataDir, attachmentsDirname)
	if err := paths.EnsureDir(dstDir); err != nil {
		m.log.Warnw("failed to create attachments directory", "path", dstDir, "error", err)
		return 0, len(entries)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			failed++
			m.log.Warnw("failed to copy attachment", "file", entry.Name(), "error", err)
			continue
		}
		copied++
	}
	return copied, failed
}

// writeMarker records completion in the legacy directory with
// owner-only permissions.
func (m *Migrator) writeMarker() error {
	marker := Marker{
		MigratedAt: m.now(),
		MigratedTo: m.dataDir,
		Note:       "data moved to platform directory; this directory is kept as a fallback",
	}
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal migration marker: %w", err)
	}
	if err := os.WriteFile(m.markerPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write migration marker: %w", err)
	}
	return nil
}

// copyFile byte-copies a cold file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return out.Close()
}
