// Package backup creates, verifies, prunes and restores point-in-time
// copies of the tick database.
//
// Backups are produced with SQLite's VACUUM INTO, which yields a
// consistent snapshot even while the database is being written, and are
// verified with a quick integrity check before they are trusted. The
// daily series uses one dated file per calendar day; safety copies made
// before a restore use epoch-millisecond names so they never collide
// with the daily series.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ticktools/tick/internal/integrity"
)

// FilenamePrefix starts every file in the daily backup series.
const FilenamePrefix = "tick-backup"

// markerFilename is the sentinel whose modification day records the
// last successful backup. Only this package touches it.
const markerFilename = ".last-backup"

var (
	// ErrBackupNotFound indicates the requested backup file is absent.
	ErrBackupNotFound = errors.New("backup file not found")
	// ErrBackupCorrupted indicates a backup failed verification.
	ErrBackupCorrupted = errors.New("backup failed integrity verification")
)

// dailyPattern matches files of the daily series and captures the date.
var dailyPattern = regexp.MustCompile(`^` + FilenamePrefix + `-(\d{4}-\d{2}-\d{2})\.db$`)

// Engine creates and manages backups of one database file.
type Engine struct {
	dbPath    string
	backupDir string
	checker   *integrity.Checker
	log       *zap.SugaredLogger

	// now and verify are replaceable in tests.
	now    func() time.Time
	verify func(path string) error
}

// NewEngine returns an Engine for dbPath writing into backupDir.
// A nil logger disables logging.
func NewEngine(dbPath, backupDir string, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	checker := integrity.NewChecker(log)
	return &Engine{
		dbPath:    dbPath,
		backupDir: backupDir,
		checker:   checker,
		log:       log,
		now:       time.Now,
		verify:    checker.QuickCheck,
	}
}

// dailyBackupPath returns the daily-series path for the given day.
func (e *Engine) dailyBackupPath(day time.Time) string {
	name := fmt.Sprintf("%s-%s.db", FilenamePrefix, day.Format(dateLayout))
	return filepath.Join(e.backupDir, name)
}

// markerPath returns the location of the daily-backup marker file.
func (e *Engine) markerPath() string {
	return filepath.Join(e.backupDir, markerFilename)
}

// snapshotTo produces a verified point-in-time copy of source at target.
// The copy is written through a temporary name and renamed into place
// only after it passes a quick integrity check, so a half-written or
// corrupt file never appears under the target name. An existing target
// is replaced, which is how a forced same-day re-backup works.
func (e *Engine) snapshotTo(source, target string) error {
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", integrity.ErrDatabaseNotFound, source)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.tmp-%d", target, e.now().UnixMilli())

	// Not mode=ro: VACUUM INTO only reads the source, but opening a
	// WAL database may need to recover the WAL first.
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	_, err = db.Exec("VACUUM INTO ?", tmpPath)
	closeErr := db.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	if closeErr != nil {
		e.log.Warnw("closing source after snapshot failed", "error", closeErr)
	}

	// Never leave an unverified copy on disk.
	if err := e.verify(tmpPath); err != nil {
		os.Remove(tmpPath)
		e.log.Errorw("snapshot failed verification, deleted", "target", target, "error", err)
		return fmt.Errorf("%w: %v", ErrBackupCorrupted, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to install backup: %w", err)
	}
	return nil
}

// CreateBackup snapshots the live database. An empty targetPath selects
// today's slot in the daily series.
func (e *Engine) CreateBackup(targetPath string) (*Result, error) {
	if targetPath == "" {
		targetPath = e.dailyBackupPath(e.now())
	}

	if err := e.snapshotTo(e.dbPath, targetPath); err != nil {
		return &Result{Created: false, Message: err.Error()}, err
	}

	e.log.Infow("backup created", "path", targetPath)
	return &Result{
		Created: true,
		Path:    targetPath,
		Message: fmt.Sprintf("backup created at %s", targetPath),
	}, nil
}

// ListBackups returns the daily series sorted newest first.
func (e *Engine) ListBackups() ([]Record, error) {
	entries, err := os.ReadDir(e.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := dailyPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			e.log.Warnw("failed to stat backup", "name", entry.Name(), "error", err)
			continue
		}
		records = append(records, Record{
			Filename:  entry.Name(),
			Date:      m[1],
			Path:      filepath.Join(e.backupDir, entry.Name()),
			SizeBytes: info.Size(),
		})
	}

	// Zero-padded ISO dates sort correctly as strings.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

// WasBackupCreatedToday reports whether the marker file was touched
// today.
func (e *Engine) WasBackupCreatedToday() bool {
	info, err := os.Stat(e.markerPath())
	if err != nil {
		return false
	}
	return sameDay(info.ModTime(), e.now())
}

// touchMarker records a successful backup for today. Owner-only
// permissions; the content is informational, the mtime is the datum.
func (e *Engine) touchMarker() error {
	if err := os.WriteFile(e.markerPath(),
		[]byte(e.now().Format(time.RFC3339)+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write backup marker: %w", err)
	}
	return nil
}

// CreateBackupIfNeeded creates today's backup unless the marker or
// today's file shows one already exists. force always re-backs up,
// replacing today's file.
func (e *Engine) CreateBackupIfNeeded(force bool) (*Result, error) {
	today := e.dailyBackupPath(e.now())

	if !force {
		if e.WasBackupCreatedToday() {
			return &Result{Created: false, Path: today, Message: "backup already created today"}, nil
		}
		if _, err := os.Stat(today); err == nil {
			return &Result{Created: false, Path: today, Message: "today's backup file already exists"}, nil
		}
	}

	res, err := e.CreateBackup(today)
	if err != nil {
		return res, err
	}

	// Marker updates are best-effort; the backup itself succeeded.
	if err := e.touchMarker(); err != nil {
		e.log.Warnw("backup marker update failed", "error", err)
	}
	return res, nil
}

// CleanupOldBackups deletes dated backups beyond keepDays, oldest
// first. Each deletion is attempted independently.
func (e *Engine) CleanupOldBackups(keepDays int) (*CleanupResult, error) {
	if keepDays < 1 {
		return nil, fmt.Errorf("keepDays must be at least 1, got %d", keepDays)
	}

	records, err := e.ListBackups()
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{}
	for i, rec := range records {
		if i < keepDays {
			result.Kept++
			continue
		}
		if err := os.Remove(rec.Path); err != nil {
			result.Failed++
			e.log.Warnw("failed to delete old backup", "path", rec.Path, "error", err)
			continue
		}
		result.Deleted++
		e.log.Infow("old backup deleted", "path", rec.Path)
	}
	return result, nil
}

// PerformDailyBackupSync is the startup entry point: backup-if-needed,
// then retention pruning. Cleanup runs strictly after the backup so
// there is never a window with zero backups.
func (e *Engine) PerformDailyBackupSync(keepDays int) (*DailyResult, error) {
	backupRes, err := e.CreateBackupIfNeeded(false)
	if err != nil {
		return &DailyResult{Backup: *backupRes}, err
	}

	cleanupRes, err := e.CleanupOldBackups(keepDays)
	if err != nil {
		return &DailyResult{Backup: *backupRes}, err
	}
	return &DailyResult{Backup: *backupRes, Cleanup: *cleanupRes}, nil
}

// copyFile byte-copies a cold (not actively written) file.
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
