// Package integrity inspects a tick database file without modifying it.
//
// The quick check is cheap enough to run on every process startup; the
// remaining checks are reserved for explicit diagnostics because their
// cost grows with database size.
package integrity

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ticktools/tick/internal/store"
)

// ErrDatabaseNotFound indicates the database file does not exist.
var ErrDatabaseNotFound = errors.New("database file not found")

// ErrIntegrity indicates the database engine reported corruption.
var ErrIntegrity = errors.New("integrity check failed")

// LargeWALBytes is the WAL size above which the WAL check reports a
// warning suggesting a checkpoint.
const LargeWALBytes = 100 * 1024 * 1024

// Checker runs read-only health checks against a database file.
type Checker struct {
	log *zap.SugaredLogger

	// BackupHint, if set, names the newest available backup and is
	// surfaced in suggestions when the structural check fails.
	BackupHint string
}

// NewChecker returns a Checker logging through log. A nil logger
// disables logging.
func NewChecker(log *zap.SugaredLogger) *Checker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Checker{log: log}
}

// openForCheck opens an existing database for inspection. The checks
// only ever read, but the connection is not opened with mode=ro: WAL
// recovery on open needs write access to the companion files, and a
// database left behind by a crash must still be checkable.
func openForCheck(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// pragmaRows runs a PRAGMA returning text rows and collects them.
func pragmaRows(db *sql.DB, pragma string) ([]string, error) {
	rows, err := db.Query(pragma)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", pragma, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", pragma, err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// QuickCheck runs a bounded, stop-at-first-error structural scan. It
// returns nil for a healthy database, ErrDatabaseNotFound if the file
// is absent, and ErrIntegrity wrapping the engine message otherwise.
func (c *Checker) QuickCheck(path string) error {
	db, err := openForCheck(path)
	if err != nil {
		return err
	}
	defer db.Close()

	// quick_check(1) stops at the first problem found
	lines, err := pragmaRows(db, "PRAGMA quick_check(1)")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if len(lines) == 1 && lines[0] == "ok" {
		return nil
	}
	c.log.Warnw("quick check failed", "path", path, "result", lines)
	return fmt.Errorf("%w: %s", ErrIntegrity, firstLine(lines))
}

// FullCheck runs an unbounded structural scan returning every detected
// anomaly, not just the first.
func (c *Checker) FullCheck(path string) CheckResult {
	db, err := openForCheck(path)
	if err != nil {
		return fail(err.Error())
	}
	defer db.Close()

	lines, err := pragmaRows(db, "PRAGMA integrity_check")
	if err != nil {
		return fail(fmt.Sprintf("integrity check could not run: %v", err))
	}
	if len(lines) == 1 && lines[0] == "ok" {
		return ok("structural integrity verified")
	}
	c.log.Errorw("integrity check found anomalies", "path", path, "count", len(lines))
	return fail(fmt.Sprintf("%d integrity problem(s) detected", len(lines)), lines...)
}

// ForeignKeyCheck enumerates every referential-integrity violation.
func (c *Checker) ForeignKeyCheck(path string) CheckResult {
	db, err := openForCheck(path)
	if err != nil {
		return fail(err.Error())
	}
	defer db.Close()

	rows, err := db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fail(fmt.Sprintf("foreign key check could not run: %v", err))
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var table, parent string
		var rowID sql.NullInt64
		var fkID int64
		if err := rows.Scan(&table, &rowID, &parent, &fkID); err != nil {
			return fail(fmt.Sprintf("foreign key check scan failed: %v", err))
		}
		if rowID.Valid {
			violations = append(violations,
				fmt.Sprintf("%s row %d references missing %s", table, rowID.Int64, parent))
		} else {
			violations = append(violations,
				fmt.Sprintf("%s references missing %s", table, parent))
		}
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Sprintf("foreign key check failed: %v", err))
	}

	if len(violations) == 0 {
		return ok("no foreign key violations")
	}
	c.log.Errorw("foreign key violations found", "path", path, "count", len(violations))
	return fail(fmt.Sprintf("%d foreign key violation(s)", len(violations)), violations...)
}

// WALCheck inspects the WAL companion file. Findings here are at worst
// warnings: a large or orphaned WAL is recoverable by checkpointing.
func (c *Checker) WALCheck(path string) CheckResult {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fail(fmt.Sprintf("%v: %s", ErrDatabaseNotFound, path))
	}

	walPath := path + "-wal"
	shmPath := path + "-shm"

	walInfo, walErr := os.Stat(walPath)
	_, shmErr := os.Stat(shmPath)
	walExists := walErr == nil
	shmExists := shmErr == nil

	switch {
	case !walExists && !shmExists:
		return ok("no WAL present (fully checkpointed)")
	case walExists && !shmExists:
		// A WAL without its shared-memory index suggests an unclean
		// shutdown; SQLite will recover it on next open.
		return warn("WAL present without shared-memory companion",
			fmt.Sprintf("WAL size: %d bytes", walInfo.Size()))
	case !walExists && shmExists:
		return warn("shared-memory file present without WAL")
	}

	if walInfo.Size() > LargeWALBytes {
		c.log.Warnw("WAL unusually large", "path", walPath, "size", walInfo.Size())
		return warn(fmt.Sprintf("WAL is unusually large (%d bytes)", walInfo.Size()),
			"a checkpoint will fold pending writes into the main file")
	}

	return ok(fmt.Sprintf("WAL healthy (%d bytes)", walInfo.Size()))
}

// TableCheck confirms the required schema tables exist. A missing table
// is an error: it implies an uninitialized or damaged schema.
func (c *Checker) TableCheck(path string) CheckResult {
	db, err := openForCheck(path)
	if err != nil {
		return fail(err.Error())
	}
	defer db.Close()

	present := make(map[string]bool)
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return fail(fmt.Sprintf("table listing could not run: %v", err))
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fail(fmt.Sprintf("table listing scan failed: %v", err))
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Sprintf("table listing failed: %v", err))
	}

	var missing []string
	for _, name := range store.RequiredTables {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		c.log.Errorw("required tables missing", "path", path, "missing", missing)
		return fail(fmt.Sprintf("%d required table(s) missing", len(missing)), missing...)
	}
	return ok(fmt.Sprintf("all %d required tables present", len(store.RequiredTables)))
}

// FullDatabaseCheck runs every check and aggregates the worst status,
// appending contextual suggestions.
func (c *Checker) FullDatabaseCheck(path string) *HealthReport {
	report := &HealthReport{
		Integrity:  c.FullCheck(path),
		ForeignKey: c.ForeignKeyCheck(path),
		WAL:        c.WALCheck(path),
		Table:      c.TableCheck(path),
	}

	report.Overall = StatusOK
	for _, r := range []CheckResult{report.Integrity, report.ForeignKey, report.WAL, report.Table} {
		report.Overall = Worse(report.Overall, r.Status)
	}

	if report.Integrity.Status == StatusError {
		if c.BackupHint != "" {
			report.Suggestions = append(report.Suggestions,
				fmt.Sprintf("restore from the most recent backup: %s", c.BackupHint))
		} else {
			report.Suggestions = append(report.Suggestions,
				"restore from a backup if one is available")
		}
	}
	if report.ForeignKey.Status == StatusError {
		report.Suggestions = append(report.Suggestions,
			"review and repair dangling references before continuing")
	}
	if report.WAL.Status == StatusWarning {
		report.Suggestions = append(report.Suggestions,
			"run a WAL checkpoint to fold pending writes into the main file")
	}
	if report.Table.Status == StatusError {
		report.Suggestions = append(report.Suggestions,
			"the schema is incomplete; re-initialize the database or restore a backup")
	}

	c.log.Infow("full database check complete", "path", path, "overall", report.Overall.String())
	return report
}

// firstLine returns the first element of lines, or a placeholder.
func firstLine(lines []string) string {
	if len(lines) == 0 {
		return "no detail reported"
	}
	return lines[0]
}
