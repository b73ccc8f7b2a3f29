package backup

import (
	"fmt"
	"os"
	"path/filepath"
)

// companionSuffixes are the WAL and shared-memory files that must move
// with the main database file. A stale companion left behind would
// resurrect old data on the next open.
var companionSuffixes = []string{"-wal", "-shm"}

// preRestorePath returns a safety-copy path outside the daily series.
func (e *Engine) preRestorePath() string {
	name := fmt.Sprintf("%s-prerestore-%d.db", FilenamePrefix, e.now().UnixMilli())
	return filepath.Join(e.backupDir, name)
}

// RestoreFromBackup replaces the live database with the given backup.
//
// The ordering is the component's central invariant: verify the source,
// snapshot the current database, destroy the live files, install the
// candidate, re-verify, and roll back on failure. The system is never
// left worse off than before the restore was attempted.
func (e *Engine) RestoreFromBackup(backupPath string) (*RestoreOutcome, error) {
	// 1. The candidate must exist.
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		err = fmt.Errorf("%w: %s", ErrBackupNotFound, backupPath)
		return &RestoreOutcome{Message: err.Error()}, err
	}

	// 2. Never restore from an unverified source.
	if err := e.verify(backupPath); err != nil {
		err = fmt.Errorf("%w: %v", ErrBackupCorrupted, err)
		e.log.Errorw("restore candidate rejected", "path", backupPath, "error", err)
		return &RestoreOutcome{Message: err.Error()}, err
	}

	outcome := &RestoreOutcome{}

	// 3. Safety-copy the current database. Best effort: the user has
	// already asked for replacement, so a failed snapshot is logged
	// and the restore proceeds without a rollback point.
	liveExists := false
	if _, err := os.Stat(e.dbPath); err == nil {
		liveExists = true
		safety := e.preRestorePath()
		if err := e.snapshotTo(e.dbPath, safety); err != nil {
			e.log.Warnw("pre-restore safety backup failed", "error", err)
		} else {
			outcome.PreRestoreBackupPath = safety
			e.log.Infow("pre-restore safety backup created", "path", safety)
		}
	}

	// 4. Remove the live file and both companions.
	if liveExists {
		if err := os.Remove(e.dbPath); err != nil {
			err = fmt.Errorf("failed to remove live database: %w", err)
			outcome.Message = err.Error()
			return outcome, err
		}
	}
	for _, suffix := range companionSuffixes {
		if err := os.Remove(e.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			e.log.Warnw("failed to remove companion file", "path", e.dbPath+suffix, "error", err)
		}
	}

	// 5. Install the candidate.
	if err := copyFile(backupPath, e.dbPath); err != nil {
		e.rollback(outcome)
		err = fmt.Errorf("failed to install backup: %w", err)
		outcome.Message = err.Error()
		return outcome, err
	}

	// 6. Re-verify in place.
	if err := e.verify(e.dbPath); err != nil {
		// 7. Roll back to the safety copy.
		e.rollback(outcome)
		err = fmt.Errorf("restored database failed verification, rolled back: %w", err)
		outcome.Message = err.Error()
		e.log.Errorw("restore verification failed", "backup", backupPath, "error", err)
		return outcome, err
	}

	outcome.Success = true
	outcome.Message = fmt.Sprintf("restored from %s", backupPath)
	e.log.Infow("restore complete", "backup", backupPath)
	return outcome, nil
}

// rollback reinstates the pre-restore safety copy, if one was made.
func (e *Engine) rollback(outcome *RestoreOutcome) {
	if outcome.PreRestoreBackupPath == "" {
		return
	}
	if err := copyFile(outcome.PreRestoreBackupPath, e.dbPath); err != nil {
		e.log.Errorw("rollback from safety backup failed",
			"safety", outcome.PreRestoreBackupPath, "error", err)
		return
	}
	e.log.Infow("rolled back to pre-restore state", "safety", outcome.PreRestoreBackupPath)
}
