package backup

import "time"

// Record describes one dated backup file, derived purely from the
// filesystem listing. At most one record exists per calendar date under
// normal operation.
type Record struct {
	Filename  string
	Date      string // YYYY-MM-DD
	Path      string
	SizeBytes int64
}

// Result reports a single backup attempt.
type Result struct {
	// Created is false when a same-day backup already existed and no
	// new file was written.
	Created bool
	Path    string
	Message string
}

// CleanupResult reports a retention pruning pass. Failed deletions do
// not abort the pass; each file is attempted independently.
type CleanupResult struct {
	Deleted int
	Failed  int
	Kept    int
}

// RestoreOutcome reports a restore attempt. PreRestoreBackupPath, when
// set, names a durable safety copy of the database as it was before the
// restore; it remains discoverable even when the restore fails.
type RestoreOutcome struct {
	Success              bool
	Message              string
	PreRestoreBackupPath string
}

// DailyResult is the combined outcome of PerformDailyBackupSync.
type DailyResult struct {
	Backup  Result
	Cleanup CleanupResult
}

// parseableDate is the layout embedded in backup filenames. It is
// zero-padded, so lexicographic order equals chronological order.
const dateLayout = "2006-01-02"

// sameDay reports whether two instants fall on the same calendar day
// in local time.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
