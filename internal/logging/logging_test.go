package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tick.log")

	log := New(Options{
		FilePath:       logPath,
		MaxSizeMB:      1,
		MaxGenerations: 1,
		Level:          zapcore.InfoLevel,
	})

	log.Infow("backup created", "path", "/tmp/tick-backup-2026-01-10.db")
	if err := log.Sync(); err != nil {
		// Sync on a lumberjack sink can return ENOTSUP on some
		// platforms; the write itself is what we verify.
		t.Logf("sync: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "backup created") {
		t.Errorf("Log file missing expected entry, got: %s", data)
	}
}

func TestNewLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tick.log")

	log := New(Options{
		FilePath:       logPath,
		MaxSizeMB:      1,
		MaxGenerations: 1,
		Level:          zapcore.WarnLevel,
	})

	log.Infow("below threshold")
	log.Warnw("at threshold")
	_ = log.Sync()

	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "below threshold") {
		t.Error("Info entry should have been filtered at warn level")
	}
	if !strings.Contains(string(data), "at threshold") {
		t.Error("Warn entry missing from log file")
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log := New(Options{})
	// Must not panic or write anywhere.
	log.Infow("into the void")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions("/var/log/tick.log")
	if opts.MaxSizeMB <= 0 {
		t.Error("Expected positive rotation size")
	}
	if opts.MaxGenerations <= 0 {
		t.Error("Expected positive generation retention")
	}
	if opts.FilePath != "/var/log/tick.log" {
		t.Errorf("FilePath = %q", opts.FilePath)
	}
}
