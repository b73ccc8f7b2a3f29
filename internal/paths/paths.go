// Package paths resolves platform-appropriate directories for tick data.
//
// On Linux the XDG base directory spec is honored (XDG_DATA_HOME and
// friends), on macOS the ~/Library hierarchy is used, and on Windows
// APPDATA/LOCALAPPDATA. The legacy directory ~/.tick predates the
// platform-aware layout and is only consulted by the migration code.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tick"

// DatabaseFilename is the basename of the live database file.
const DatabaseFilename = "tick.db"

// Resolver computes tick's directory layout for one platform/environment
// combination. Env lookups go through Getenv so tests can substitute a
// fake environment; HomeDir is resolved once at construction.
type Resolver struct {
	GOOS    string
	Getenv  func(string) string
	HomeDir string
}

// NewResolver returns a Resolver for the current process environment.
func NewResolver() (*Resolver, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Resolver{
		GOOS:    runtime.GOOS,
		Getenv:  os.Getenv,
		HomeDir: home,
	}, nil
}

// DataDir returns the directory holding the live database.
func (r *Resolver) DataDir() string {
	switch r.GOOS {
	case "darwin":
		return filepath.Join(r.HomeDir, "Library", "Application Support", appName)
	case "windows":
		if appData := r.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName, "data")
		}
		return filepath.Join(r.HomeDir, "AppData", "Roaming", appName, "data")
	default:
		if xdg := r.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(r.HomeDir, ".local", "share", appName)
	}
}

// ConfigDir returns the directory for user configuration.
func (r *Resolver) ConfigDir() string {
	switch r.GOOS {
	case "darwin":
		return filepath.Join(r.HomeDir, "Library", "Preferences", appName)
	case "windows":
		if appData := r.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName, "config")
		}
		return filepath.Join(r.HomeDir, "AppData", "Roaming", appName, "config")
	default:
		if xdg := r.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(r.HomeDir, ".config", appName)
	}
}

// CacheDir returns the directory for disposable cached data.
func (r *Resolver) CacheDir() string {
	switch r.GOOS {
	case "darwin":
		return filepath.Join(r.HomeDir, "Library", "Caches", appName)
	case "windows":
		if local := r.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName, "cache")
		}
		return filepath.Join(r.HomeDir, "AppData", "Local", appName, "cache")
	default:
		if xdg := r.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(r.HomeDir, ".cache", appName)
	}
}

// StateDir returns the directory for durable-but-rebuildable state
// (backups, logs). macOS and Windows have no state/data distinction, so
// the data hierarchy is reused there.
func (r *Resolver) StateDir() string {
	switch r.GOOS {
	case "darwin":
		return filepath.Join(r.HomeDir, "Library", "Application Support", appName, "state")
	case "windows":
		if local := r.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName, "state")
		}
		return filepath.Join(r.HomeDir, "AppData", "Local", appName, "state")
	default:
		if xdg := r.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(r.HomeDir, ".local", "state", appName)
	}
}

// LegacyDir returns the fixed pre-platform-layout directory. It is the
// same on every platform and is never created by this package.
func (r *Resolver) LegacyDir() string {
	return filepath.Join(r.HomeDir, "."+appName)
}

// DatabasePath returns the full path of the live database file.
func (r *Resolver) DatabasePath() string {
	return filepath.Join(r.DataDir(), DatabaseFilename)
}

// BackupDir returns the directory holding dated backups and the backup
// marker file.
func (r *Resolver) BackupDir() string {
	return filepath.Join(r.StateDir(), "backups")
}

// LogDir returns the directory holding rotated log files.
func (r *Resolver) LogDir() string {
	return filepath.Join(r.StateDir(), "logs")
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
