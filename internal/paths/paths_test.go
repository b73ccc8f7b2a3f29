package paths

import (
	"path/filepath"
	"testing"
)

// fakeEnv returns a Getenv func backed by a map.
func fakeEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

func TestResolverLinuxXDG(t *testing.T) {
	r := &Resolver{
		GOOS: "linux",
		Getenv: fakeEnv(map[string]string{
			"XDG_DATA_HOME":   "/custom/data",
			"XDG_CONFIG_HOME": "/custom/config",
			"XDG_CACHE_HOME":  "/custom/cache",
			"XDG_STATE_HOME":  "/custom/state",
		}),
		HomeDir: "/home/alice",
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"data", r.DataDir(), "/custom/data/tick"},
		{"config", r.ConfigDir(), "/custom/config/tick"},
		{"cache", r.CacheDir(), "/custom/cache/tick"},
		{"state", r.StateDir(), "/custom/state/tick"},
	}

	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("%s dir = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestResolverLinuxDefaults(t *testing.T) {
	r := &Resolver{
		GOOS:    "linux",
		Getenv:  fakeEnv(nil),
		HomeDir: "/home/alice",
	}

	if got, want := r.DataDir(), filepath.FromSlash("/home/alice/.local/share/tick"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got, want := r.StateDir(), filepath.FromSlash("/home/alice/.local/state/tick"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
	if got, want := r.ConfigDir(), filepath.FromSlash("/home/alice/.config/tick"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestResolverDarwin(t *testing.T) {
	r := &Resolver{
		GOOS:    "darwin",
		Getenv:  fakeEnv(nil),
		HomeDir: "/Users/alice",
	}

	if got, want := r.DataDir(), filepath.FromSlash("/Users/alice/Library/Application Support/tick"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got, want := r.CacheDir(), filepath.FromSlash("/Users/alice/Library/Caches/tick"); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

func TestResolverWindows(t *testing.T) {
	r := &Resolver{
		GOOS: "windows",
		Getenv: fakeEnv(map[string]string{
			"APPDATA":      `C:\Users\alice\AppData\Roaming`,
			"LOCALAPPDATA": `C:\Users\alice\AppData\Local`,
		}),
		HomeDir: `C:\Users\alice`,
	}

	if got, want := r.DataDir(), filepath.Join(`C:\Users\alice\AppData\Roaming`, "tick", "data"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got, want := r.StateDir(), filepath.Join(`C:\Users\alice\AppData\Local`, "tick", "state"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
}

func TestLegacyDirIsPlatformIndependent(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		r := &Resolver{GOOS: goos, Getenv: fakeEnv(nil), HomeDir: "/home/alice"}
		want := filepath.Join("/home/alice", ".tick")
		if got := r.LegacyDir(); got != want {
			t.Errorf("LegacyDir() on %s = %q, want %q", goos, got, want)
		}
	}
}

func TestDerivedPaths(t *testing.T) {
	r := &Resolver{GOOS: "linux", Getenv: fakeEnv(nil), HomeDir: "/home/alice"}

	if got := r.DatabasePath(); filepath.Base(got) != "tick.db" {
		t.Errorf("DatabasePath() basename = %q, want tick.db", filepath.Base(got))
	}
	if got := r.BackupDir(); filepath.Base(got) != "backups" {
		t.Errorf("BackupDir() basename = %q, want backups", filepath.Base(got))
	}
	if got := r.LogDir(); filepath.Base(got) != "logs" {
		t.Errorf("LogDir() basename = %q, want logs", filepath.Base(got))
	}
}
