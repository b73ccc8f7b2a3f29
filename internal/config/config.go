// Package config loads tick's optional YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// Config holds the resilience subsystem knobs. Every field has a default;
// a missing config file is not an error.
type Config struct {
	Backup  BackupConfig  `mapstructure:"backup"`
	Log     LogConfig     `mapstructure:"log"`
	Watcher WatcherConfig `mapstructure:"watcher"`
}

// BackupConfig controls the daily backup cadence and retention.
type BackupConfig struct {
	// KeepDays is how many dated backups to retain.
	KeepDays int `mapstructure:"keep_days"`
}

// LogConfig controls the rotating incident log.
type LogConfig struct {
	MaxSizeMB      int    `mapstructure:"max_size_mb"`
	MaxGenerations int    `mapstructure:"max_generations"`
	Level          string `mapstructure:"level"`
}

// WatcherConfig controls deletion detection.
type WatcherConfig struct {
	// DebounceWindow coalesces bursts of raw filesystem events.
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Backup:  BackupConfig{KeepDays: 7},
		Log:     LogConfig{MaxSizeMB: 10, MaxGenerations: 3, Level: "info"},
		Watcher: WatcherConfig{DebounceWindow: 100 * time.Millisecond},
	}
}

// Load reads config.yaml from configDir if it exists, overlaying defaults.
func Load(configDir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("backup.keep_days", cfg.Backup.KeepDays)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_generations", cfg.Log.MaxGenerations)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("watcher.debounce_window", cfg.Watcher.DebounceWindow)

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: unmarshal %s: %v", ErrLoadConfig, path, err)
	}

	return cfg, nil
}
