package app

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ticktools/tick/internal/backup"
	"github.com/ticktools/tick/internal/config"
	"github.com/ticktools/tick/internal/logging"
	"github.com/ticktools/tick/internal/paths"
)

// env bundles the resolved layout, configuration and logger every
// command needs.
type env struct {
	resolver *paths.Resolver
	cfg      config.Config
	log      *zap.SugaredLogger
	dbPath   string
}

// newEnv resolves directories, loads config and builds the rotating
// incident logger. The --db flag overrides the platform database path.
func newEnv() (*env, error) {
	resolver, err := paths.NewResolver()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(resolver.ConfigDir())
	if err != nil {
		// A broken config file should not brick the tool; fall back
		// to defaults and say so on the incident log below.
		fmt.Println("Warning:", err)
		cfg = config.Default()
	}

	if err := paths.EnsureDir(resolver.LogDir()); err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Log.Level); err != nil {
		level = zapcore.InfoLevel
	}
	log := logging.New(logging.Options{
		FilePath:       filepath.Join(resolver.LogDir(), "tick.log"),
		MaxSizeMB:      cfg.Log.MaxSizeMB,
		MaxGenerations: cfg.Log.MaxGenerations,
		Level:          level,
	})

	dbPath := dbPathFlag
	if dbPath == "" {
		if err := paths.EnsureDir(resolver.DataDir()); err != nil {
			return nil, err
		}
		dbPath = resolver.DatabasePath()
	}

	return &env{resolver: resolver, cfg: cfg, log: log, dbPath: dbPath}, nil
}

// backupEngine builds the backup engine for the resolved database.
func (e *env) backupEngine() *backup.Engine {
	return backup.NewEngine(e.dbPath, e.resolver.BackupDir(), e.log)
}
