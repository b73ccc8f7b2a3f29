// Package logging builds the zap logger used across tick.
//
// Incident logs (backup failures, integrity warnings, watcher events) go
// to a size-rotated file under the state directory; rotation keeps a
// capped number of older generations. Console output is optional and
// meant for interactive commands.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where the logger writes and how rotation behaves.
type Options struct {
	// FilePath is the log file location. Empty disables file output.
	FilePath string
	// MaxSizeMB is the rotation threshold for a single log file.
	MaxSizeMB int
	// MaxGenerations is how many rotated files to retain.
	MaxGenerations int
	// Console enables human-readable output on stderr.
	Console bool
	// Level is the minimum level for both sinks.
	Level zapcore.Level
}

// DefaultOptions returns rotation settings suitable for a desktop tool:
// 10MB per file, three retained generations, info level.
func DefaultOptions(filePath string) Options {
	return Options{
		FilePath:       filePath,
		MaxSizeMB:      10,
		MaxGenerations: 3,
		Level:          zapcore.InfoLevel,
	}
}

// New builds a SugaredLogger from opts. Log writes may be buffered by
// the OS; durability before process exit is best-effort.
func New(opts Options) *zap.SugaredLogger {
	var cores []zapcore.Core

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxGenerations,
			Compress:   false,
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotator),
			opts.Level,
		))
	}

	if opts.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			opts.Level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop().Sugar()
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// Nop returns a no-op logger for components that were not given one.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
