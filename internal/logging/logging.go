// Package logging configures the structured logger shared by the lossy
// and lossless cores. It pairs zap with a lumberjack-backed file sink,
// the same rotation pairing used for file logging throughout the example
// pack's command-line tools (see e.g. cmd/looper, cmd/speaker).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log rotation and verbosity for New.
type Config struct {
	// Path is the log file path. Empty disables file logging; New then
	// returns a no-op logger suitable for library callers that never set
	// one up explicitly.
	Path string

	// MaxSizeMB is the maximum size in megabytes of the log file before
	// it gets rotated.
	MaxSizeMB int

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int

	// MaxAgeDays is the maximum number of days to retain old log files.
	MaxAgeDays int

	// Debug enables debug-level logging; otherwise only Info and above
	// are emitted.
	Debug bool
}

// New builds a *zap.Logger per cfg. A zero Config yields a working logger
// that discards output, matching Nop's role as the decoder/clusterer
// default when the caller supplies none.
func New(cfg Config) *zap.Logger {
	if cfg.Path == "" {
		return zap.NewNop()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	})

	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	return zap.New(core)
}

// NopIfNil returns l, or a no-op logger if l is nil. The decoder and
// clusterer accept *zap.Logger fields that default to nil; every call
// site should route through this instead of guarding every log call.
func NopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
