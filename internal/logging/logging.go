// Package logging builds the process-wide structured logger.
//
// Every subsystem takes a *zap.Logger field rather than reaching for a
// package-level logger, so tests can inject zap.NewNop() or zaptest.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// DataDir is where debug.log is written when Debug is true.
	DataDir string
	// Debug gates file-backed debug logging, mirroring the teacher's
	// OMNIGLASS_DEBUG env-var gate.
	Debug bool
	// Development switches the console encoder to a human-readable format.
	Development bool
}

// New builds a *zap.Logger. When opts.Debug is false, only a stderr core at
// Info level is installed (no file is created) — this matches the
// teacher's convention of debug.log only existing when debugging is
// explicitly requested.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	if opts.Development {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if opts.Debug && opts.DataDir != "" {
		logPath := filepath.Join(opts.DataDir, "debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open debug log at %s: %w", logPath, err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), zapcore.DebugLevel))
	}

	core := zapcore.NewTee(cores...)
	logger := zap.New(core, zap.AddCaller())
	return logger, nil
}

// CheckDebugEnv mirrors the teacher's config.CheckDebug: "true" or "1".
func CheckDebugEnv(val string) bool {
	return val == "true" || val == "1"
}
