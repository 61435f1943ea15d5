// Package logging configures rainman2's zap loggers: human-readable
// console output plus a debug-level file sink under log/.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logDir = "log"

// Setup builds the process-wide logger. Console output is Info level
// unless verbose is set; the file sink always records Debug so an
// experiment run can be reconstructed afterwards.
func Setup(verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEnc := zapcore.NewConsoleEncoder(consoleCfg)

	fileCfg := zap.NewProductionEncoderConfig()
	fileEnc := zapcore.NewJSONEncoder(fileCfg)

	logPath := filepath.Join(logDir, "rainman2.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", logPath, err)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(fileEnc, zapcore.AddSync(f), zapcore.DebugLevel),
	)

	logger := zap.New(core)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.Logger { return zap.NewNop() }
