// Package logging configures the application logger. Each run writes a full
// debug log to its own file under <data-dir>/logs, while the console only
// shows info and above (debug with --verbose).
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// L returns the process-wide logger. Before Setup it is a nop logger, so
// packages may log unconditionally.
func L() *zap.Logger { return logger }

// Setup initializes the logger. A per-run log file is created under
// dataDir/logs; console output goes to stderr.
func Setup(dataDir string, verbose bool) (*zap.Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = "" // console lines stay short
	consoleEnc := zapcore.NewConsoleEncoder(consoleCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), consoleLevel),
	}

	logsDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	logPath := filepath.Join(logsDir, fmt.Sprintf("tutor_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileEnc := zapcore.NewJSONEncoder(fileCfg)
	cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), zapcore.DebugLevel))

	logger = zap.New(zapcore.NewTee(cores...))
	logger.Debug("logger initialized", zap.String("file", logPath))
	return logger, nil
}

// Sync flushes buffered log entries. Safe to call on the nop logger.
func Sync() {
	_ = logger.Sync()
}
