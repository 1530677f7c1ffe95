// Package logger provides process-wide logging for the bridge.
//
// MCP servers speak JSON-RPC on stdout, so nothing here may ever write to
// stdout. Logs go to stderr and, when configured, to a log file.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.RWMutex
	instance *zap.Logger = zap.NewNop()
)

// Config controls log destination and verbosity.
type Config struct {
	Path  string // optional log file; stderr is always included
	Level string // "debug" | "info" | "warn" | "error"
}

// Init replaces the package logger. Safe to call more than once; the previous
// logger is flushed before being swapped out.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "debug":
		level = zapcore.DebugLevel
	case "", "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return fmt.Errorf("unknown log level: %q", cfg.Level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}

	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), level))
	}

	l := zap.New(zapcore.NewTee(cores...))

	mu.Lock()
	old := instance
	instance = l
	mu.Unlock()

	_ = old.Sync()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = instance.Sync()
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Debug logs a debug message. Extra values are appended space-separated.
func Debug(msg string, extra ...any) {
	get().Debug(join(msg, extra))
}

// Info logs an informational message.
func Info(msg string, extra ...any) {
	get().Info(join(msg, extra))
}

// Warn logs a warning.
func Warn(msg string, extra ...any) {
	get().Warn(join(msg, extra))
}

// Error logs an error message. Extra values (typically an error) are appended.
func Error(msg string, extra ...any) {
	get().Error(join(msg, extra))
}

func join(msg string, extra []any) string {
	if len(extra) == 0 {
		return msg
	}
	parts := make([]string, 0, len(extra)+1)
	parts = append(parts, msg)
	for _, e := range extra {
		if e == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", e))
	}
	return strings.Join(parts, " ")
}
