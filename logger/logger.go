// Package logger wraps zap for structured logging.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	log     *zap.Logger
	logFile = "duckhttp.log" // Default log file
	verbose bool
)

// SetLogPath overrides the log file destination. It only affects loggers
// initialized afterwards.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logFile = path
}

// SetVerbose lowers the log level to debug for loggers initialized
// afterwards.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// InitLogger initializes the Zap logger with structured logging.
func InitLogger() {
	mu.Lock()
	defer mu.Unlock()
	initLocked()
}

func initLocked() {
	if log != nil {
		return
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	var cores []zapcore.Core

	// Configure file logging
	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
	}

	// Console logging goes to stderr so it never mixes with query output.
	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level))

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	initLocked()
	return log
}

// ResetLogger discards the current logger so the next call to InitLogger
// or GetLogger builds a fresh one. Mainly useful in tests.
func ResetLogger() {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		_ = log.Sync()
	}
	log = nil
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		_ = log.Sync()
	}
}
