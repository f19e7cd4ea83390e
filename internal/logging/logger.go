package logging

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalLogger is set by Init or, on first use without Init, by a
// production fallback. It is safe to read from any goroutine.
var globalLogger atomic.Pointer[zap.SugaredLogger]

// Init initializes the global logger with JSON output
func Init(appEnv string) error {
	var config zap.Config

	if appEnv == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Encoding = "json"

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalLogger.Store(logger.Sugar())
	return nil
}

// GetLogger returns the global SugaredLogger for structured logging
func GetLogger() *zap.SugaredLogger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	// Fallback logger if Init wasn't called (tests, tools)
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	globalLogger.CompareAndSwap(nil, logger.Sugar())
	return globalLogger.Load()
}

// Close flushes any buffered logs
func Close() error {
	if l := globalLogger.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

// Info logs an info message with optional key/value fields
func Info(message string, fields ...interface{}) {
	GetLogger().Infow(message, fields...)
}

// Debug logs a debug message with optional key/value fields
func Debug(message string, fields ...interface{}) {
	GetLogger().Debugw(message, fields...)
}

// Warn logs a warning message with optional key/value fields
func Warn(message string, fields ...interface{}) {
	GetLogger().Warnw(message, fields...)
}

// Error logs an error message with optional key/value fields
func Error(message string, fields ...interface{}) {
	GetLogger().Errorw(message, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(message string, fields ...interface{}) {
	GetLogger().Fatalw(message, fields...)
	os.Exit(1)
}

// WithRequest creates a logger with request context fields
func WithRequest(requestID string, userID string, endpoint string) *zap.SugaredLogger {
	return GetLogger().With(
		"request_id", requestID,
		"user_id", userID,
		"endpoint", endpoint,
	)
}

// Module returns a logger tagged with the component name.
func Module(name string) *zap.SugaredLogger {
	return GetLogger().With("module", name)
}
