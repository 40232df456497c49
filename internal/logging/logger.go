package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output) so the panel's TUI
// and CLI output stay clean.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "FURNACE_PANEL_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks FURNACE_PANEL_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	// If no level provided, check environment variable
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Customize encoder for better readability
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the FURNACE_PANEL_LOG_LEVEL
// environment variable. This is the recommended way to initialize logging
// for commands that want silent mode by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		// This ensures no unexpected log output in CLI commands
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogPollCycle logs the outcome of one state poll cycle.
func LogPollCycle(generation uint64, duration time.Duration, err error) {
	if err != nil {
		Debug("poll cycle failed",
			zap.Uint64("generation", generation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	Debug("poll cycle completed",
		zap.Uint64("generation", generation),
		zap.Duration("duration", duration),
	)
}

// LogModuleLoad logs the outcome of a config module load.
func LogModuleLoad(moduleID string, fieldCount int, err error) {
	if err != nil {
		Warn("module config load failed",
			zap.String("module", moduleID),
			zap.Error(err),
		)
		return
	}
	Debug("module config loaded",
		zap.String("module", moduleID),
		zap.Int("fields", fieldCount),
	)
}

// LogSave logs a configuration save round-trip.
func LogSave(moduleID string, duration time.Duration, err error) {
	if err != nil {
		Warn("config save failed",
			zap.String("module", moduleID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	Info("config saved",
		zap.String("module", moduleID),
		zap.Duration("duration", duration),
	)
}
