// Package logging provides structured logging for the furnace panel.
//
// This package wraps zap with convenience functions for the logging
// patterns the panel uses. Logging is silent by default so the TUI and CLI
// output stay clean; set FURNACE_PANEL_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: per-cycle detail (poll ticks, skipped ticks, stale discards)
//   - Info: normal operations (saves, connection changes)
//   - Warn: non-fatal issues (module load failures, save failures)
//   - Error: fatal issues (startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("config saved",
//	    zap.String("module", "blower"),
//	    zap.Duration("duration", elapsed),
//	)
//
// # Domain helpers
//
// The package provides helpers for the panel's recurring events:
//
//	logging.LogPollCycle(generation, elapsed, err)
//	logging.LogModuleLoad("blower", len(schema.Fields), err)
//	logging.LogSave("blower", elapsed, err)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
