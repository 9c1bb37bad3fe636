// Package logging provides structured logging for the ethosensor daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. CLI commands stay silent unless the
// ETHOSENSOR_LOG_LEVEL environment variable (or an explicit level) is set.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (storage commits, poll results)
//   - Info: Normal operations (boot sequence, HTTP requests, config changes)
//   - Warn: Non-fatal issues (validation failures, sensor poll errors)
//   - Error: Fatal issues (startup failures, backend errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Configuration loaded",
//	    zap.String("name", cfg.Name),
//	    zap.String("location", cfg.Location),
//	)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
