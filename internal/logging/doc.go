// Package logging provides structured logging for fwfleet.
//
// The package wraps a global zap logger. It is silent by default so that
// command output stays clean; verbosity comes from the FWFLEET_LOG_LEVEL
// environment variable, the --log-level flag, or the config file.
//
// # Log Levels
//
//   - Debug: request/response details, job state transitions
//   - Info: dispatch runs, job outcomes
//   - Warn: indeterminate jobs, skipped devices
//   - Error: fatal command failures
//
// # Components
//
// Long-lived components take a named child logger:
//
//	log := logging.Named("dispatch")
//	log.Info("Dispatch started", zap.String("run_id", id))
//
// # File Output
//
// When Options.File is set, entries are also written as JSON to a rotating
// file (lumberjack), even when the console is silent:
//
//	logging.InitializeWithOptions(logging.Options{
//	    File:       "/var/log/fwfleet.log",
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//	defer logging.Sync()
//
// All functions are safe for concurrent use.
package logging
