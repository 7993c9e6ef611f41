// Package logging provides structured logging utilities for commodore
// components.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, environment-based log level configuration (LOG_LEVEL),
// module/version context injection, and source location tracking for debug
// logs.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("commodore", version)
//
//	    slog.Info("compiling catalog", "cluster", clusterID)
//	}
//
// Setting an explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("commodored", version, "debug")
//
// If LOG_LEVEL is not set and no explicit level is given, the level defaults
// to INFO. All logs are written to stderr in JSON format with "module" and
// "version" attributes attached.
package logging
