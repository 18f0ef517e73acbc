// Package logging provides structured logging for the gallery client and proxy.
//
// This package wraps a global zap logger with convenience functions for the
// common patterns used throughout the repository: outgoing gateway calls and
// requests forwarded by the local proxy.
//
// # Log Levels
//
//   - Debug: Gateway requests and responses (with a capped body preview)
//   - Info: Proxied requests, server lifecycle
//   - Warn: Malformed listing responses, dropped websocket subscribers
//   - Error: Startup failures, upstream proxy errors
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// GALLERY_LOG_LEVEL environment variable:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The interactive gallery owns the terminal, so it calls InitializeWithOutput
// with a file path rather than writing to stderr.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
package logging
