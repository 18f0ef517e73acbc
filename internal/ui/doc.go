// Package ui provides the non-interactive terminal output used by the gallery
// CLI commands.
//
// Unlike the interactive TUI, these components follow a "print once" pattern:
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success/failure/warning boxes with details and troubleshooting
//   - Table: aligned columns for image listings and discovered proxies
//   - Confirm: a yes/no prompt before overwriting files
//
// Widths come from golang.org/x/term and fall back to MinTerminalWidth when
// stdout is not a terminal.
//
// Logging is controlled separately via GALLERY_LOG_LEVEL. When unset, zap is
// silent so this output stays clean.
package ui
