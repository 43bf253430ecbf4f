// Package ui provides terminal UI components for the fwfleet CLI.
//
// Output follows a "print as it happens" pattern: a command header, one
// colored line per outcome event, and a closing summary box. Lipgloss does
// the styling; the --watch mode swaps the event lines for a Bubble Tea job
// board with a progress bar per device.
//
// # Components
//
//   - Header: command banner showing operation name and parameters
//   - RenderEvent: one timestamped line per outcome
//   - Result: success/failure/warning boxes, with troubleshooting tips
//   - Tables: devices, software versions, catalog operations
//   - JobBoard / WatchModel: live per-device job progress
//   - ConfirmDangerousOperation: typed confirmation before reboots
//   - ReadPassword: FWFLEET_PASSWORD or a hidden prompt
//
// # Logging Integration
//
// zap logging is silent unless FWFLEET_LOG_LEVEL is set, so the styled
// output is displayed cleanly. Console logs go to stderr.
package ui
