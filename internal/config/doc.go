// Package config manages the fwfleet configuration file.
//
// The file is YAML and holds the manager address, API username, request
// timeout, dispatch and polling tuning, logging settings, extra error
// classification rules, and the last known hostname of every device seen
// on the manager. Command-line flags override file values.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/fwfleet/config.yaml or $HOME/.config/fwfleet/config.yaml
//   - macOS: $HOME/.config/fwfleet/config.yaml
//   - Windows: %LOCALAPPDATA%\fwfleet\config.yaml
//
// A different file can be selected with --config.
//
// # Security
//
// IMPORTANT: the manager password is never stored. It is read from the
// FWFLEET_PASSWORD environment variable or prompted for.
//
// # Example
//
//	version: 1
//	manager:
//	  address: panorama.example.com
//	  username: admin
//	  timeout: 30s
//	dispatch:
//	  concurrency: 8
//	  poll_interval: 5s
//	error_rules:
//	  - match: "session expired"
//	    type: auth
//
// Saves are atomic (write to a temporary file, then rename).
package config
