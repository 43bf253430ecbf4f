package config

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/muurk/fwfleet/internal/dispatch"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/jobs"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/panapi"
)

// CurrentVersion is the config file schema version
const CurrentVersion = 1

// Config represents the entire user configuration file.
type Config struct {
	Version    int                    `yaml:"version"`
	Manager    *ManagerConfig         `yaml:"manager,omitempty"`
	Dispatch   *DispatchConfig        `yaml:"dispatch,omitempty"`
	Logging    *LoggingConfig         `yaml:"logging,omitempty"`
	ErrorRules []ErrorRuleConfig      `yaml:"error_rules,omitempty"`
	Devices    map[string]*DeviceMeta `yaml:"devices,omitempty"` // Keyed by device serial number
}

// ManagerConfig identifies the management server.
// Note: Passwords are NEVER stored - they come from FWFLEET_PASSWORD or a prompt.
type ManagerConfig struct {
	Address  string        `yaml:"address"`           // Host, host:port or URL of the manager
	Username string        `yaml:"username"`          // API user
	Timeout  time.Duration `yaml:"timeout,omitempty"` // Per-request timeout (e.g., "30s")
}

// DispatchConfig tunes the dispatch engine and job trackers.
type DispatchConfig struct {
	Concurrency  int           `yaml:"concurrency"`         // Parallel dispatch requests
	PollInterval time.Duration `yaml:"poll_interval"`       // Delay between job status queries
	MaxPolls     int           `yaml:"max_polls,omitempty"` // 0 = poll until a final status
}

// LoggingConfig configures the zap logger and its optional log file.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`        // debug, info, warn, error; empty = silent
	File       string `yaml:"file,omitempty"`         // Rotated JSON log file
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`  // Rotate after this many megabytes
	MaxBackups int    `yaml:"max_backups,omitempty"`  // Rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days,omitempty"` // Days to keep rotated files
	Compress   bool   `yaml:"compress,omitempty"`     // Gzip rotated files
}

// ErrorRuleConfig maps a substring of a manager error message to an error
// kind ("auth" or "api").
type ErrorRuleConfig struct {
	Match string `yaml:"match"`
	Type  string `yaml:"type"`
}

// DeviceMeta is the last known state of a device, recorded whenever the
// connected-device list is fetched.
type DeviceMeta struct {
	Hostname string    `yaml:"hostname"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills sections missing from a loaded file
func (c *Config) applyDefaults() {
	if c.Manager == nil {
		c.Manager = &ManagerConfig{}
	}
	if c.Manager.Username == "" {
		c.Manager.Username = "admin"
	}
	if c.Manager.Timeout <= 0 {
		c.Manager.Timeout = panapi.DefaultTimeout
	}

	if c.Dispatch == nil {
		c.Dispatch = &DispatchConfig{}
	}
	if c.Dispatch.Concurrency <= 0 {
		c.Dispatch.Concurrency = dispatch.DefaultConcurrency
	}
	if c.Dispatch.PollInterval <= 0 {
		c.Dispatch.PollInterval = jobs.DefaultPollInterval
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 10
		}
		if c.Logging.MaxBackups <= 0 {
			c.Logging.MaxBackups = 3
		}
	}

	if c.Devices == nil {
		c.Devices = make(map[string]*DeviceMeta)
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	var errs error
	if c.Version != CurrentVersion {
		errs = multierr.Append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.Dispatch != nil && c.Dispatch.MaxPolls < 0 {
		errs = multierr.Append(errs, fmt.Errorf("dispatch.max_polls must not be negative"))
	}
	if c.Logging != nil && c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	if _, err := c.Rules(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Rules returns the classifier rules: the built-in rules followed by the
// configured ones.
func (c *Config) Rules() ([]panapi.ErrorRule, error) {
	rules := panapi.DefaultRules()

	var errs error
	for i, rc := range c.ErrorRules {
		if rc.Match == "" {
			errs = multierr.Append(errs, fmt.Errorf("error_rules[%d]: match is required", i))
			continue
		}
		typ, err := panapi.ParseErrorType(rc.Type)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("error_rules[%d]: %w", i, err))
			continue
		}
		rules = append(rules, panapi.ErrorRule{Match: rc.Match, Type: typ})
	}
	return rules, errs
}

// TrackerOptions returns the job polling options
func (c *Config) TrackerOptions() jobs.Options {
	if c.Dispatch == nil {
		return jobs.Options{}
	}
	return jobs.Options{
		Interval: c.Dispatch.PollInterval,
		MaxPolls: c.Dispatch.MaxPolls,
	}
}

// LoggingOptions returns the logger options
func (c *Config) LoggingOptions() logging.Options {
	if c.Logging == nil {
		return logging.Options{}
	}
	return logging.Options{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

// GetDevice retrieves device metadata by serial number.
// Returns nil if the device is unknown.
func (c *Config) GetDevice(serial string) *DeviceMeta {
	return c.Devices[serial]
}

// RecordDevices stores the hostnames of a freshly fetched device list.
func (c *Config) RecordDevices(devices []fleet.Device) {
	if c.Devices == nil {
		c.Devices = make(map[string]*DeviceMeta)
	}

	now := time.Now()
	for _, d := range devices {
		c.Devices[d.Serial] = &DeviceMeta{
			Hostname: d.Hostname,
			LastSeen: now,
		}
	}
}

// KnownDevices returns the recorded devices, sorted by hostname then serial.
func (c *Config) KnownDevices() []fleet.Device {
	devices := make([]fleet.Device, 0, len(c.Devices))
	for serial, meta := range c.Devices {
		hostname := ""
		if meta != nil {
			hostname = meta.Hostname
		}
		devices = append(devices, fleet.Device{Serial: serial, Hostname: hostname})
	}
	fleet.SortDevices(devices)
	return devices
}

// StaleDevices returns serials not seen within maxAge, sorted
func (c *Config) StaleDevices(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)

	var stale []string
	for serial, meta := range c.Devices {
		if meta == nil || meta.LastSeen.Before(cutoff) {
			stale = append(stale, serial)
		}
	}
	sort.Strings(stale)
	return stale
}
