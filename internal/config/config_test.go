package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/panapi"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux-specific")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg-test", "fwfleet") {
		t.Errorf("GetConfigDir() = %v", configDir)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %v, want %v", cfg.Version, CurrentVersion)
	}
	if cfg.Manager.Timeout != panapi.DefaultTimeout {
		t.Errorf("Manager.Timeout = %v, want %v", cfg.Manager.Timeout, panapi.DefaultTimeout)
	}
	if cfg.Dispatch.Concurrency != 8 {
		t.Errorf("Dispatch.Concurrency = %v, want 8", cfg.Dispatch.Concurrency)
	}
	if cfg.Dispatch.PollInterval != 5*time.Second {
		t.Errorf("Dispatch.PollInterval = %v, want 5s", cfg.Dispatch.PollInterval)
	}
	if cfg.Dispatch.MaxPolls != 0 {
		t.Errorf("Dispatch.MaxPolls = %v, want 0 (unbounded)", cfg.Dispatch.MaxPolls)
	}
	if cfg.Devices == nil {
		t.Error("Devices should not be nil")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Manager.Username != "admin" {
		t.Errorf("Manager.Username = %v, want admin", cfg.Manager.Username)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := NewConfig()
	cfg.Manager.Address = "panorama.example.com"
	cfg.Manager.Username = "automation"
	cfg.Manager.Timeout = 45 * time.Second
	cfg.Dispatch.MaxPolls = 120
	cfg.ErrorRules = []ErrorRuleConfig{{Match: "session expired", Type: "auth"}}
	cfg.RecordDevices([]fleet.Device{{Serial: "007051000000001", Hostname: "fw-alpha"}})

	if err := cfg.Save(""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path, _ := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "password:") {
		t.Error("config file must never contain a password field")
	}
	if !strings.Contains(string(data), "timeout: 45s") {
		t.Errorf("durations should be stored as strings:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Manager.Address != "panorama.example.com" || loaded.Manager.Username != "automation" {
		t.Errorf("Manager = %+v", loaded.Manager)
	}
	if loaded.Manager.Timeout != 45*time.Second {
		t.Errorf("Manager.Timeout = %v", loaded.Manager.Timeout)
	}
	if loaded.TrackerOptions().MaxPolls != 120 {
		t.Errorf("TrackerOptions() = %+v", loaded.TrackerOptions())
	}
	if meta := loaded.GetDevice("007051000000001"); meta == nil || meta.Hostname != "fw-alpha" {
		t.Errorf("GetDevice() = %+v", meta)
	}

	rules, err := loaded.Rules()
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(rules) != 2 || rules[1].Type != panapi.ErrTypeAuth {
		t.Errorf("Rules() = %+v", rules)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad version", "version: 7\n", "unsupported config version"},
		{"bad rule type", "version: 1\nerror_rules:\n  - match: x\n    type: fatal\n", "unknown error type"},
		{"empty match", "version: 1\nerror_rules:\n  - type: auth\n", "match is required"},
		{"bad level", "version: 1\nlogging:\n  level: loud\n", "invalid log level"},
		{"not yaml", "version: [1", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("manager:\n  address: 10.0.0.5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Manager.Address != "10.0.0.5" || cfg.Manager.Timeout != panapi.DefaultTimeout {
		t.Errorf("Manager = %+v", cfg.Manager)
	}
	if cfg.Dispatch == nil || cfg.Dispatch.Concurrency != 8 {
		t.Errorf("Dispatch = %+v", cfg.Dispatch)
	}
}

func TestKnownAndStaleDevices(t *testing.T) {
	cfg := NewConfig()
	cfg.RecordDevices([]fleet.Device{
		{Serial: "007051000000002", Hostname: "fw-bravo"},
		{Serial: "007051000000001", Hostname: "fw-alpha"},
	})
	cfg.Devices["007051000000009"] = &DeviceMeta{Hostname: "fw-old", LastSeen: time.Now().Add(-48 * time.Hour)}

	known := cfg.KnownDevices()
	if len(known) != 3 || known[0].Hostname != "fw-alpha" {
		t.Errorf("KnownDevices() = %v", known)
	}

	stale := cfg.StaleDevices(24 * time.Hour)
	if len(stale) != 1 || stale[0] != "007051000000009" {
		t.Errorf("StaleDevices() = %v", stale)
	}
}

func TestLoggingOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging = &LoggingConfig{Level: "debug", File: "/var/log/fwfleet.log"}
	cfg.applyDefaults()

	opts := cfg.LoggingOptions()
	if opts.Level != "debug" || opts.File != "/var/log/fwfleet.log" || opts.MaxSizeMB != 10 || opts.MaxBackups != 3 {
		t.Errorf("LoggingOptions() = %+v", opts)
	}
}
