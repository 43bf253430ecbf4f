package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/fwfleet/internal/config"
	"github.com/muurk/fwfleet/internal/ui"
)

const testDevicesResponse = `<response status="success"><result><devices>
  <entry name="007051000000001"><serial>007051000000001</serial><hostname>fw-alpha</hostname></entry>
  <entry name="007051000000002"><serial>007051000000002</serial><hostname>fw-bravo</hostname></entry>
</devices></result></response>`

const testVersionsResponse = `<response status="success"><result><sw-updates><versions>
  <entry><version>11.1.2</version><downloaded>no</downloaded><current>no</current><latest>yes</latest></entry>
  <entry><version>10.2.3</version><downloaded>yes</downloaded><current>yes</current><latest>no</latest></entry>
</versions></sw-updates></result></response>`

const (
	testJobEnqueued = `<response status="success"><result><msg><line>Download job enqueued with jobid 42</line></msg><job>42</job></result></response>`
	testJobFinished = `<response status="success"><result><job><id>42</id><status>FIN</status><result>OK</result><progress>100</progress></job></result></response>`
)

// testManager is a TLS manager that answers the device list, the software
// check, download, show job and reboot commands, and records every command
type testManager struct {
	*httptest.Server

	mu       sync.Mutex
	commands []string
}

// newTestManager starts a manager. Reboots for failSerial are rejected with
// an API error.
func newTestManager(t *testing.T, failSerial string) *testManager {
	t.Helper()

	m := &testManager{}
	m.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			_, _ = w.Write([]byte(`<response status="error"><msg>Authentication failed</msg></response>`))
			return
		}

		cmd := r.URL.Query().Get("cmd")
		m.mu.Lock()
		m.commands = append(m.commands, cmd)
		m.mu.Unlock()

		switch {
		case strings.Contains(cmd, "<devices><connected>"):
			_, _ = w.Write([]byte(testDevicesResponse))
		case strings.Contains(cmd, "<software><check>"):
			_, _ = w.Write([]byte(testVersionsResponse))
		case strings.Contains(cmd, "<software><download>"):
			_, _ = w.Write([]byte(testJobEnqueued))
		case strings.Contains(cmd, "<show><jobs>"):
			_, _ = w.Write([]byte(testJobFinished))
		case strings.Contains(cmd, "<restart>"):
			if r.URL.Query().Get("target") == failSerial {
				_, _ = w.Write([]byte(`<response status="error"><msg><line>device is busy</line></msg></response>`))
				return
			}
			_, _ = w.Write([]byte(`<response status="success"><result>Command succeeded</result></response>`))
		default:
			_, _ = w.Write([]byte(`<response status="error"><msg>unexpected command</msg></response>`))
		}
	}))
	t.Cleanup(m.Close)
	return m
}

// sent counts the recorded commands containing fragment
func (m *testManager) sent(fragment string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, cmd := range m.commands {
		if strings.Contains(cmd, fragment) {
			n++
		}
	}
	return n
}

// writeTestConfig writes a config with fast job polling
func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "version: 1\ndispatch:\n  concurrency: 4\n  poll_interval: 10ms\n  max_polls: 20\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmdWithOptions(&globalOptions{
		stdin:  os.Stdin,
		stdout: &stdout,
		stderr: &stderr,
	})
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String() + stderr.String(), err
}

func TestDevicesCommand(t *testing.T) {
	t.Setenv(ui.PasswordEnvVar, "secret")
	srv := newTestManager(t, "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, "--config", configPath, "--manager", srv.URL, "devices")
	if err != nil {
		t.Fatalf("devices error = %v\n%s", err, out)
	}

	for _, want := range []string{"fw-alpha", "fw-bravo", "007051000000002"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Hostnames are recorded for later commands
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.GetDevice("007051000000001"); got == nil || got.Hostname != "fw-alpha" {
		t.Errorf("recorded device = %+v, want hostname fw-alpha", got)
	}
}

func TestRebootCommand(t *testing.T) {
	t.Setenv(ui.PasswordEnvVar, "secret")
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	t.Run("all succeed", func(t *testing.T) {
		srv := newTestManager(t, "")
		out, err := runCLI(t, "--config", configPath, "--manager", srv.URL, "reboot", "--all", "--yes")
		if err != nil {
			t.Fatalf("reboot error = %v\n%s", err, out)
		}
		if !strings.Contains(out, "fw-alpha") || !strings.Contains(out, "fw-bravo") {
			t.Errorf("output should name both devices:\n%s", out)
		}
	})

	t.Run("one device fails", func(t *testing.T) {
		srv := newTestManager(t, "007051000000002")
		out, err := runCLI(t, "--config", configPath, "--manager", srv.URL,
			"reboot", "--target", "007051000000001,007051000000002", "--yes")
		if err == nil {
			t.Fatalf("reboot should report the failed device:\n%s", out)
		}
		var reported *reportedError
		if !errors.As(err, &reported) {
			t.Errorf("error = %T, want *reportedError", err)
		}
		if !strings.Contains(err.Error(), "1 of 2") {
			t.Errorf("error = %q, want it to count 1 of 2 failures", err)
		}
		if !strings.Contains(out, "device is busy") {
			t.Errorf("output missing failure reason:\n%s", out)
		}
	})

	t.Run("targets required", func(t *testing.T) {
		srv := newTestManager(t, "")
		_, err := runCLI(t, "--config", configPath, "--manager", srv.URL, "reboot", "--yes")
		if err == nil || !strings.Contains(err.Error(), "no devices selected") {
			t.Errorf("error = %v, want no devices selected", err)
		}
	})
}

func TestJobCommandRequiresVersion(t *testing.T) {
	t.Setenv(ui.PasswordEnvVar, "secret")
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCLI(t, "--config", configPath, "--manager", "127.0.0.1:1", "download", "--all")
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("error = %v, want missing --version", err)
	}
}

func TestRunCommandRejectsUnknownOperation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	for _, key := range []string{"format-disk", "job", "devices"} {
		t.Run(key, func(t *testing.T) {
			_, err := runCLI(t, "--config", configPath, "run", key, "--all")
			if err == nil || !strings.Contains(err.Error(), "unknown operation") {
				t.Errorf("error = %v, want unknown operation", err)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, "--config", configPath, "--manager", "panorama.example.com", "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	for _, want := range []string{"panorama.example.com", "admin"} {
		if !strings.Contains(out, want) {
			t.Errorf("config init output missing %q:\n%s", want, out)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Manager.Address != "panorama.example.com" {
		t.Errorf("Manager.Address = %q, want panorama.example.com", cfg.Manager.Address)
	}

	if _, err := runCLI(t, "--config", configPath, "config", "init"); err == nil {
		t.Error("config init should refuse to overwrite an existing file")
	}
	if _, err := runCLI(t, "--config", configPath, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, err = runCLI(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "panorama.example.com") {
		t.Errorf("config show output missing manager:\n%s", out)
	}
}

func TestSplitTargets(t *testing.T) {
	got := splitTargets([]string{"a,b", " c ", "", "d,,"})
	want := []string{"a", "b", "c", "d"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitTargets() = %v, want %v", got, want)
	}
}

func TestJobCommandVersionCheck(t *testing.T) {
	t.Setenv(ui.PasswordEnvVar, "secret")
	const target = "007051000000001"

	t.Run("listed version is dispatched", func(t *testing.T) {
		srv := newTestManager(t, "")
		out, err := runCLI(t, "--config", writeTestConfig(t), "--manager", srv.URL,
			"download", "--version", "10.2.3", "--target", target)
		if err != nil {
			t.Fatalf("download error = %v\n%s", err, out)
		}
		if srv.sent("<software><check>") != 1 {
			t.Errorf("software checks = %d, want 1", srv.sent("<software><check>"))
		}
		if srv.sent("<version>10.2.3</version>") != 1 {
			t.Errorf("downloads = %d, want 1", srv.sent("<version>10.2.3</version>"))
		}
		if srv.sent("<show><jobs>") == 0 {
			t.Error("the download job should be tracked")
		}
	})

	t.Run("unlisted version is rejected", func(t *testing.T) {
		srv := newTestManager(t, "")
		_, err := runCLI(t, "--config", writeTestConfig(t), "--manager", srv.URL,
			"download", "--version", "9.9.9", "--target", target)
		if err == nil || !strings.Contains(err.Error(), "is not available") {
			t.Fatalf("error = %v, want version not available", err)
		}
		if srv.sent("<software><download>") != 0 {
			t.Error("no download should be sent for an unlisted version")
		}
	})

	t.Run("skip version check", func(t *testing.T) {
		srv := newTestManager(t, "")
		out, err := runCLI(t, "--config", writeTestConfig(t), "--manager", srv.URL,
			"download", "--version", "9.9.9", "--target", target, "--skip-version-check")
		if err != nil {
			t.Fatalf("download error = %v\n%s", err, out)
		}
		if srv.sent("<software><check>") != 0 {
			t.Error("the software check should be skipped")
		}
		if srv.sent("<version>9.9.9</version>") != 1 {
			t.Errorf("downloads = %d, want 1", srv.sent("<version>9.9.9</version>"))
		}
	})
}

func TestRunCommandChecksVersion(t *testing.T) {
	t.Setenv(ui.PasswordEnvVar, "secret")
	srv := newTestManager(t, "")

	_, err := runCLI(t, "--config", writeTestConfig(t), "--manager", srv.URL,
		"run", "download", "--version", "9.9.9</version><evil/><version>1", "--target", "007051000000001")
	if err == nil || !strings.Contains(err.Error(), "is not available") {
		t.Fatalf("error = %v, want version not available", err)
	}
	if srv.sent("<software><check>") != 1 {
		t.Errorf("software checks = %d, want 1", srv.sent("<software><check>"))
	}
	if srv.sent("<software><download>") != 0 {
		t.Error("no download should be sent for an unlisted version")
	}

	out, err := runCLI(t, "--config", writeTestConfig(t), "--manager", srv.URL,
		"run", "download", "--version", "11.1.2", "--target", "007051000000001")
	if err != nil {
		t.Fatalf("run download error = %v\n%s", err, out)
	}
	if srv.sent("<version>11.1.2</version>") != 1 {
		t.Errorf("downloads = %d, want 1", srv.sent("<version>11.1.2</version>"))
	}
}
