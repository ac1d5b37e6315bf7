package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mattjoyce/debugbridge/internal/config"
	"github.com/mattjoyce/debugbridge/internal/scriptstore"
	"github.com/mattjoyce/debugbridge/internal/storage"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	stdoutCh := make(chan []byte, 1)
	stderrCh := make(chan []byte, 1)
	go func() { b, _ := io.ReadAll(stdoutR); stdoutCh <- b }()
	go func() { b, _ := io.ReadAll(stderrR); stderrCh <- b }()

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes := <-stdoutCh
	stderrBytes := <-stderrCh

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit
	origBuildDate := buildDate

	version = v
	gitCommit = commit
	buildDate = built

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
		buildDate = origBuildDate
	})
}

// writeTestConfig writes a config rooted in a temp dir and returns its path
// and directory.
func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configYAML := `
service:
  log_level: info
  lock_path: ` + filepath.Join(tmpDir, "debugbridge.lock") + `
debugger:
  target: ws://127.0.0.1:5858/backend
live_edit:
  save: true
  history_path: ` + filepath.Join(tmpDir, "live_edit.db") + `
` + extra
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, tmpDir
}

func TestPrintUsageUsesActionTerminology(t *testing.T) {
	_, stdout, _ := captureOutputWithExitCode(t, func() int {
		printUsage()
		return 0
	})
	if !strings.Contains(stdout, "debugbridge <noun> <action> [flags]") {
		t.Fatalf("usage missing action terminology: %s", stdout)
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"frobnicate"})
	})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Fatalf("stderr missing unknown command: %s", stderr)
	}
}

func TestRunNounActionHelp(t *testing.T) {
	tests := []struct {
		name string
		run  func() int
		want string
	}{
		{"system start", func() int { return runSystemNoun([]string{"start", "--help"}) }, "Usage: debugbridge system start"},
		{"system status", func() int { return runSystemNoun([]string{"status", "-h"}) }, "Usage: debugbridge system status"},
		{"system monitor", func() int { return runSystemNoun([]string{"monitor", "--help"}) }, "Usage: debugbridge system monitor"},
		{"config check", func() int { return runConfigNoun([]string{"check", "--help"}) }, "Usage: debugbridge config check"},
		{"config lock", func() int { return runConfigNoun([]string{"lock", "--help"}) }, "Usage: debugbridge config lock"},
		{"config show", func() int { return runConfigNoun([]string{"show", "--help"}) }, "Usage: debugbridge config show"},
		{"history inspect", func() int { return runHistoryNoun([]string{"inspect", "--help"}) }, "Usage: debugbridge history inspect"},
		{"config noun", func() int { return runConfigNoun([]string{"--help"}) }, "Usage: debugbridge config <action>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := captureOutputWithExitCode(t, tt.run)
			if code != 0 {
				t.Fatalf("code = %d, stderr: %s", code, stderr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Fatalf("stdout missing %q: %s", tt.want, stdout)
			}
		})
	}
}

func TestRunNounWithoutActionFails(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runSystemNoun(nil)
	})
	if code != 1 || !strings.Contains(stderr, "Actions: start, status, monitor") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}
}

func TestRunCLIRootVersionFlag(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc1234567890", "2026-02-12T11:30:00Z")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"--version"})
	})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "debugbridge 1.2.3") {
		t.Fatalf("stdout missing semantic version: %s", stdout)
	}
	if !strings.Contains(stdout, "commit: abc123456789") {
		t.Fatalf("stdout missing short commit: %s", stdout)
	}
	if !strings.Contains(stdout, "built_at: 2026-02-12T11:30:00Z") {
		t.Fatalf("stdout missing build time: %s", stdout)
	}
}

func TestRunVersionJSONOutputIncludesMetadata(t *testing.T) {
	setVersionMetadataForTest(t, "2.0.0-rc.1", "aabbccddeeff001122334455", "2026-02-12T11:30:00-05:00")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	if code != 0 {
		t.Fatalf("runVersion() code = %d, stderr: %s", code, stderr)
	}

	var out versionInfo
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse version JSON: %v\noutput=%s", err, stdout)
	}
	if out.Version != "2.0.0-rc.1" {
		t.Fatalf("version = %q, want %q", out.Version, "2.0.0-rc.1")
	}
	if out.Commit != "aabbccddeeff" {
		t.Fatalf("commit = %q, want %q", out.Commit, "aabbccddeeff")
	}
	if out.BuildTime != "2026-02-12T16:30:00Z" {
		t.Fatalf("build_time = %q, want %q", out.BuildTime, "2026-02-12T16:30:00Z")
	}
}

func TestRunVersionRejectsArgs(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"extra"})
	})
	if code != 1 || !strings.Contains(stderr, "Usage: debugbridge version") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}
}

func TestRunConfigCheck(t *testing.T) {
	configPath, _ := writeTestConfig(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigCheck() code = %d, stdout=%s stderr=%s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Configuration valid") {
		t.Fatalf("unexpected output: %s", stdout)
	}
}

func TestRunConfigCheckStrictWarnings(t *testing.T) {
	configPath, _ := writeTestConfig(t, "frontend:\n  listen: 0.0.0.0:9229\n")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath, "--strict", "--json"})
	})
	if code != 2 {
		t.Fatalf("runConfigCheck() code = %d, want 2; stdout=%s", code, stdout)
	}
	var result struct {
		Valid    bool `json:"valid"`
		Warnings []struct {
			Field string `json:"field"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parse: %v\n%s", err, stdout)
	}
	if !result.Valid || len(result.Warnings) == 0 || result.Warnings[0].Field != "frontend.api_key" {
		t.Fatalf("unexpected result: %s", stdout)
	}
}

func TestRunConfigCheckLoadFailure(t *testing.T) {
	configPath, _ := writeTestConfig(t, "debugger:\n  target: http://nope\n")

	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 1 || !strings.Contains(stderr, "Config load error") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}
}

func TestRunConfigLockWritesChecksums(t *testing.T) {
	configPath, tmpDir := writeTestConfig(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath, "-v"})
	})
	if code != 0 {
		t.Fatalf("runConfigLock() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "WROTE .checksums") || !strings.Contains(stdout, "config.yaml") {
		t.Fatalf("unexpected output: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); err != nil {
		t.Fatalf(".checksums not written: %v", err)
	}

	if _, err := config.Load(configPath); err != nil {
		t.Fatalf("Load after lock: %v", err)
	}

	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("# tampered\n")
	_ = f.Close()

	if _, err := config.Load(configPath); err == nil {
		t.Fatal("expected verification failure after edit")
	}
}

func TestRunConfigShowMasksAPIKey(t *testing.T) {
	configPath, _ := writeTestConfig(t, "frontend:\n  api_key: super-secret\n")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigShow([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigShow() code = %d, stderr: %s", code, stderr)
	}
	if strings.Contains(stdout, "super-secret") {
		t.Fatalf("api key leaked: %s", stdout)
	}
	if !strings.Contains(stdout, "api_key: '********'") && !strings.Contains(stdout, `api_key: "********"`) {
		t.Fatalf("masked key missing: %s", stdout)
	}
	if !strings.Contains(stdout, "# fingerprint: ") || !strings.Contains(stdout, "target: ws://127.0.0.1:5858/backend") {
		t.Fatalf("unexpected output: %s", stdout)
	}
}

func TestRunSystemStatusJSONHealthy(t *testing.T) {
	configPath, _ := writeTestConfig(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath, "--json"})
	})
	if code != 0 {
		t.Fatalf("runSystemStatus() code = %d, stdout=%s stderr: %s", code, stdout, stderr)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON status output: %v\noutput=%s", err, stdout)
	}
	if !report.Healthy {
		t.Fatalf("expected healthy=true, got false; output=%s", stdout)
	}
	if len(report.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(report.Checks))
	}
}

func TestRunSystemStatusConfigLoadFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath})
	})
	if code == 0 {
		t.Fatalf("runSystemStatus() should fail for invalid config; stdout=%s", stdout)
	}
	if !strings.Contains(stdout, "config_load: FAIL") {
		t.Fatalf("expected config_load failure in output; stdout=%s", stdout)
	}
	if !strings.Contains(stdout, "history_db: FAIL") || !strings.Contains(stdout, "pid_lock: FAIL") {
		t.Fatalf("expected dependent checks to fail when config load fails; stdout=%s", stdout)
	}
}

func TestRunSystemStatusDetectsActivePIDLock(t *testing.T) {
	configPath, tmpDir := writeTestConfig(t, "")
	lockPath := filepath.Join(tmpDir, "debugbridge.lock")
	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath, "--json"})
	})
	if code == 0 {
		t.Fatalf("runSystemStatus() should fail when active pid lock exists; stderr=%s stdout=%s", stderr, stdout)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON status output: %v\noutput=%s", err, stdout)
	}
	if report.Healthy {
		t.Fatalf("expected healthy=false when active lock exists; output=%s", stdout)
	}

	found := false
	for _, c := range report.Checks {
		if c.Name != "pid_lock" {
			continue
		}
		found = true
		if c.OK {
			t.Fatalf("expected pid_lock check to fail; output=%s", stdout)
		}
		if c.ActivePID != os.Getpid() {
			t.Fatalf("expected active_pid=%d, got %d", os.Getpid(), c.ActivePID)
		}
	}
	if !found {
		t.Fatalf("pid_lock check missing; output=%s", stdout)
	}
}

func TestRunHistoryInspect(t *testing.T) {
	configPath, tmpDir := writeTestConfig(t, "")
	scriptPath := filepath.Join(tmpDir, "app.js")

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(tmpDir, "live_edit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := scriptstore.New(db).Save(context.Background(), 4, scriptPath, "var x = 1;\n"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = db.Close()

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runHistoryNoun([]string{"inspect", scriptPath, "--config", configPath})
	})
	if code != 0 {
		t.Fatalf("history inspect code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Edits       : 1") || !strings.Contains(stdout, "script_id : 4") {
		t.Fatalf("unexpected report: %s", stdout)
	}

	code, stdout, stderr = captureOutputWithExitCode(t, func() int {
		return runHistoryInspect([]string{"--config", configPath, "--json", scriptPath})
	})
	if code != 0 {
		t.Fatalf("history inspect --json code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"drifted": false`) {
		t.Fatalf("unexpected json: %s", stdout)
	}
}

func TestRunHistoryInspectRequiresPath(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runHistoryInspect(nil)
	})
	if code != 1 || !strings.Contains(stderr, "Usage: debugbridge history inspect") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}
}

func TestRunStartFailsOnBadConfig(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runStart([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	})
	if code != 1 || !strings.Contains(stderr, "Failed to load config") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}
}
