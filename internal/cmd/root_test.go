package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "badgeforge" {
		t.Errorf("Expected Use 'badgeforge', got %q", cmd.Use)
	}
	if !cmd.SilenceUsage {
		t.Error("SilenceUsage should be enabled")
	}

	for _, flag := range []string{"config", "log-level"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Missing persistent flag --%s", flag)
		}
	}
	for _, flag := range []string{"dry-run", "readme"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag --%s", flag)
		}
	}

	var hasHistory bool
	for _, sub := range cmd.Commands() {
		if sub.Name() == "history" {
			hasHistory = true
		}
	}
	if !hasHistory {
		t.Error("Root command should expose the history subcommand")
	}
}

// chdir is a stand-in for testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Error(err)
		}
	})
}

func TestDryRunWithUnavailableToolchain(t *testing.T) {
	// Dry run in an empty directory: whatever the toolchain reports, nothing
	// may be written and the command must succeed.
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dry-run", "--log-level", "error"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Dry run should succeed even without tools: %v", err)
	}

	if _, err := os.Stat("badges"); !os.IsNotExist(err) {
		t.Error("Dry run must not create the badges directory")
	}
}

func TestGenerateRunWritesRecord(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	// Disable history to keep the run self-contained; tools are nonexistent
	// binaries so all signals degrade gracefully.
	confDir := filepath.Join(dir, ".badgeforge")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}
	conf := `history:
  enabled: false
tools:
  version: ["badgeforge-test-no-such-tool"]
  check: ["badgeforge-test-no-such-tool"]
  test: ["badgeforge-test-no-such-tool"]
  coverage: ["badgeforge-test-no-such-tool"]
`
	if err := os.WriteFile(filepath.Join(confDir, "config.yaml"), []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "error"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Generation run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("badges", "data.json"))
	if err != nil {
		t.Fatalf("Record not written: %v", err)
	}
	for _, want := range []string{"version-vunknown-blue", "build-failing-red", "tests-0%20tests-red", "coverage-unknown-red"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("Record missing %q:\n%s", want, data)
		}
	}
}

func TestInvalidLogLevelRejected(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dry-run", "--log-level", "loud"})

	if err := cmd.Execute(); err == nil {
		t.Error("Invalid log level should fail validation")
	}
}

func TestHistoryShowWithoutHistory(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "show"})

	if err := cmd.Execute(); err == nil {
		t.Error("history show should fail when no history exists")
	}
}
