package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winnow/internal/classify"
	"winnow/internal/daemon"
	"winnow/internal/logging"
	"winnow/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[classifier]
backend = "mock"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestCLITopicsCommands(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "topics", "list")
	if err != nil {
		t.Fatalf("topics list: %v", err)
	}
	if !strings.Contains(out, "No excluded topics") {
		t.Fatalf("expected empty-list message, got %q", out)
	}

	if _, err := runCLI(t, configPath, "topics", "add", "cricket"); err != nil {
		t.Fatalf("topics add: %v", err)
	}
	if _, err := runCLI(t, configPath, "topics", "add", "CRICKET"); err == nil {
		t.Fatal("expected duplicate add to fail")
	}

	if _, err := runCLI(t, configPath, "topics", "edit", "cricket", "golf"); err != nil {
		t.Fatalf("topics edit: %v", err)
	}
	out, err = runCLI(t, configPath, "topics", "list")
	if err != nil {
		t.Fatalf("topics list: %v", err)
	}
	if !strings.Contains(out, "golf") || strings.Contains(out, "cricket") {
		t.Fatalf("unexpected topics after edit: %q", out)
	}

	if _, err := runCLI(t, configPath, "topics", "remove", "golf"); err != nil {
		t.Fatalf("topics remove: %v", err)
	}
	if _, err := runCLI(t, configPath, "topics", "remove", "golf"); err == nil {
		t.Fatal("expected removing a missing topic to fail")
	}
}

func TestCLIFilterCommand(t *testing.T) {
	configPath := writeTestConfig(t)

	snapshot := filepath.Join(t.TempDir(), "feed.html")
	html := `<html><body>` +
		`<ytd-rich-item-renderer><a id="video-title">India wins World Cup</a><ytd-channel-name>ESPN Cricket</ytd-channel-name></ytd-rich-item-renderer>` +
		`<ytd-rich-item-renderer><a id="video-title">Best Pasta Recipe</a><ytd-channel-name>ChefTube</ytd-channel-name></ytd-rich-item-renderer>` +
		`</body></html>`
	if err := os.WriteFile(snapshot, []byte(html), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	patched := filepath.Join(t.TempDir(), "patched.html")
	out, err := runCLI(t, configPath, "filter", snapshot, "--topic", "cricket", "--output", patched)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !strings.Contains(out, "suppress") || !strings.Contains(out, "show") {
		t.Fatalf("expected mixed decisions in output, got %q", out)
	}
	if !strings.Contains(out, "India wins World Cup - ESPN Cricket") {
		t.Fatalf("expected tile context in output, got %q", out)
	}

	written, err := os.ReadFile(patched)
	if err != nil {
		t.Fatalf("read patched snapshot: %v", err)
	}
	if !strings.Contains(string(written), "winnow-suppressed") {
		t.Fatal("patched snapshot missing suppression markup")
	}
}

func TestCLIFilterUsesStoredTopics(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "topics", "add", "pasta"); err != nil {
		t.Fatalf("topics add: %v", err)
	}

	snapshot := filepath.Join(t.TempDir(), "feed.html")
	html := `<html><body><ytd-rich-item-renderer><a id="video-title">Best Pasta Recipe</a></ytd-rich-item-renderer></body></html>`
	if err := os.WriteFile(snapshot, []byte(html), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	out, err := runCLI(t, configPath, "filter", snapshot)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !strings.Contains(out, "suppress") {
		t.Fatalf("expected stored topic to suppress, got %q", out)
	}
}

func TestCLIStatusCommand(t *testing.T) {
	configPath := writeTestConfig(t)

	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	d, err := daemon.New(cfg, store, classify.Substring{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	out, err := runCLI(t, configPath, "status", "--address", d.APIAddr())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "yes") {
		t.Fatalf("expected running daemon, got %q", out)
	}
}

func TestCLIStatusWithoutDaemon(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "status", "--address", "127.0.0.1:1"); err == nil {
		t.Fatal("expected status to fail without a daemon")
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
	if !strings.Contains(stdout.String(), "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", stdout.String())
	}

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected init without --overwrite to fail on existing file")
	}
}
