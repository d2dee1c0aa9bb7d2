package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winnow/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "winnow")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Classifier.Backend != "remote" {
		t.Fatalf("unexpected default backend: %q", cfg.Classifier.Backend)
	}
	if cfg.Filter.DisplayAction != "hide" {
		t.Fatalf("unexpected default display action: %q", cfg.Filter.DisplayAction)
	}
	if cfg.Filter.Sensitivity != 0.3 {
		t.Fatalf("unexpected default sensitivity: %v", cfg.Filter.Sensitivity)
	}
	if cfg.SettingsDBPath() != filepath.Join(wantData, "settings.db") {
		t.Fatalf("unexpected settings db path: %q", cfg.SettingsDBPath())
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[classifier]
backend = " Remote "
endpoint = "http://classifier.internal/v1/classify"

[filter]
display_action = "DELETE"
scan_interval_seconds = 9

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Classifier.Backend != "remote" {
		t.Fatalf("expected normalized backend, got %q", cfg.Classifier.Backend)
	}
	if cfg.Filter.DisplayAction != "delete" {
		t.Fatalf("expected normalized display action, got %q", cfg.Filter.DisplayAction)
	}
	if cfg.Filter.ScanIntervalSeconds != 9 {
		t.Fatalf("unexpected scan interval: %d", cfg.Filter.ScanIntervalSeconds)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Classifier.Backend = "magic" },
			wantSub: "classifier.backend",
		},
		{
			name: "remote without endpoint",
			mutate: func(c *config.Config) {
				c.Classifier.Backend = "remote"
				c.Classifier.Endpoint = ""
			},
			wantSub: "classifier.endpoint",
		},
		{
			name: "ondevice without model",
			mutate: func(c *config.Config) {
				c.Classifier.Backend = "ondevice"
				c.Classifier.RuntimeModel = ""
			},
			wantSub: "classifier.runtime_model",
		},
		{
			name:    "bad display action",
			mutate:  func(c *config.Config) { c.Filter.DisplayAction = "obliterate" },
			wantSub: "filter.display_action",
		},
		{
			name:    "sensitivity out of range",
			mutate:  func(c *config.Config) { c.Filter.Sensitivity = 1.5 },
			wantSub: "filter.sensitivity",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantSub)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Classifier.MaxConcurrency != 8 {
		t.Fatalf("unexpected max concurrency: %d", cfg.Classifier.MaxConcurrency)
	}
}
