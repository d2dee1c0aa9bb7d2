package testsupport

import (
	"path/filepath"
	"testing"

	"winnow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Classifier.Backend = "mock"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBackend sets the classifier backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(c *config.Config) {
		c.Classifier.Backend = backend
	}
}

// WithDisplayAction sets the default display action on the test config.
func WithDisplayAction(action string) ConfigOption {
	return func(c *config.Config) {
		c.Filter.DisplayAction = action
	}
}
