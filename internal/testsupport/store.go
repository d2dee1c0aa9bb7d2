package testsupport

import (
	"testing"

	"winnow/internal/config"
	"winnow/internal/settings"
)

// NewStore opens a settings store backed by a per-test temp database and
// closes it when the test finishes.
func NewStore(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()

	if cfg == nil {
		cfg = NewConfig(t)
	}
	store, err := settings.Open(cfg)
	if err != nil {
		t.Fatalf("open settings store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close settings store: %v", err)
		}
	})
	return store
}
