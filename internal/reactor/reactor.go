// Package reactor turns settings changes, document mutations, and navigation
// into scan triggers. One reactor goroutine per page session is the only
// scan driver, so cycles never overlap at the source.
package reactor

import (
	"context"
	"log/slog"
	"time"

	"winnow/internal/config"
	"winnow/internal/logging"
	"winnow/internal/page"
	"winnow/internal/settings"
)

// Driver is the scan side the reactor drives.
type Driver interface {
	Invalidate()
	Scan(ctx context.Context) error
}

// SettingsSource delivers settings-change notifications.
type SettingsSource interface {
	OnChange(settings.Listener) func()
}

// Config carries the reactor timings.
type Config struct {
	// ScanInterval is the baseline periodic tick; it doubles as the retry
	// path after a failed-open cycle.
	ScanInterval time.Duration
	// MutationDebounce collapses bursts of tile-container insertions.
	MutationDebounce time.Duration
	// NavigationDelay gives the host time to render after a route change.
	NavigationDelay time.Duration
}

// ConfigFrom maps the filter section of the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ScanInterval:     time.Duration(cfg.Filter.ScanIntervalSeconds) * time.Second,
		MutationDebounce: time.Duration(cfg.Filter.MutationDebounceMS) * time.Millisecond,
		NavigationDelay:  time.Duration(cfg.Filter.NavigationDelayMS) * time.Millisecond,
	}
}

func (c *Config) normalize() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 5 * time.Second
	}
	if c.MutationDebounce <= 0 {
		c.MutationDebounce = 250 * time.Millisecond
	}
	if c.NavigationDelay <= 0 {
		c.NavigationDelay = time.Second
	}
}

type event int

const (
	eventMutation event = iota
	eventNavigation
)

// Reactor owns the trigger loop for one page session.
type Reactor struct {
	driver Driver
	source SettingsSource
	cfg    Config
	logger *slog.Logger
	events chan event

	// settingsScan carries the scan request for a settings change. It is
	// separate from events so mutation bursts can never crowd it out, and
	// cap 1 so repeated changes coalesce into one scan.
	settingsScan chan struct{}
}

// New builds a reactor. Run must be called for it to do anything.
func New(driver Driver, source SettingsSource, cfg Config, logger *slog.Logger) *Reactor {
	cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Reactor{
		driver:       driver,
		source:       source,
		cfg:          cfg,
		logger:       logger.With(logging.String("component", "reactor")),
		events:       make(chan event, 32),
		settingsScan: make(chan struct{}, 1),
	}
}

// Signal reports a host-document event. Safe to call from any goroutine;
// never blocks. Signals arriving faster than the loop drains them coalesce.
func (r *Reactor) Signal(sig page.Signal) {
	ev := eventMutation
	if sig.Kind == page.SignalNavigation {
		ev = eventNavigation
	}
	select {
	case r.events <- ev:
	default:
	}
}

// Run drives the trigger loop until ctx is done. An initial scan runs
// immediately so a fresh session is filtered without waiting for the first
// tick.
func (r *Reactor) Run(ctx context.Context) error {
	unsubscribe := r.source.OnChange(func(settings.Change) {
		// Invalidate on the notifying goroutine. A settings change must
		// never be dropped, even while a scan holds the loop; the decided
		// set is mutex-guarded and the reset applies to the next cycle.
		r.logger.Debug("settings changed, invalidating decisions")
		r.driver.Invalidate()
		select {
		case r.settingsScan <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(r.cfg.ScanInterval)
	defer ticker.Stop()

	debounce := newStoppedTimer()
	defer debounce.Stop()
	navDelay := newStoppedTimer()
	defer navDelay.Stop()

	r.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.scan(ctx)
		case <-r.settingsScan:
			r.scan(ctx)
		case ev := <-r.events:
			switch ev {
			case eventMutation:
				resetTimer(debounce, r.cfg.MutationDebounce)
			case eventNavigation:
				r.logger.Debug("navigation observed, invalidating decisions")
				r.driver.Invalidate()
				resetTimer(navDelay, r.cfg.NavigationDelay)
			}
		case <-debounce.C:
			r.scan(ctx)
		case <-navDelay.C:
			r.scan(ctx)
		}
	}
}

func (r *Reactor) scan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.driver.Scan(ctx); err != nil {
		r.logger.Error("scan cycle failed", logging.Error(err))
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
