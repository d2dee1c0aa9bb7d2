package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"winnow/internal/classify"
	"winnow/internal/config"
	"winnow/internal/logging"
	"winnow/internal/settings"
)

// Daemon coordinates page sessions and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *settings.Store
	gateway classify.Classifier

	sessions *sessionManager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	Sessions       int
	SettingsDBPath string
	LockFilePath   string
	SettingsVer    int64
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *settings.Store, gateway classify.Classifier, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || gateway == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, gateway, and logger")
	}

	// Runtime state lives next to the settings database, away from log
	// rotation and cleanup.
	lockPath := filepath.Join(cfg.Paths.DataDir, "winnowd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		gateway:  gateway,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.sessions = newSessionManager(d)

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, begins watching the settings database for
// out-of-process edits, and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another winnow daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	poll := time.Duration(d.cfg.Filter.SettingsPollSeconds) * time.Second
	go d.store.Watch(d.ctx, poll)

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("winnow daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop tears down sessions, stops the API server, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.sessions.closeAll()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("winnow daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, or "" before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	version, err := d.store.Version(ctx)
	if err != nil {
		version = 0
	}
	return Status{
		Running:        d.running.Load(),
		Sessions:       d.sessions.count(),
		SettingsDBPath: d.store.Path(),
		LockFilePath:   d.lockPath,
		SettingsVer:    version,
	}
}
