// winnowd is the long-running filtering daemon. It owns the settings store
// and classifier backend and serves the HTTP API page clients talk to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"winnow/internal/classify"
	"winnow/internal/config"
	"winnow/internal/daemon"
	"winnow/internal/logging"
	"winnow/internal/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := settings.Open(cfg)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}

	gateway, err := classify.FromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	d, err := daemon.New(cfg, store, gateway, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("winnowd shutting down")
	return nil
}
