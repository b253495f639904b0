// Package app provides the top-level application lifecycle for the mid price
// bot. It wires the exchange providers, the stream feed and the optional
// Redis publisher, then runs the selected mode until the context is
// cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/midpricebot/internal/config"
)

// Operating modes.
const (
	ModeREST = "rest"
	ModeWS   = "ws"
)

// Modes lists the accepted operating modes in usage order.
var Modes = []string{ModeREST, ModeWS}

// ParseMode normalizes s and reports whether it names a mode.
func ParseMode(s string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(s))
	switch m {
	case ModeREST, ModeWS:
		return m, true
	default:
		return "", false
	}
}

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	mode    string
	logger  *slog.Logger
	closers []func()
}

// New creates a new App for mode from the given configuration and logger.
func New(cfg *config.Config, mode string, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		mode:   mode,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, starts the selected mode and blocks until the
// context is cancelled or the mode fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.mode, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch a.mode {
	case ModeREST:
		return a.RESTMode(ctx, deps)
	case ModeWS:
		return a.StreamMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
