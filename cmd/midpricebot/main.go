// Command midpricebot reports top-of-book mid prices from crypto exchanges.
// In rest mode it serves GET /{exchange}/mid_price backed by live REST
// polls; in ws mode it streams Binance depth updates and logs a quote per
// update.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alanyoungcy/midpricebot/internal/app"
	"github.com/alanyoungcy/midpricebot/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: midpricebot [-config path] <%s>\n", strings.Join(app.Modes, "|"))
	fmt.Fprintln(w, "  rest  serve GET /{exchange}/mid_price over HTTP")
	fmt.Fprintln(w, "  ws    stream Binance depth updates and log mid prices")
}

// run returns the process exit code. A missing or unknown mode prints usage
// and exits 0 without loading configuration.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("midpricebot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	configPath := fs.String("config", "Settings.toml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	mode, ok := app.ParseMode(fs.Arg(0))
	if !ok {
		usage(stderr)
		return 0
	}

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		return 1
	}

	logger = slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("midpricebot starting",
		slog.String("mode", mode),
		slog.String("config", *configPath),
	)
	logger.Debug("active configuration", slog.Any("config", config.RedactedConfig(cfg)))

	application := app.New(cfg, mode, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(stderr, "fatal: %v\n", err)
			return 1
		}
	}

	logger.Info("midpricebot stopped")
	return 0
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
