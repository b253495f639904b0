package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/midpricebot/internal/config"
	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/alanyoungcy/midpricebot/internal/platform/huobi"
	"github.com/alanyoungcy/midpricebot/internal/platform/kraken"
	"github.com/alanyoungcy/midpricebot/internal/platform/rest"
	"github.com/alanyoungcy/midpricebot/internal/pubsub/redis"
)

// Dependencies bundles what the modes need. It is constructed by Wire and
// torn down by the returned cleanup function.
type Dependencies struct {
	// Providers are the REST-polled exchanges with a configured endpoint.
	Providers []domain.OrderBookProvider

	// Publisher is nil unless Redis is enabled and the mode streams.
	Publisher domain.QuotePublisher
}

// Wire constructs the concrete dependencies for mode and returns them with a
// cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, mode string, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Providers: NewProviders(cfg, logger),
	}

	// --- Redis (ws mode only) ---
	if mode == ModeWS && cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Publisher = redis.NewQuotePublisher(redisClient, cfg.Redis.Channel)
		logger.InfoContext(ctx, "redis quote publisher enabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("channel", cfg.Redis.Channel),
		)
	}

	return deps, cleanup, nil
}

// NewProviders builds a provider for every exchange with a configured
// endpoint. All providers share one REST client.
func NewProviders(cfg *config.Config, logger *slog.Logger) []domain.OrderBookProvider {
	rc := rest.NewClient(rest.Options{
		Timeout:      cfg.HTTP.Timeout.Duration,
		MaxRetries:   cfg.HTTP.MaxRetries,
		RetryBackoff: cfg.HTTP.RetryBackoff.Duration,
	})

	var providers []domain.OrderBookProvider
	if cfg.Kraken.Enabled() {
		providers = append(providers, kraken.NewClient(cfg.Kraken.TradingPair, cfg.Kraken.Endpoint, rc, logger))
	}
	if cfg.Huobi.Enabled() {
		providers = append(providers, huobi.NewClient(cfg.Huobi.TradingPair, cfg.Huobi.Endpoint, rc, logger))
	}
	return providers
}
