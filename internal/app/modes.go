package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/feed"
	"github.com/alanyoungcy/midpricebot/internal/server"
	"github.com/alanyoungcy/midpricebot/internal/server/handler"
	"github.com/alanyoungcy/midpricebot/internal/service"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// RESTMode serves GET /{exchange}/mid_price for every wired exchange until
// ctx is cancelled.
func (a *App) RESTMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering rest mode", slog.Int("exchanges", len(deps.Providers)))

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// StreamMode runs the Binance depth stream and logs every derived quote,
// publishing it to Redis when enabled.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering ws mode",
		slog.String("symbol", a.cfg.Binance.Symbol),
		slog.Bool("reconnect", a.cfg.Binance.Reconnect),
	)

	quotes := service.NewQuoteService(deps.Publisher, a.logger)
	f := feed.NewBinanceFeed(feed.BinanceOptions{
		Symbol:           a.cfg.Binance.Symbol,
		HandshakeTimeout: a.cfg.Binance.HandshakeTimeout.Duration,
		ReadTimeout:      a.cfg.Binance.ReadTimeout.Duration,
		Reconnect:        a.cfg.Binance.Reconnect,
	}, quotes.HandleQuote, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer f.Close()
		return f.Run(ctx)
	})
	return g.Wait()
}

// startHTTPServer adds the HTTP server goroutine to g. The server is shut
// down gracefully when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	ob := handler.NewOrderBookHandler(deps.Providers, a.logger)
	srv := server.NewServer(server.Config{
		Addr:        a.cfg.Server.Addr(),
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(ob.Exchanges(), a.logger),
		OrderBook: ob,
	}, a.logger)

	a.logger.InfoContext(ctx, "mid price routes registered", slog.Any("exchanges", ob.Exchanges()))

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
