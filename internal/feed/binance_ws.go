package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/alanyoungcy/midpricebot/internal/platform/binance"
)

const (
	defaultReconnectDelay    = 2 * time.Second
	defaultMaxReconnectDelay = 60 * time.Second
)

// QuoteHandler is called for each top-of-book quote (QuoteService).
type QuoteHandler func(ctx context.Context, q domain.Quote)

// BinanceOptions configures a BinanceFeed.
type BinanceOptions struct {
	URL              string
	Symbol           string
	HandshakeTimeout time.Duration

	// ReadTimeout ends a session whose peer sends no frame for this long.
	ReadTimeout time.Duration

	// Reconnect starts a fresh connection after the stream ends. When false
	// the feed returns after the first connection ends.
	Reconnect bool

	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// BinanceFeed runs the Binance diff-depth stream and invokes the handler on
// each quote. Reconnection policy lives here; the stream client itself only
// ever holds one connection.
type BinanceFeed struct {
	opts      BinanceOptions
	onQuote   QuoteHandler
	base      *slog.Logger
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewBinanceFeed creates a feed. An empty URL selects the public stream for
// opts.Symbol.
func NewBinanceFeed(opts BinanceOptions, onQuote QuoteHandler, logger *slog.Logger) *BinanceFeed {
	if opts.URL == "" {
		opts.URL = binance.DepthStreamURL(opts.Symbol)
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.MaxReconnectDelay < opts.ReconnectDelay {
		opts.MaxReconnectDelay = max(defaultMaxReconnectDelay, opts.ReconnectDelay)
	}
	return &BinanceFeed{
		opts:    opts,
		onQuote: onQuote,
		base:    logger,
		logger:  logger.With(slog.String("component", "binance_ws_feed")),
		done:    make(chan struct{}),
	}
}

// Run streams until ctx is cancelled or Close is called. With reconnect
// enabled every disconnect is followed by a backoff wait that doubles up to
// MaxReconnectDelay and resets after a session that delivered data.
// Without it, a peer close returns nil and any other failure is returned.
func (f *BinanceFeed) Run(ctx context.Context) error {
	delay := f.opts.ReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		received, err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-f.done:
			return nil
		default:
		}

		if !f.opts.Reconnect {
			if errors.Is(err, domain.ErrWSDisconnect) {
				f.logger.Info("binance ws ended, reconnect disabled")
				return nil
			}
			return err
		}

		if received {
			delay = f.opts.ReconnectDelay
		}
		f.logger.Warn("binance ws disconnected, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, f.opts.MaxReconnectDelay)
	}
}

// runConnection runs one client session and reports whether any quote was
// delivered.
func (f *BinanceFeed) runConnection(ctx context.Context) (bool, error) {
	client := binance.NewStreamClient(f.opts.URL, f.opts.Symbol, f.opts.HandshakeTimeout, f.opts.ReadTimeout, f.base)

	var received bool
	client.OnQuote(func(q domain.Quote) {
		received = true
		if f.onQuote != nil {
			f.onQuote(ctx, q)
		}
	})

	// Close makes the session end like a cancellation.
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-f.done:
			cancel()
		case <-sessCtx.Done():
		}
	}()

	err := client.Run(sessCtx)
	if err != nil && sessCtx.Err() != nil && ctx.Err() == nil {
		// Stopped by Close.
		return received, nil
	}
	return received, err
}

// Close stops the feed.
func (f *BinanceFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
