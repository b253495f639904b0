// Package kraken implements domain.OrderBookProvider against Kraken's public
// REST depth endpoint.
package kraken

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/alanyoungcy/midpricebot/internal/platform/rest"
)

// Name is the exchange identifier used in routes and logs.
const Name = "kraken"

// Client is the REST order book client for one Kraken trading pair.
type Client struct {
	pair     string
	endpoint string
	rest     *rest.Client
	logger   *slog.Logger
}

// NewClient creates a Kraken client.
//
// endpoint is the depth URL, e.g. "https://api.kraken.com/0/public/Depth".
// pair is sent verbatim as the "pair" query parameter, e.g. "XBTUSDT".
func NewClient(pair, endpoint string, rc *rest.Client, logger *slog.Logger) *Client {
	return &Client{
		pair:     pair,
		endpoint: endpoint,
		rest:     rc,
		logger:   logger.With(slog.String("component", "kraken")),
	}
}

// Name implements domain.OrderBookProvider.
func (c *Client) Name() string {
	return Name
}

// OrderBook fetches the depth for the configured pair and returns the top of
// book. The first book in the result is used whether or not its key matches
// the requested pair.
func (c *Client) OrderBook(ctx context.Context) (domain.Snapshot, error) {
	var resp DepthResponse
	if err := c.rest.GetJSON(ctx, c.endpoint, url.Values{"pair": {c.pair}}, &resp); err != nil {
		return domain.Snapshot{}, fmt.Errorf("kraken: get depth %s: %w", c.pair, err)
	}
	return c.snapshot(&resp)
}

func (c *Client) snapshot(resp *DepthResponse) (domain.Snapshot, error) {
	if len(resp.Error) > 0 {
		return domain.Snapshot{}, fmt.Errorf("kraken: %s: %w", strings.Join(resp.Error, "; "), domain.ErrAPIStatus)
	}

	key, book, ok, err := resp.FirstBook()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("kraken: %w", err)
	}
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("kraken: no order book data for %s: %w", c.pair, domain.ErrEmptyBook)
	}
	if key != c.pair {
		c.logger.Debug("result key differs from requested pair",
			slog.String("pair", c.pair),
			slog.String("key", key),
		)
	}

	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return domain.Snapshot{}, fmt.Errorf("kraken: %s has %d bids and %d asks: %w",
			key, len(book.Bids), len(book.Asks), domain.ErrEmptyBook)
	}

	bid, err := book.Bids[0].Price()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("kraken: best bid: %w", err)
	}
	ask, err := book.Asks[0].Price()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("kraken: best ask: %w", err)
	}

	return domain.NewSnapshot(bid, ask), nil
}

// Compile-time interface check.
var _ domain.OrderBookProvider = (*Client)(nil)
