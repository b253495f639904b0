// Package huobi implements domain.OrderBookProvider against Huobi's public
// market depth endpoint.
package huobi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/alanyoungcy/midpricebot/internal/platform/rest"
)

const (
	// Name is the exchange identifier used in routes and logs.
	Name = "huobi"

	// depthType selects the unaggregated book.
	depthType = "step0"

	statusOK = "ok"
)

// Client is the REST order book client for one Huobi symbol.
type Client struct {
	symbol   string
	endpoint string
	rest     *rest.Client
	logger   *slog.Logger
}

// NewClient creates a Huobi client.
//
// endpoint is the depth URL, e.g. "https://api.huobi.pro/market/depth".
// pair is lowercased before being sent as the "symbol" query parameter.
func NewClient(pair, endpoint string, rc *rest.Client, logger *slog.Logger) *Client {
	return &Client{
		symbol:   strings.ToLower(pair),
		endpoint: endpoint,
		rest:     rc,
		logger:   logger.With(slog.String("component", "huobi")),
	}
}

// Name implements domain.OrderBookProvider.
func (c *Client) Name() string {
	return Name
}

// OrderBook fetches the step0 depth for the configured symbol and returns the
// top of book.
func (c *Client) OrderBook(ctx context.Context) (domain.Snapshot, error) {
	params := url.Values{
		"symbol": {c.symbol},
		"type":   {depthType},
	}

	var resp DepthResponse
	if err := c.rest.GetJSON(ctx, c.endpoint, params, &resp); err != nil {
		return domain.Snapshot{}, fmt.Errorf("huobi: get depth %s: %w", c.symbol, err)
	}
	return c.snapshot(&resp)
}

func (c *Client) snapshot(resp *DepthResponse) (domain.Snapshot, error) {
	if resp.Status != statusOK {
		return domain.Snapshot{}, fmt.Errorf("huobi: status %q (%s %s): %w",
			resp.Status, resp.ErrCode, resp.ErrMsg, domain.ErrAPIStatus)
	}

	var tick Tick
	if err := json.Unmarshal(resp.Tick, &tick); err != nil {
		return domain.Snapshot{}, fmt.Errorf("huobi: decode tick: %w: %w", domain.ErrParse, err)
	}

	bids, err := levels(tick.Bids)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("huobi: bids: %w", err)
	}
	asks, err := levels(tick.Asks)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("huobi: asks: %w", err)
	}

	snap, err := domain.SnapshotFromLevels(bids, asks)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("huobi: %s has %d bids and %d asks: %w",
			c.symbol, len(bids), len(asks), err)
	}
	c.logger.Debug("depth fetched",
		slog.String("channel", resp.Channel),
		slog.Int64("version", tick.Version),
	)
	return snap, nil
}

// levels converts [price, volume] pairs. Only the first level is needed for
// the top of book, so only it is validated.
func levels(raw [][]float64) ([]domain.PriceLevel, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw[0]) == 0 {
		return nil, fmt.Errorf("%w: level has no price", domain.ErrParse)
	}
	out := make([]domain.PriceLevel, 0, len(raw))
	for _, l := range raw {
		if len(l) == 0 {
			continue
		}
		lvl := domain.PriceLevel{Price: l[0]}
		if len(l) > 1 {
			lvl.Size = l[1]
		}
		out = append(out, lvl)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.OrderBookProvider = (*Client)(nil)
