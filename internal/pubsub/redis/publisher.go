package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// quoteEvent is the JSON payload published for each quote.
type quoteEvent struct {
	Event     string  `json:"event"`
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
	MidPrice  float64 `json:"mid_price"`
	Timestamp string  `json:"timestamp"`
}

// QuotePublisher implements domain.QuotePublisher over Redis Pub/Sub.
type QuotePublisher struct {
	client  *Client
	channel string
}

// NewQuotePublisher publishes to channel through c.
func NewQuotePublisher(c *Client, channel string) *QuotePublisher {
	return &QuotePublisher{client: c, channel: channel}
}

// PublishQuote sends q as a "quote" event.
func (p *QuotePublisher) PublishQuote(ctx context.Context, q domain.Quote) error {
	payload, err := encodeQuote(q)
	if err != nil {
		return err
	}
	if err := p.client.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", p.channel, err)
	}
	return nil
}

func encodeQuote(q domain.Quote) ([]byte, error) {
	b, err := json.Marshal(quoteEvent{
		Event:     "quote",
		Exchange:  q.Exchange,
		Symbol:    q.Symbol,
		BestBid:   q.BestBid,
		BestAsk:   q.BestAsk,
		MidPrice:  q.MidPrice,
		Timestamp: q.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("redis: encode quote: %w", err)
	}
	return b, nil
}

// Compile-time interface check.
var _ domain.QuotePublisher = (*QuotePublisher)(nil)
