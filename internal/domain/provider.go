package domain

import "context"

// OrderBookProvider fetches the current top of book for the trading pair it
// was constructed with. Implementations either return a fully populated
// Snapshot or an error, never a partial result, and perform one network round
// trip per call.
type OrderBookProvider interface {
	Name() string
	OrderBook(ctx context.Context) (Snapshot, error)
}

// QuotePublisher fans derived quotes out to external subscribers.
type QuotePublisher interface {
	PublishQuote(ctx context.Context, q Quote) error
}
