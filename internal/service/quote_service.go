package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// QuoteService is the sink for streamed quotes: every quote is logged and,
// when a publisher is configured, forwarded to it.
type QuoteService struct {
	publisher domain.QuotePublisher
	logger    *slog.Logger
}

// NewQuoteService creates a QuoteService. publisher may be nil.
func NewQuoteService(publisher domain.QuotePublisher, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		publisher: publisher,
		logger:    logger.With(slog.String("component", "quote_service")),
	}
}

// HandleQuote logs q and publishes it. Publish failures are logged and do not
// stop the stream.
func (s *QuoteService) HandleQuote(ctx context.Context, q domain.Quote) {
	s.logger.InfoContext(ctx, "mid price",
		slog.String("exchange", q.Exchange),
		slog.String("symbol", q.Symbol),
		slog.Float64("best_bid", q.BestBid),
		slog.Float64("best_ask", q.BestAsk),
		slog.Float64("mid_price", q.MidPrice),
		slog.String("timestamp", q.Timestamp.Format(time.RFC3339Nano)),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuote(ctx, q); err != nil {
		s.logger.WarnContext(ctx, "quote_service: publish quote failed",
			slog.String("exchange", q.Exchange),
			slog.String("error", err.Error()),
		)
	}
}
