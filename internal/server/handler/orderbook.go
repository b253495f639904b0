package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// OrderBookHandler serves the per-exchange mid price endpoint. The provider
// set is fixed at construction and read concurrently.
type OrderBookHandler struct {
	providers map[string]domain.OrderBookProvider
	logger    *slog.Logger
}

// NewOrderBookHandler registers each provider under its Name.
func NewOrderBookHandler(providers []domain.OrderBookProvider, logger *slog.Logger) *OrderBookHandler {
	m := make(map[string]domain.OrderBookProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &OrderBookHandler{
		providers: m,
		logger:    logHandler(logger, "orderbook"),
	}
}

// Exchanges returns the registered exchange names, sorted.
func (h *OrderBookHandler) Exchanges() []string {
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MidPrice fetches a fresh snapshot from the named exchange.
// GET /{exchange}/mid_price
func (h *OrderBookHandler) MidPrice(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("exchange")
	p, ok := h.providers[name]
	if !ok {
		writeText(w, http.StatusNotFound, fmt.Sprintf("Error: %v: %s", domain.ErrUnknownExchange, name))
		return
	}

	snap, err := p.OrderBook(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "order book fetch failed",
			slog.String("exchange", name),
			slog.String("error", err.Error()),
		)
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
