package binance

import (
	"fmt"
	"strconv"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// eventDepthUpdate is the "e" field of diff-depth messages.
const eventDepthUpdate = "depthUpdate"

// DepthUpdate is one message of the <symbol>@depth diff stream. Levels are
// [price, quantity] string pairs.
type DepthUpdate struct {
	EventType     string  `json:"e"`
	EventTime     int64   `json:"E"`
	Symbol        string  `json:"s"`
	FirstUpdateID int64   `json:"U"`
	FinalUpdateID int64   `json:"u"`
	Bids          []Level `json:"b"`
	Asks          []Level `json:"a"`
}

// Level is a raw [price, quantity] entry.
type Level []string

// Price parses the price at index 0. Unparsable prices are an error, never 0.
func (l Level) Price() (float64, error) {
	if len(l) == 0 {
		return 0, fmt.Errorf("%w: empty level", domain.ErrParse)
	}
	p, err := strconv.ParseFloat(l[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %w", domain.ErrParse, l[0], err)
	}
	return p, nil
}
