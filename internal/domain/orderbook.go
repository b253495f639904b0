package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// Snapshot is the best bid, best ask and mid-price derived from one order
// book read. It is produced fresh on every fetch and never cached.
type Snapshot struct {
	BestBid  float64 `json:"best_bid"`
	BestAsk  float64 `json:"best_ask"`
	MidPrice float64 `json:"mid_price"`
}

// NewSnapshot builds a Snapshot from the top of book. The mid-price is the
// arithmetic mean of bid and ask.
func NewSnapshot(bestBid, bestAsk float64) Snapshot {
	return Snapshot{
		BestBid:  bestBid,
		BestAsk:  bestAsk,
		MidPrice: (bestBid + bestAsk) / 2,
	}
}

// SnapshotFromLevels takes the first level of each side as the best price.
// It returns ErrEmptyBook when either side has no levels.
func SnapshotFromLevels(bids, asks []PriceLevel) (Snapshot, error) {
	if len(bids) == 0 || len(asks) == 0 {
		return Snapshot{}, ErrEmptyBook
	}
	return NewSnapshot(bids[0].Price, asks[0].Price), nil
}

// Quote is a Snapshot tagged with where and when it was observed. The
// streaming path emits Quotes; the REST path returns bare Snapshots.
type Quote struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Snapshot
	Timestamp time.Time `json:"timestamp"`
}
