package huobi

import "encoding/json"

// DepthResponse is the envelope returned by GET /market/depth. Tick stays raw
// so that the status can be checked before the book is decoded.
type DepthResponse struct {
	Status  string          `json:"status"`
	Channel string          `json:"ch"`
	TS      int64           `json:"ts"`
	Tick    json.RawMessage `json:"tick"`
	ErrCode string          `json:"err-code"`
	ErrMsg  string          `json:"err-msg"`
}

// Tick is the order book payload. Each level is [price, volume] as JSON
// numbers.
type Tick struct {
	Bids    [][]float64 `json:"bids"`
	Asks    [][]float64 `json:"asks"`
	TS      int64       `json:"ts"`
	Version int64       `json:"version"`
}
