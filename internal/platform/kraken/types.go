package kraken

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// --------------------------------------------------------------------------
// Public Depth API DTOs
// --------------------------------------------------------------------------

// DepthResponse is the envelope returned by GET /0/public/Depth. Result is
// keyed by Kraken's own pair identifier (e.g. "XXBTZUSD"), which may differ
// from the pair that was requested, so it is kept raw until FirstBook reads
// it in document order.
type DepthResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// DepthBook is one pair's order book. Each level is
// [price:string, volume:string, timestamp:number].
type DepthBook struct {
	Asks []Level `json:"asks"`
	Bids []Level `json:"bids"`
}

// Level is a raw order book entry.
type Level []json.RawMessage

// FirstBook returns the first entry of the result object in the order it
// appears on the wire, along with its key. ok is false when result is
// missing, null or an empty object.
func (r *DepthResponse) FirstBook() (key string, book DepthBook, ok bool, err error) {
	if len(bytes.TrimSpace(r.Result)) == 0 {
		return "", DepthBook{}, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(r.Result))
	tok, err := dec.Token()
	if err != nil {
		return "", DepthBook{}, false, fmt.Errorf("%w: result: %w", domain.ErrParse, err)
	}
	if tok == nil {
		return "", DepthBook{}, false, nil
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return "", DepthBook{}, false, fmt.Errorf("%w: result is not an object", domain.ErrParse)
	}
	if !dec.More() {
		return "", DepthBook{}, false, nil
	}

	keyTok, err := dec.Token()
	if err != nil {
		return "", DepthBook{}, false, fmt.Errorf("%w: result key: %w", domain.ErrParse, err)
	}
	key, _ = keyTok.(string)

	if err := dec.Decode(&book); err != nil {
		return "", DepthBook{}, false, fmt.Errorf("%w: book %s: %w", domain.ErrParse, key, err)
	}
	return key, book, true, nil
}

// Price parses the string price at index 0.
func (l Level) Price() (float64, error) {
	if len(l) == 0 {
		return 0, fmt.Errorf("%w: empty level", domain.ErrParse)
	}
	var s string
	if err := json.Unmarshal(l[0], &s); err != nil {
		return 0, fmt.Errorf("%w: price %s is not a string", domain.ErrParse, l[0])
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %w", domain.ErrParse, s, err)
	}
	return p, nil
}
