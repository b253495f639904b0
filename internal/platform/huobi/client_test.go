package huobi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/alanyoungcy/midpricebot/internal/platform/rest"
)

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "btcusdt" || q.Get("type") != "step0" {
			http.Error(w, "unexpected query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient("BTCUSDT", srv.URL+"/market/depth", rest.NewClient(rest.DefaultOptions()), logger)
}

func TestOrderBook(t *testing.T) {
	c := newTestClient(t, `{
		"status": "ok",
		"ch": "market.btcusdt.depth.step0",
		"ts": 1700000000000,
		"tick": {
			"bids": [[100.0, 0.5], [99.0, 1.25]],
			"asks": [[102.0, 0.3], [103.5, 2.0]],
			"ts": 1700000000000,
			"version": 42
		}
	}`)

	snap, err := c.OrderBook(context.Background())
	if err != nil {
		t.Fatalf("OrderBook: %v", err)
	}
	want := domain.Snapshot{BestBid: 100.0, BestAsk: 102.0, MidPrice: 101.0}
	if snap != want {
		t.Errorf("snapshot = %+v, expected %+v", snap, want)
	}
}

func TestOrderBookErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "non-ok status is reported before tick is read",
			body:    `{"status":"error","err-code":"invalid-parameter","err-msg":"invalid symbol","tick":"not a tick"}`,
			wantErr: domain.ErrAPIStatus,
			wantMsg: "invalid symbol",
		},
		{
			name:    "missing status",
			body:    `{"tick":{"bids":[[1,1]],"asks":[[2,1]]}}`,
			wantErr: domain.ErrAPIStatus,
		},
		{
			name:    "empty bids",
			body:    `{"status":"ok","tick":{"bids":[],"asks":[[102.0,1]]}}`,
			wantErr: domain.ErrEmptyBook,
		},
		{
			name:    "empty asks",
			body:    `{"status":"ok","tick":{"bids":[[100.0,1]],"asks":[]}}`,
			wantErr: domain.ErrEmptyBook,
		},
		{
			name:    "missing tick",
			body:    `{"status":"ok"}`,
			wantErr: domain.ErrParse,
		},
		{
			name:    "string prices",
			body:    `{"status":"ok","tick":{"bids":[["100.0","1"]],"asks":[["102.0","1"]]}}`,
			wantErr: domain.ErrParse,
		},
		{
			name:    "level without price",
			body:    `{"status":"ok","tick":{"bids":[[]],"asks":[[102.0,1]]}}`,
			wantErr: domain.ErrParse,
		},
		{
			name:    "malformed json",
			body:    `{"status":"ok","tick":{`,
			wantErr: domain.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.body)
			snap, err := c.OrderBook(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OrderBook error = %v, expected %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
			if snap != (domain.Snapshot{}) {
				t.Errorf("expected zero snapshot on error, got %+v", snap)
			}
		})
	}
}

func TestNewClientLowercasesSymbol(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient("EthUsdt", "https://example.invalid", rest.NewClient(rest.DefaultOptions()), logger)
	if c.symbol != "ethusdt" {
		t.Errorf("symbol = %q, expected ethusdt", c.symbol)
	}
	if c.Name() != "huobi" {
		t.Errorf("Name() = %q", c.Name())
	}
}
