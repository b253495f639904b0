// Package binance is a client for the Binance public diff-depth WebSocket
// stream.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	// Name is the exchange identifier used in quotes and logs.
	Name = "binance"

	// StreamBaseURL is the public market stream root.
	StreamBaseURL = "wss://stream.binance.com:9443/ws/"

	// writeWait is the time allowed to write a control frame to the peer.
	writeWait = 10 * time.Second

	// defaultHandshakeTimeout bounds the WebSocket opening handshake.
	defaultHandshakeTimeout = 15 * time.Second

	// defaultReadTimeout is how long the peer may stay silent. Binance pings
	// every few minutes and depth updates arrive every second.
	defaultReadTimeout = 60 * time.Second
)

// DepthStreamURL returns the diff-depth stream URL for symbol.
func DepthStreamURL(symbol string) string {
	return StreamBaseURL + strings.ToLower(symbol) + "@depth"
}

// State is the connection state of a StreamClient.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// QuoteHandler is called for every update that yields a top of book.
type QuoteHandler func(domain.Quote)

// StreamClient holds one connection to the diff-depth stream. It does not
// reconnect; Run returns when the connection ends and a new client (or a new
// Run) is needed to resume. Update IDs are checked for continuity, but no
// resync is attempted, so consumers must not assume book consistency.
type StreamClient struct {
	url              string
	symbol           string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	logger           *slog.Logger

	state atomic.Int32
	gaps  atomic.Int64

	// lastUpdateID is only touched by the read loop.
	lastUpdateID int64

	handlers  []QuoteHandler
	handlerMu sync.RWMutex
}

// NewStreamClient creates a client for the given stream URL. symbol is used
// to label quotes when the message does not carry one. readTimeout is the
// longest the peer may go without sending a frame before Run gives up.
func NewStreamClient(url, symbol string, handshakeTimeout, readTimeout time.Duration, logger *slog.Logger) *StreamClient {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &StreamClient{
		url:              url,
		symbol:           strings.ToUpper(symbol),
		handshakeTimeout: handshakeTimeout,
		readTimeout:      readTimeout,
		logger:           logger.With(slog.String("component", "binance_ws")),
	}
}

// OnQuote registers a handler. Handlers run on the read loop and should not
// block.
func (c *StreamClient) OnQuote(handler QuoteHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// State reports whether the client currently holds an open connection.
func (c *StreamClient) State() State {
	return State(c.state.Load())
}

// Gaps is the number of update-ID discontinuities seen so far.
func (c *StreamClient) Gaps() int64 {
	return c.gaps.Load()
}

// Run dials the stream and reads until the peer closes, a transport error
// occurs or ctx is cancelled. A close frame yields an error wrapping
// domain.ErrWSDisconnect; dial and read failures wrap domain.ErrTransport.
func (c *StreamClient) Run(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("binance/ws: connect: %w: %w", domain.ErrTransport, err)
	}
	defer conn.Close()

	// Every frame, control frames included, pushes the read deadline out.
	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		return nil
	})

	c.state.Store(int32(StateConnected))
	defer c.state.Store(int32(StateDisconnected))
	c.logger.InfoContext(ctx, "binance ws connected", slog.String("url", c.url))

	// Unblock ReadMessage when the caller cancels.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.logger.InfoContext(ctx, "binance ws closed by peer",
					slog.Int("code", closeErr.Code),
					slog.String("reason", closeErr.Text),
				)
				return fmt.Errorf("binance/ws: %w: %w", domain.ErrWSDisconnect, err)
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				c.logger.WarnContext(ctx, "binance ws peer silent, dropping connection",
					slog.Duration("read_timeout", c.readTimeout),
				)
				return fmt.Errorf("binance/ws: no frame within %s: %w: %w", c.readTimeout, domain.ErrTransport, err)
			}
			return fmt.Errorf("binance/ws: read: %w: %w", domain.ErrTransport, err)
		}
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
	}
}

// handleMessage parses one diff-depth update and dispatches a quote. Problems
// with a single message are logged and the message is dropped.
func (c *StreamClient) handleMessage(raw []byte) {
	var upd DepthUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		c.logger.Warn("binance ws: unparseable message", slog.String("error", err.Error()))
		return
	}
	if upd.EventType != "" && upd.EventType != eventDepthUpdate {
		c.logger.Debug("binance ws: ignoring event", slog.String("event", upd.EventType))
		return
	}

	c.trackUpdateIDs(upd)

	if len(upd.Bids) == 0 || len(upd.Asks) == 0 {
		c.logger.Debug("binance ws: one-sided update",
			slog.Int("bids", len(upd.Bids)),
			slog.Int("asks", len(upd.Asks)),
		)
		return
	}

	bid, err := upd.Bids[0].Price()
	if err != nil {
		c.logger.Warn("binance ws: bad bid", slog.String("error", err.Error()))
		return
	}
	ask, err := upd.Asks[0].Price()
	if err != nil {
		c.logger.Warn("binance ws: bad ask", slog.String("error", err.Error()))
		return
	}

	q := domain.Quote{
		Exchange:  Name,
		Symbol:    c.symbol,
		Snapshot:  domain.NewSnapshot(bid, ask),
		Timestamp: time.Now().UTC(),
	}
	if upd.Symbol != "" {
		q.Symbol = upd.Symbol
	}
	if upd.EventTime > 0 {
		q.Timestamp = time.UnixMilli(upd.EventTime).UTC()
	}

	c.handlerMu.RLock()
	handlers := c.handlers
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		h(q)
	}
}

// trackUpdateIDs counts a gap when an update does not start right after the
// previous one ended.
func (c *StreamClient) trackUpdateIDs(upd DepthUpdate) {
	if upd.FinalUpdateID == 0 {
		return
	}
	if c.lastUpdateID != 0 && upd.FirstUpdateID != c.lastUpdateID+1 {
		c.gaps.Add(1)
		c.logger.Warn("binance ws: update id gap",
			slog.Int64("expected", c.lastUpdateID+1),
			slog.Int64("got", upd.FirstUpdateID),
		)
	}
	c.lastUpdateID = upd.FinalUpdateID
}
