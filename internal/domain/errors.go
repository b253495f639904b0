package domain

import "errors"

var (
	ErrTransport       = errors.New("transport error")
	ErrParse           = errors.New("parse error")
	ErrAPIStatus       = errors.New("api status error")
	ErrEmptyBook       = errors.New("empty order book")
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrWSDisconnect    = errors.New("websocket disconnected")
)
