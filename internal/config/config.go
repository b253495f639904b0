// Package config defines the top-level configuration for the mid-price bot
// and provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by APP_* environment variables.
type Config struct {
	Kraken   ExchangeConfig `toml:"kraken"`
	Huobi    ExchangeConfig `toml:"huobi"`
	Binance  BinanceConfig  `toml:"binance"`
	HTTP     HTTPConfig     `toml:"http"`
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	LogLevel string         `toml:"log_level"`
}

// ExchangeConfig is the trading pair and REST endpoint for one venue. An empty
// endpoint leaves the venue unwired.
type ExchangeConfig struct {
	TradingPair string `toml:"trading_pair"`
	Endpoint    string `toml:"endpoint"`
}

// Enabled reports whether the venue has an endpoint configured.
func (e ExchangeConfig) Enabled() bool {
	return strings.TrimSpace(e.Endpoint) != ""
}

// BinanceConfig controls the diff-depth stream used in ws mode. The stream
// base URL is fixed; only the symbol is configurable.
type BinanceConfig struct {
	Symbol           string   `toml:"symbol"`
	Reconnect        bool     `toml:"reconnect"`
	HandshakeTimeout duration `toml:"handshake_timeout"`
	ReadTimeout      duration `toml:"read_timeout"`
}

// HTTPConfig is the outbound REST policy shared by all exchange clients.
type HTTPConfig struct {
	Timeout      duration `toml:"timeout"`
	MaxRetries   int      `toml:"max_retries"`
	RetryBackoff duration `toml:"retry_backoff"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Addr is the listen address for the HTTP facade.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds connection parameters for the optional quote publisher.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Kraken: ExchangeConfig{
			TradingPair: "XBTUSDT",
			Endpoint:    "https://api.kraken.com/0/public/Depth",
		},
		Huobi: ExchangeConfig{
			TradingPair: "BTCUSDT",
			Endpoint:    "https://api.huobi.pro/market/depth",
		},
		Binance: BinanceConfig{
			Symbol:           "btcusdt",
			Reconnect:        true,
			HandshakeTimeout: duration{15 * time.Second},
			ReadTimeout:      duration{60 * time.Second},
		},
		HTTP: HTTPConfig{
			Timeout:      duration{10 * time.Second},
			MaxRetries:   0,
			RetryBackoff: duration{500 * time.Millisecond},
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Channel: "midprice",
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	errs = append(errs, validateExchange("kraken", c.Kraken)...)
	errs = append(errs, validateExchange("huobi", c.Huobi)...)

	if strings.TrimSpace(c.Binance.Symbol) == "" {
		errs = append(errs, "binance: symbol must not be empty")
	}
	if c.Binance.HandshakeTimeout.Duration <= 0 {
		errs = append(errs, "binance: handshake_timeout must be > 0")
	}
	if c.Binance.ReadTimeout.Duration <= 0 {
		errs = append(errs, "binance: read_timeout must be > 0")
	}

	if c.HTTP.Timeout.Duration <= 0 {
		errs = append(errs, "http: timeout must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, "http: max_retries must be >= 0")
	}
	if c.HTTP.RetryBackoff.Duration < 0 {
		errs = append(errs, "http: retry_backoff must be >= 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.Channel == "" {
			errs = append(errs, "redis: channel must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateExchange(name string, e ExchangeConfig) []string {
	if !e.Enabled() {
		return nil
	}
	var errs []string
	if strings.TrimSpace(e.TradingPair) == "" {
		errs = append(errs, name+": trading_pair must not be empty")
	}
	u, err := url.Parse(e.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("%s: endpoint %q is not an absolute URL", name, e.Endpoint))
	}
	return errs
}
