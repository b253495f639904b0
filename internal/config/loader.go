package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix shared by every environment override. Nested keys
// are joined with "_", so kraken.trading_pair becomes APP_KRAKEN_TRADING_PAIR.
const EnvPrefix = "APP_"

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies APP_* environment variable overrides, and
// returns the final Config. A missing file is not an error: defaults and the
// environment are used instead. An override that does not parse as its
// field's type is an error. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	if invalid := applyEnvOverrides(&cfg); len(invalid) > 0 {
		return nil, fmt.Errorf("config: invalid environment overrides: %s", strings.Join(invalid, ", "))
	}

	return &cfg, nil
}

// applyEnvOverrides reads well-known APP_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). It returns the variables whose values could not be parsed.
func applyEnvOverrides(cfg *Config) []string {
	var e envOverrides

	// ── Exchanges ──
	e.setStr(&cfg.Kraken.TradingPair, "KRAKEN_TRADING_PAIR")
	e.setStr(&cfg.Kraken.Endpoint, "KRAKEN_ENDPOINT")
	e.setStr(&cfg.Huobi.TradingPair, "HUOBI_TRADING_PAIR")
	e.setStr(&cfg.Huobi.Endpoint, "HUOBI_ENDPOINT")

	// ── Binance stream ──
	e.setStr(&cfg.Binance.Symbol, "BINANCE_SYMBOL")
	e.setBool(&cfg.Binance.Reconnect, "BINANCE_RECONNECT")
	e.setDuration(&cfg.Binance.HandshakeTimeout, "BINANCE_HANDSHAKE_TIMEOUT")
	e.setDuration(&cfg.Binance.ReadTimeout, "BINANCE_READ_TIMEOUT")

	// ── Outbound HTTP ──
	e.setDuration(&cfg.HTTP.Timeout, "HTTP_TIMEOUT")
	e.setInt(&cfg.HTTP.MaxRetries, "HTTP_MAX_RETRIES")
	e.setDuration(&cfg.HTTP.RetryBackoff, "HTTP_RETRY_BACKOFF")

	// ── Server ──
	e.setStr(&cfg.Server.Host, "SERVER_HOST")
	e.setInt(&cfg.Server.Port, "SERVER_PORT")
	e.setStringSlice(&cfg.Server.CORSOrigins, "SERVER_CORS_ORIGINS")

	// ── Redis ──
	e.setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	e.setStr(&cfg.Redis.Addr, "REDIS_ADDR")
	e.setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	e.setInt(&cfg.Redis.DB, "REDIS_DB")
	e.setStr(&cfg.Redis.Channel, "REDIS_CHANNEL")

	// ── Top-level ──
	e.setStr(&cfg.LogLevel, "LOG_LEVEL")

	return e.invalid
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty. Keys are given without EnvPrefix.
// ---------------------------------------------------------------------------

// envOverrides records variables whose values fail to parse.
type envOverrides struct {
	invalid []string
}

func lookup(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func (e *envOverrides) reject(key, value string) {
	e.invalid = append(e.invalid, fmt.Sprintf("%s%s=%q", EnvPrefix, key, value))
}

func (e *envOverrides) setStr(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

func (e *envOverrides) setInt(dst *int, key string) {
	if v := lookup(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.reject(key, v)
			return
		}
		*dst = n
	}
}

func (e *envOverrides) setBool(dst *bool, key string) {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.reject(key, v)
			return
		}
		*dst = b
	}
}

func (e *envOverrides) setDuration(dst *duration, key string) {
	if v := lookup(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.reject(key, v)
			return
		}
		dst.Duration = d
	}
}

func (e *envOverrides) setStringSlice(dst *[]string, key string) {
	if v := lookup(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
