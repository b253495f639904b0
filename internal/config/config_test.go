package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Settings.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}

	def := Defaults()
	if cfg.Kraken != def.Kraken {
		t.Errorf("kraken = %+v, expected defaults %+v", cfg.Kraken, def.Kraken)
	}
	if cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Errorf("server addr = %q, expected 127.0.0.1:8080", cfg.Server.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.Binance.ReadTimeout.Duration != time.Minute {
		t.Errorf("binance read timeout = %v, expected 60s", cfg.Binance.ReadTimeout.Duration)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[kraken]
trading_pair = "ETHUSD"
endpoint = "https://kraken.example/0/public/Depth"

[huobi]
trading_pair = "ETHUSDT"
endpoint = ""

[http]
timeout = "3s"
max_retries = 2

[server]
port = 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Kraken.TradingPair != "ETHUSD" || cfg.Kraken.Endpoint != "https://kraken.example/0/public/Depth" {
		t.Errorf("kraken = %+v", cfg.Kraken)
	}
	if cfg.Huobi.Enabled() {
		t.Errorf("huobi with empty endpoint should be disabled")
	}
	if cfg.HTTP.Timeout.Duration != 3*time.Second {
		t.Errorf("http timeout = %v, expected 3s", cfg.HTTP.Timeout.Duration)
	}
	if cfg.HTTP.MaxRetries != 2 {
		t.Errorf("http max_retries = %d, expected 2", cfg.HTTP.MaxRetries)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, expected 9090", cfg.Server.Port)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server host = %q, expected default", cfg.Server.Host)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[kraken]
trading_pair = "ETHUSD"
endpoint = "https://kraken.example/0/public/Depth"
`)

	t.Setenv("APP_KRAKEN_TRADING_PAIR", "XBTUSDT")
	t.Setenv("APP_HUOBI_ENDPOINT", "https://huobi.example/market/depth")
	t.Setenv("APP_SERVER_PORT", "8181")
	t.Setenv("APP_BINANCE_RECONNECT", "false")
	t.Setenv("APP_HTTP_TIMEOUT", "750ms")
	t.Setenv("APP_SERVER_CORS_ORIGINS", "http://a.example, ,http://b.example")
	t.Setenv("APP_REDIS_ENABLED", "true")
	t.Setenv("APP_BINANCE_READ_TIMEOUT", "5s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Kraken.TradingPair != "XBTUSDT" {
		t.Errorf("kraken trading pair = %q, expected env override", cfg.Kraken.TradingPair)
	}
	if cfg.Kraken.Endpoint != "https://kraken.example/0/public/Depth" {
		t.Errorf("kraken endpoint = %q, expected file value", cfg.Kraken.Endpoint)
	}
	if cfg.Huobi.Endpoint != "https://huobi.example/market/depth" {
		t.Errorf("huobi endpoint = %q", cfg.Huobi.Endpoint)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
	if cfg.Binance.Reconnect {
		t.Errorf("binance reconnect should be overridden to false")
	}
	if cfg.HTTP.Timeout.Duration != 750*time.Millisecond {
		t.Errorf("http timeout = %v", cfg.HTTP.Timeout.Duration)
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "http://a.example|http://b.example" {
		t.Errorf("cors origins = %q", got)
	}
	if !cfg.Redis.Enabled {
		t.Errorf("redis should be enabled by env")
	}
	if cfg.Binance.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("binance read timeout = %v, expected 5s", cfg.Binance.ReadTimeout.Duration)
	}
}

func TestLoadRejectsMalformedEnvOverrides(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "APP_SERVER_PORT", value: "abc"},
		{key: "APP_BINANCE_RECONNECT", value: "maybe"},
		{key: "APP_HTTP_TIMEOUT", value: "10"},
		{key: "APP_BINANCE_READ_TIMEOUT", value: "soon"},
		{key: "APP_REDIS_DB", value: "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
			if err == nil {
				t.Fatalf("Load accepted %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "[kraken\ntrading_pair = ")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server: port",
		},
		{
			name:    "empty trading pair on wired exchange",
			mutate:  func(c *Config) { c.Kraken.TradingPair = "" },
			wantErr: "kraken: trading_pair",
		},
		{
			name: "empty trading pair on unwired exchange is ignored",
			mutate: func(c *Config) {
				c.Huobi.TradingPair = ""
				c.Huobi.Endpoint = ""
			},
		},
		{
			name:    "relative endpoint",
			mutate:  func(c *Config) { c.Huobi.Endpoint = "market/depth" },
			wantErr: "huobi: endpoint",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "log_level",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.HTTP.Timeout.Duration = 0 },
			wantErr: "http: timeout",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Binance.ReadTimeout.Duration = 0 },
			wantErr: "binance: read_timeout",
		},
		{
			name: "redis enabled without channel",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Channel = ""
			},
			wantErr: "redis: channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, expected error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Server.CORSOrigins = []string{"http://a.example"}

	out := RedactedConfig(&cfg)
	if out.Redis.Password != "***" {
		t.Errorf("redis password = %q, expected redacted", out.Redis.Password)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("original config was modified")
	}
	out.Server.CORSOrigins[0] = "changed"
	if cfg.Server.CORSOrigins[0] != "http://a.example" {
		t.Errorf("redacted copy shares CORS origins with original")
	}

	empty := Defaults()
	if got := RedactedConfig(&empty).Redis.Password; got != "" {
		t.Errorf("empty password should stay empty, got %q", got)
	}
}
