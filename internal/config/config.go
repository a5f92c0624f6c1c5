// Package config defines the top-level configuration for the liquidity
// server and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by RHUN_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Solana   SolanaConfig   `toml:"solana"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Oracle   OracleConfig   `toml:"oracle"`
	Tracker  TrackerConfig  `toml:"tracker"`
	Dust     DustConfig     `toml:"dust"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimitRequests caps requests per client IP per rate_limit_window.
	// Zero disables rate limiting.
	RateLimitRequests int      `toml:"rate_limit_requests"`
	RateLimitWindow   duration `toml:"rate_limit_window"`
}

// SolanaConfig holds RPC endpoint and chain parameters.
type SolanaConfig struct {
	RPCEndpoint string `toml:"rpc_endpoint"`
	// Commitment is the read commitment level: "processed", "confirmed",
	// or "finalized".
	Commitment string `toml:"commitment"`
	// PoolAddress is the RHUN-SOL pair the server manages positions on.
	PoolAddress string `toml:"pool_address"`
	// WalletPrivateKey is the base58 key of the server-side signer. Leave
	// empty when signing happens on the client and the server only relays.
	WalletPrivateKey string   `toml:"wallet_private_key"`
	CallTimeout      duration `toml:"call_timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// OracleConfig holds price oracle and identity cache parameters.
type OracleConfig struct {
	PriceURL    string   `toml:"price_url"`
	IdentityTTL duration `toml:"identity_ttl"`
}

// TrackerConfig holds confirmation tracker parameters.
type TrackerConfig struct {
	PollInterval duration `toml:"poll_interval"`
	MaxAttempts  int      `toml:"max_attempts"`
}

// DustConfig holds the per-token dust thresholds below which a position is
// considered empty for closing purposes. Values are human-denominated
// decimal strings.
type DustConfig struct {
	TokenX string `toml:"token_x"`
	TokenY string `toml:"token_y"`
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
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8000,
			CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitRequests: 120,
			RateLimitWindow:   duration{time.Minute},
		},
		Solana: SolanaConfig{
			RPCEndpoint: "https://api.mainnet-beta.solana.com",
			Commitment:  "confirmed",
			CallTimeout: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Oracle: OracleConfig{
			PriceURL:    "https://lite-api.jup.ag/price/v2",
			IdentityTTL: duration{5 * time.Minute},
		},
		Tracker: TrackerConfig{
			PollInterval: duration{time.Second},
			MaxAttempts:  10,
		},
		Dust: DustConfig{
			TokenX: "0.001",
			TokenY: "0.000001",
		},
		LogLevel: "info",
	}
}

// validCommitments enumerates the accepted values for SolanaConfig.Commitment.
var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
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

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimitRequests < 0 {
		errs = append(errs, "server: rate_limit_requests must not be negative")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow.Duration <= 0 {
		errs = append(errs, "server: rate_limit_window must be > 0 when rate limiting is enabled")
	}

	// Solana
	if c.Solana.RPCEndpoint == "" {
		errs = append(errs, "solana: rpc_endpoint must not be empty")
	}
	if !validCommitments[strings.ToLower(c.Solana.Commitment)] {
		errs = append(errs, fmt.Sprintf("solana: unknown commitment %q (valid: processed, confirmed, finalized)", c.Solana.Commitment))
	}
	if c.Solana.PoolAddress == "" {
		errs = append(errs, "solana: pool_address must not be empty")
	}
	if c.Solana.CallTimeout.Duration <= 0 {
		errs = append(errs, "solana: call_timeout must be > 0")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Oracle
	if c.Oracle.PriceURL == "" {
		errs = append(errs, "oracle: price_url must not be empty")
	}
	if c.Oracle.IdentityTTL.Duration <= 0 {
		errs = append(errs, "oracle: identity_ttl must be > 0")
	}

	// Tracker
	if c.Tracker.PollInterval.Duration <= 0 {
		errs = append(errs, "tracker: poll_interval must be > 0")
	}
	if c.Tracker.MaxAttempts < 1 {
		errs = append(errs, "tracker: max_attempts must be >= 1")
	}

	// Dust thresholds must parse as non-negative decimals.
	for _, f := range []struct{ name, value string }{
		{"dust.token_x", c.Dust.TokenX},
		{"dust.token_y", c.Dust.TokenY},
	} {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not a decimal", f.name, f.value))
		} else if d.IsNegative() {
			errs = append(errs, fmt.Sprintf("%s: must not be negative", f.name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
