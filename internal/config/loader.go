package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RHUN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RHUN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "RHUN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "RHUN_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "RHUN_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitRequests, "RHUN_SERVER_RATE_LIMIT_REQUESTS")
	setDuration(&cfg.Server.RateLimitWindow, "RHUN_SERVER_RATE_LIMIT_WINDOW")

	// ── Solana ──
	setStr(&cfg.Solana.RPCEndpoint, "RHUN_SOLANA_RPC_ENDPOINT")
	setStr(&cfg.Solana.Commitment, "RHUN_SOLANA_COMMITMENT")
	setStr(&cfg.Solana.PoolAddress, "RHUN_SOLANA_POOL_ADDRESS")
	setStr(&cfg.Solana.WalletPrivateKey, "RHUN_SOLANA_WALLET_PRIVATE_KEY")
	setDuration(&cfg.Solana.CallTimeout, "RHUN_SOLANA_CALL_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "RHUN_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "RHUN_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "RHUN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RHUN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RHUN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RHUN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RHUN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RHUN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "RHUN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "RHUN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "RHUN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "RHUN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RHUN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RHUN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RHUN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "RHUN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "RHUN_REDIS_TLS_ENABLED")

	// ── Oracle ──
	setStr(&cfg.Oracle.PriceURL, "RHUN_ORACLE_PRICE_URL")
	setDuration(&cfg.Oracle.IdentityTTL, "RHUN_ORACLE_IDENTITY_TTL")

	// ── Tracker ──
	setDuration(&cfg.Tracker.PollInterval, "RHUN_TRACKER_POLL_INTERVAL")
	setInt(&cfg.Tracker.MaxAttempts, "RHUN_TRACKER_MAX_ATTEMPTS")

	// ── Dust ──
	setStr(&cfg.Dust.TokenX, "RHUN_DUST_TOKEN_X")
	setStr(&cfg.Dust.TokenY, "RHUN_DUST_TOKEN_Y")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "RHUN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
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
