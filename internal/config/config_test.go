package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidateWithPool(t *testing.T) {
	cfg := Defaults()
	cfg.Solana.PoolAddress = "9ZbzaqANrjhZ3dLDsbUh4EfTHZ6vcXTNyo2xDJVPt8cy"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Tracker.PollInterval.Duration)
	assert.Equal(t, 10, cfg.Tracker.MaxAttempts)
	assert.Equal(t, "0.001", cfg.Dust.TokenX)
	assert.Equal(t, "0.000001", cfg.Dust.TokenY)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	cfg.Solana.RPCEndpoint = ""
	cfg.Solana.Commitment = "eventually"
	cfg.Tracker.MaxAttempts = 0
	cfg.Dust.TokenX = "lots"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: port")
	assert.Contains(t, err.Error(), "rpc_endpoint")
	assert.Contains(t, err.Error(), "commitment")
	assert.Contains(t, err.Error(), "max_attempts")
	assert.Contains(t, err.Error(), "dust.token_x")
	assert.Contains(t, err.Error(), "pool_address")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
log_level = "debug"

[server]
port = 9100

[solana]
pool_address = "9ZbzaqANrjhZ3dLDsbUh4EfTHZ6vcXTNyo2xDJVPt8cy"

[tracker]
poll_interval = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("RHUN_SERVER_API_KEY", "sekrit")
	t.Setenv("RHUN_TRACKER_MAX_ATTEMPTS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Tracker.PollInterval.Duration)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, 4, cfg.Tracker.MaxAttempts)

	// Values absent from both file and env keep their defaults.
	assert.Equal(t, "confirmed", cfg.Solana.Commitment)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "key"
	cfg.Solana.WalletPrivateKey = "base58secret"
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "redispass"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Solana.WalletPrivateKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Redis.Password)

	// The original is untouched.
	assert.Equal(t, "key", cfg.Server.APIKey)
}
