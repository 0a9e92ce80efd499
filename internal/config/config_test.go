package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "paper", cfg.Execution.Mode)
	assert.Equal(t, 5.0, cfg.Execution.MinProfitUSD)
	assert.Equal(t, 50, cfg.Execution.MaxSlippageBps)
	assert.Equal(t, int64(3), cfg.Execution.MaxConcurrentTxs)
	assert.Equal(t, 0.85, cfg.Execution.ConfidenceThreshold)
	assert.Equal(t, int64(137), cfg.Scanner.PrimaryChainID)
	assert.Equal(t, 20, cfg.Scanner.Workers)
	assert.Equal(t, 10*time.Second, cfg.Scanner.RequestTimeout.Duration)
	assert.Equal(t, "localhost", cfg.ExecSvc.Host)
	assert.Equal(t, 8545, cfg.ExecSvc.Port)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
log_level = "debug"

[execution]
mode = "hybrid"
min_profit_usd = 12.5

[chains.rpc]
polygon = "https://polygon-rpc.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "hybrid", cfg.Execution.Mode)
	assert.Equal(t, 12.5, cfg.Execution.MinProfitUSD)
	assert.Equal(t, "https://polygon-rpc.example.com", cfg.Chains.RPC["polygon"])
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Execution.MaxSlippageBps)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "paper", cfg.Execution.Mode)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "live")
	t.Setenv("MIN_PROFIT_USD", "7.25")
	t.Setenv("MAX_SLIPPAGE_BPS", "30")
	t.Setenv("MAX_CONCURRENT_TXS", "5")
	t.Setenv("RPC_POLYGON", "https://polygon.example.com")
	t.Setenv("PRIVATE_KEY", "0xabc123")
	t.Setenv("EXECUTOR_ADDRESS_POLYGON", "0xdeployed")
	t.Setenv("EXECUTION_HOST", "exec.internal")
	t.Setenv("EXECUTION_PORT", "9000")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "live", cfg.Execution.Mode)
	assert.Equal(t, 7.25, cfg.Execution.MinProfitUSD)
	assert.Equal(t, 30, cfg.Execution.MaxSlippageBps)
	assert.Equal(t, int64(5), cfg.Execution.MaxConcurrentTxs)
	assert.Equal(t, "https://polygon.example.com", cfg.Chains.RPC["polygon"])
	assert.Equal(t, "0xabc123", cfg.Wallet.PrivateKey)
	assert.Equal(t, "0xdeployed", cfg.Chains.Executors["polygon"])
	assert.Equal(t, "exec.internal", cfg.ExecSvc.Host)
	assert.Equal(t, 9000, cfg.ExecSvc.Port)
}

func TestEnvOverridesIgnoreMalformedNumbers(t *testing.T) {
	t.Setenv("MIN_PROFIT_USD", "not-a-number")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 5.0, cfg.Execution.MinProfitUSD)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Execution.Mode = "turbo"
	cfg.Execution.MaxSlippageBps = 0
	cfg.Scanner.Workers = 0
	cfg.Scanner.RequestTimeout = duration{}
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "turbo"`)
	assert.Contains(t, err.Error(), "max_slippage_bps")
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "request_timeout")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestValidateLiveModeNeedsWallet(t *testing.T) {
	cfg := Defaults()
	cfg.Execution.Mode = "live"
	cfg.Wallet.PrivateKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet")
}
