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
// built-in defaults, applies environment variable overrides, and returns the
// final Config. A missing file is not an error: defaults plus environment
// variables are enough to run paper mode. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known environment variables and overwrites the
// corresponding Config fields when a variable is set (i.e. not empty). This
// lets operators inject secrets at deploy time without touching the TOML file.
// Both the bare legacy names (RPC_POLYGON, PRIVATE_KEY, ...) and prefixed
// TITAN_* names are honored; the legacy names win so existing deployments keep
// working.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "TITAN_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.PrivateKey, "PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "TITAN_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "TITAN_WALLET_KEY_PASSWORD")

	// ── Chains ──
	setMapEntry(cfg.Chains.RPC, "polygon", "RPC_POLYGON")
	setMapEntry(cfg.Chains.RPC, "ethereum", "RPC_ETHEREUM")
	setMapEntry(cfg.Chains.RPC, "arbitrum", "RPC_ARBITRUM")
	setMapEntry(cfg.Chains.RPC, "base", "RPC_BASE")
	setMapEntry(cfg.Chains.RPC, "optimism", "RPC_OPTIMISM")
	setMapEntry(cfg.Chains.WSS, "polygon", "WSS_POLYGON")
	setMapEntry(cfg.Chains.WSS, "ethereum", "WSS_ETHEREUM")
	setMapEntry(cfg.Chains.WSS, "arbitrum", "WSS_ARBITRUM")
	setMapEntry(cfg.Chains.Executors, "polygon", "EXECUTOR_ADDRESS_POLYGON")
	setMapEntry(cfg.Chains.Executors, "ethereum", "EXECUTOR_ADDRESS_ETHEREUM")
	setMapEntry(cfg.Chains.Executors, "arbitrum", "EXECUTOR_ADDRESS_ARBITRUM")
	setMapEntry(cfg.Chains.Executors, "polygon", "EXECUTOR_ADDRESS") // single-chain alias

	// ── Execution ──
	setStr(&cfg.Execution.Mode, "TITAN_EXECUTION_MODE")
	setStr(&cfg.Execution.Mode, "EXECUTION_MODE")
	setFloat64(&cfg.Execution.MinProfitUSD, "MIN_PROFIT_USD")
	setInt(&cfg.Execution.MaxSlippageBps, "MAX_SLIPPAGE_BPS")
	setInt64(&cfg.Execution.MaxConcurrentTxs, "MAX_CONCURRENT_TXS")
	setFloat64(&cfg.Execution.ConfidenceThreshold, "HYBRID_CONFIDENCE_THRESHOLD")
	setFloat64(&cfg.Execution.PaperBalanceUSD, "TITAN_PAPER_BALANCE_USD")

	// ── Scanner ──
	setDuration(&cfg.Scanner.Interval, "TITAN_SCANNER_INTERVAL")
	setInt(&cfg.Scanner.Workers, "TITAN_SCANNER_WORKERS")
	setInt64(&cfg.Scanner.PrimaryChainID, "TITAN_SCANNER_PRIMARY_CHAIN_ID")
	setInt(&cfg.Scanner.FeeTier, "TITAN_SCANNER_FEE_TIER")
	setBool(&cfg.Scanner.ForecastEnabled, "TITAN_SCANNER_FORECAST_ENABLED")
	setDuration(&cfg.Scanner.RequestTimeout, "TITAN_SCANNER_REQUEST_TIMEOUT")
	setStringSlice(&cfg.Scanner.LoanSizes, "TITAN_SCANNER_LOAN_SIZES")

	// ── Execution service ──
	setStr(&cfg.ExecSvc.Host, "EXECUTION_HOST")
	setInt(&cfg.ExecSvc.Port, "EXECUTION_PORT")
	setDuration(&cfg.ExecSvc.Timeout, "EXECUTION_TIMEOUT")
	setInt(&cfg.ExecSvc.Retries, "EXECUTION_RETRIES")

	// ── Bridge ──
	setStr(&cfg.Bridge.BaseURL, "TITAN_BRIDGE_BASE_URL")
	setStr(&cfg.Bridge.APIKey, "TITAN_BRIDGE_API_KEY")
	setDuration(&cfg.Bridge.Timeout, "TITAN_BRIDGE_TIMEOUT")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TITAN_REDIS_ADDR")
	setStr(&cfg.Redis.Addr, "REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TITAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TITAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TITAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TITAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TITAN_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TITAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "TITAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TITAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TITAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TITAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TITAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TITAN_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TITAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TITAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TITAN_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TITAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TITAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "TITAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TITAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TITAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TITAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TITAN_S3_FORCE_PATH_STYLE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "TITAN_LOG_LEVEL")
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

func setMapEntry(dst map[string]string, mapKey, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		dst[mapKey] = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
