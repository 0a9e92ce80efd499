// Package config defines the top-level configuration for the titan scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder credential values shipped in the example config. Live execution
// refuses to run while either is still in place.
const (
	PlaceholderPrivateKey      = "0xYOUR_REAL_PRIVATE_KEY_HERE"
	PlaceholderExecutorAddress = "0xYOUR_DEPLOYED_CONTRACT_ADDRESS_HERE"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by environment variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Chains    ChainsConfig    `toml:"chains"`
	Execution ExecutionConfig `toml:"execution"`
	Scanner   ScannerConfig   `toml:"scanner"`
	ExecSvc   ExecSvcConfig   `toml:"exec_service"`
	Bridge    BridgeConfig    `toml:"bridge"`
	Redis     RedisConfig     `toml:"redis"`
	Postgres  PostgresConfig  `toml:"postgres"`
	S3        S3Config        `toml:"s3"`
	LogLevel  string          `toml:"log_level"`
}

// WalletConfig holds signing credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ChainsConfig holds per-chain RPC endpoints and deployed executor contract
// addresses, keyed by chain name.
type ChainsConfig struct {
	RPC       map[string]string `toml:"rpc"`
	WSS       map[string]string `toml:"wss"`
	Executors map[string]string `toml:"executors"`
}

// ExecutionConfig holds execution-mode parameters and live-trading guards.
type ExecutionConfig struct {
	// Mode selects the execution strategy: "paper", "live", "hybrid".
	Mode                string  `toml:"mode"`
	MinProfitUSD        float64 `toml:"min_profit_usd"`
	MaxSlippageBps      int     `toml:"max_slippage_bps"`
	MaxConcurrentTxs    int64   `toml:"max_concurrent_txs"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	PaperBalanceUSD     float64 `toml:"paper_balance_usd"`
}

// ScannerConfig holds opportunity-scan parameters.
type ScannerConfig struct {
	Interval        duration `toml:"interval"`
	Workers         int      `toml:"workers"`
	PrimaryChainID  int64    `toml:"primary_chain_id"`
	LoanSizes       []string `toml:"loan_sizes"` // raw whole-token amounts to probe
	FeeTier         int      `toml:"fee_tier"`
	ForecastEnabled bool     `toml:"forecast_enabled"`
	RequestTimeout  duration `toml:"request_timeout"` // per network call within a cycle
}

// ExecSvcConfig holds the endpoint of the external execution service.
type ExecSvcConfig struct {
	Host    string   `toml:"host"`
	Port    int      `toml:"port"`
	Timeout duration `toml:"timeout"`
	Retries int      `toml:"retries"`
}

// BridgeConfig holds bridge-route aggregator parameters.
type BridgeConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
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

// S3Config holds S3-compatible object storage parameters for trade archives.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
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
		Wallet: WalletConfig{
			PrivateKey: PlaceholderPrivateKey,
		},
		Chains: ChainsConfig{
			RPC:       map[string]string{},
			WSS:       map[string]string{},
			Executors: map[string]string{},
		},
		Execution: ExecutionConfig{
			Mode:                "paper",
			MinProfitUSD:        5.0,
			MaxSlippageBps:      50,
			MaxConcurrentTxs:    3,
			ConfidenceThreshold: 0.85,
			PaperBalanceUSD:     10_000.0,
		},
		Scanner: ScannerConfig{
			Interval:        duration{15 * time.Second},
			Workers:         20,
			PrimaryChainID:  137,
			LoanSizes:       []string{"1000", "5000", "10000"},
			FeeTier:         500,
			ForecastEnabled: true,
			RequestTimeout:  duration{10 * time.Second},
		},
		ExecSvc: ExecSvcConfig{
			Host:    "localhost",
			Port:    8545,
			Timeout: duration{30 * time.Second},
			Retries: 3,
		},
		Bridge: BridgeConfig{
			BaseURL: "https://li.quest/v1",
			Timeout: duration{20 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "titan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "titan-trades",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Execution.Mode.
var validModes = map[string]bool{
	"paper":  true,
	"live":   true,
	"hybrid": true,
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

	mode := strings.ToLower(c.Execution.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("execution: unknown mode %q (valid: paper, live, hybrid)", c.Execution.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Execution guards
	if c.Execution.MinProfitUSD < 0 {
		errs = append(errs, "execution: min_profit_usd must be >= 0")
	}
	if c.Execution.MaxSlippageBps <= 0 {
		errs = append(errs, "execution: max_slippage_bps must be > 0")
	}
	if c.Execution.MaxConcurrentTxs < 1 {
		errs = append(errs, "execution: max_concurrent_txs must be >= 1")
	}
	if c.Execution.ConfidenceThreshold < 0 || c.Execution.ConfidenceThreshold > 1 {
		errs = append(errs, "execution: confidence_threshold must be in [0, 1]")
	}

	// Wallet — live and hybrid modes need a real signing key.
	needsWallet := mode == "live" || mode == "hybrid"
	if needsWallet {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode "+mode)
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	// Scanner
	if c.Scanner.Workers < 1 {
		errs = append(errs, "scanner: workers must be >= 1")
	}
	if c.Scanner.PrimaryChainID <= 0 {
		errs = append(errs, "scanner: primary_chain_id must be positive")
	}
	if c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be > 0")
	}
	if len(c.Scanner.LoanSizes) == 0 {
		errs = append(errs, "scanner: loan_sizes must not be empty")
	}
	if c.Scanner.RequestTimeout.Duration <= 0 {
		errs = append(errs, "scanner: request_timeout must be > 0")
	}

	// Execution service endpoint
	if c.ExecSvc.Host == "" {
		errs = append(errs, "exec_service: host must not be empty")
	}
	if c.ExecSvc.Port <= 0 || c.ExecSvc.Port > 65535 {
		errs = append(errs, fmt.Sprintf("exec_service: port must be 1-65535, got %d", c.ExecSvc.Port))
	}
	if c.ExecSvc.Retries < 1 {
		errs = append(errs, "exec_service: retries must be >= 1")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
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

	// S3
	if c.S3.Endpoint == "" {
		errs = append(errs, "s3: endpoint must not be empty")
	}
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
