package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	s3blob "github.com/apexomega/titan/internal/blob/s3"
	"github.com/apexomega/titan/internal/bridge"
	"github.com/apexomega/titan/internal/cache/redis"
	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/evm"
	"github.com/apexomega/titan/internal/execclient"
	"github.com/apexomega/titan/internal/executor"
	"github.com/apexomega/titan/internal/forecast"
	"github.com/apexomega/titan/internal/graph"
	"github.com/apexomega/titan/internal/liquidity"
	"github.com/apexomega/titan/internal/pricing"
	"github.com/apexomega/titan/internal/profit"
	"github.com/apexomega/titan/internal/readiness"
	"github.com/apexomega/titan/internal/scanner"
	"github.com/apexomega/titan/internal/store/postgres"
)

// Dependencies bundles every component the application needs to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Registry *chain.Registry
	Provider *evm.Provider

	Scanner   *scanner.Scanner
	Executor  executor.Executor
	Readiness *readiness.Validator

	// Execution service (optional live path).
	ExecManager *execclient.Manager
	ExecStream  *execclient.Stream

	// Archival (nil when Postgres or S3 is not configured).
	Archiver *s3blob.Archiver
}

// teeTradeLog fans each appended result out to every underlying log. Redis
// keeps the hot rolling window; Postgres keeps the durable record.
type teeTradeLog struct {
	logs []domain.TradeLog
}

func (t *teeTradeLog) Append(ctx context.Context, result *domain.ExecutionResult, signal *domain.TradeSignal) error {
	for _, l := range t.logs {
		if err := l.Append(ctx, result, signal); err != nil {
			return err
		}
	}
	return nil
}

// dispatchBus delivers signals to the execution layer. Redis pub/sub is the
// primary channel; when a publish fails the signal is submitted directly to
// the service over REST before the trade is declared failed.
type dispatchBus struct {
	primary domain.SignalBus
	manager *execclient.Manager
	log     *slog.Logger
}

func (b *dispatchBus) Publish(ctx context.Context, signal *domain.TradeSignal) error {
	err := b.primary.Publish(ctx, signal)
	if err == nil {
		return nil
	}
	b.log.Warn("signal publish failed, falling back to direct submit",
		"trade_id", signal.ID, "error", err)

	resp, subErr := b.manager.Submit(ctx, signal)
	if subErr != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: service rejected signal: %s", domain.ErrBusUnavailable, resp.ErrorMsg)
	}
	return nil
}

// serviceProbe adapts the execution service health endpoint to the readiness
// validator's probe interface.
type serviceProbe struct {
	client *execclient.Client
}

func (p *serviceProbe) Probe(ctx context.Context) error {
	health, err := p.client.Health(ctx)
	if err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("service reports status %q", health.Status)
	}
	return nil
}

// loanSizes parses the configured whole-token loan amounts, dropping entries
// that are not positive integers.
func loanSizes(raw []string, log *slog.Logger) []int64 {
	var out []int64
	for _, s := range raw {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			log.Warn("ignoring invalid loan size", "value", s)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Chains ---
	deps.Registry = chain.NewRegistry(cfg.Chains, logger)
	deps.Provider = evm.NewProvider(deps.Registry, logger)
	closers = append(closers, deps.Provider.Close)

	gasCache := evm.NewGasCache(deps.Provider, logger)
	guard := liquidity.NewGuard(evm.NewVaultTVL(deps.Provider), logger)
	simulator := pricing.NewSimulator(deps.Provider, logger)

	// --- Bridge routes ---
	bridgeClient := bridge.New(cfg.Bridge.BaseURL, cfg.Bridge.APIKey, cfg.Bridge.Timeout.Duration, logger)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	pending := redis.NewPendingTxSet(redisClient)

	// --- External execution service ---
	svcClient := execclient.NewClient(cfg.ExecSvc.Host, cfg.ExecSvc.Port, cfg.ExecSvc.Timeout.Duration, logger)
	deps.ExecManager = execclient.NewManager(svcClient, cfg.ExecSvc.Retries, logger)
	deps.ExecStream = execclient.NewStream(cfg.ExecSvc.Host, cfg.ExecSvc.Port, logger)

	bus := &dispatchBus{
		primary: redis.NewSignalBus(redisClient),
		manager: deps.ExecManager,
		log:     logger.With("component", "dispatch_bus"),
	}

	tradeLogs := []domain.TradeLog{redis.NewTradeLog(redisClient)}

	// --- PostgreSQL (optional durable trade records) ---
	if cfg.Postgres.DSN != "" || cfg.Postgres.Host != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		store := postgres.NewTradeRecordStore(pgClient.Pool())
		tradeLogs = append(tradeLogs, store)

		// --- S3 archival, only meaningful with the durable store ---
		if cfg.S3.Bucket != "" {
			s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
				Endpoint:       cfg.S3.Endpoint,
				Region:         cfg.S3.Region,
				Bucket:         cfg.S3.Bucket,
				AccessKey:      cfg.S3.AccessKey,
				SecretKey:      cfg.S3.SecretKey,
				UseSSL:         cfg.S3.UseSSL,
				ForcePathStyle: cfg.S3.ForcePathStyle,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: s3: %w", err)
			}
			deps.Archiver = s3blob.NewArchiver(s3Client, store, logger)
		}
	}

	tradeLog := domain.TradeLog(&teeTradeLog{logs: tradeLogs})

	// --- Forecasting ---
	var (
		forecaster domain.Forecaster
		recorder   scanner.GasRecorder
	)
	if cfg.Scanner.ForecastEnabled {
		trend := forecast.NewGasTrend(logger)
		forecaster = trend
		recorder = trend
	} else {
		forecaster = forecast.Always{}
	}

	// --- Execution ---
	exec, err := executor.New(cfg, executor.Deps{
		Registry: deps.Registry,
		Pending:  pending,
		Bus:      bus,
		TradeLog: tradeLog,
		Log:      logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: executor: %w", err)
	}
	deps.Executor = exec

	// --- Scanner ---
	deps.Scanner = scanner.New(
		scanner.Config{
			Interval:        cfg.Scanner.Interval.Duration,
			Workers:         cfg.Scanner.Workers,
			PrimaryChainID:  cfg.Scanner.PrimaryChainID,
			LoanSizesWhole:  loanSizes(cfg.Scanner.LoanSizes, logger),
			FeeTier:         cfg.Scanner.FeeTier,
			ForecastEnabled: cfg.Scanner.ForecastEnabled,
			RequestTimeout:  cfg.Scanner.RequestTimeout.Duration,
		},
		deps.Registry,
		graph.Build(deps.Registry.ActiveIDs()),
		gasCache,
		forecaster,
		recorder,
		guard,
		simulator,
		bridgeClient,
		profit.NewEngine(profit.DefaultFlashFeeRate),
		forecast.StaticOptimizer{},
		exec,
		logger,
	)

	// --- Readiness ---
	deps.Readiness = readiness.New(*cfg, deps.Registry, deps.Provider, redisClient, &serviceProbe{client: svcClient}, logger)

	return deps, cleanup, nil
}
