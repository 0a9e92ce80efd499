// Package app provides the top-level application lifecycle for the arbitrage
// scanner. It wires together all dependencies (chain registry, EVM providers,
// caches, stores, executors, the scan loop) and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/execclient"
)

// archiveInterval is how often durable trade records are snapshotted to
// object storage when archival is configured.
const archiveInterval = 24 * time.Hour

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, runs the readiness
// check, starts the scan loop and its companion goroutines, and blocks until
// the context is cancelled. On return it runs all registered cleanup
// functions via Close.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Execution.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if report := deps.Readiness.Validate(ctx); !report.Ready {
		return errors.New("app: system readiness check failed")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Scanner.Run(gctx)
	})

	g.Go(func() error {
		a.consumeStatusUpdates(gctx, deps)
		return nil
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(gctx, archiveInterval)
		})
	}

	err = g.Wait()

	summary := deps.Executor.Summary()
	a.logger.Info("execution summary",
		slog.String("mode", summary.Mode),
		slog.Int64("trades", summary.Trades),
		slog.Int64("wins", summary.Wins),
		slog.Int64("losses", summary.Losses),
		slog.Float64("total_pnl", summary.TotalPnL),
	)

	return err
}

// consumeStatusUpdates subscribes to the execution service's status stream
// and feeds confirmations back into the executor. The stream is optional: a
// failed connect leaves the system running on locally-known results only.
func (a *App) consumeStatusUpdates(ctx context.Context, deps *Dependencies) {
	if err := deps.ExecStream.Connect(ctx); err != nil {
		a.logger.Warn("execution service stream unavailable", "error", err)
		return
	}
	defer func() { _ = deps.ExecStream.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-deps.ExecStream.Updates():
			if !ok {
				a.logger.Warn("execution service stream closed")
				return
			}
			a.applyStatusUpdate(ctx, deps, update)
		}
	}
}

func (a *App) applyStatusUpdate(ctx context.Context, deps *Dependencies, update execclient.StatusUpdate) {
	result := &domain.ExecutionResult{
		TradeID:   update.TradeID,
		Status:    update.Status,
		TxHash:    update.TxHash,
		NetProfit: update.NetProfit,
		Error:     update.Error,
		Timestamp: time.Now().UTC(),
	}
	if err := deps.Executor.RecordExecutionResult(ctx, result); err != nil {
		a.logger.Warn("recording execution result",
			"trade_id", update.TradeID,
			"status", string(update.Status),
			"error", err,
		)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
