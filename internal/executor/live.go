package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
)

// LiveConfig are the pre-flight guards applied before any signal reaches the
// execution service.
type LiveConfig struct {
	MinProfitUSD     float64
	MaxSlippageBps   int
	MaxConcurrentTxs int64
	PrivateKey       string
}

// Live publishes validated signals to the signal bus for the external
// execution service. Nothing leaves Execute without passing every pre-flight
// check; a rejected signal produces a FAILED result with the reason, not an
// error.
type Live struct {
	cfg      LiveConfig
	registry *chain.Registry
	pending  domain.PendingTxSet
	bus      domain.SignalBus
	tradeLog domain.TradeLog
	log      *slog.Logger
	track    *tracker

	// submitted holds each published signal until its terminal result
	// arrives, so trade log entries keep the chain, token, and sizing
	// context the result alone lacks.
	mu        sync.Mutex
	submitted map[string]*domain.TradeSignal
}

// NewLive creates a live executor.
func NewLive(cfg LiveConfig, registry *chain.Registry, pending domain.PendingTxSet, bus domain.SignalBus, tradeLog domain.TradeLog, log *slog.Logger) *Live {
	if log == nil {
		log = slog.Default()
	}
	return &Live{
		cfg:       cfg,
		registry:  registry,
		pending:   pending,
		bus:       bus,
		tradeLog:  tradeLog,
		log:       log.With("component", "live_executor"),
		track:     newTracker(),
		submitted: make(map[string]*domain.TradeSignal),
	}
}

// Mode returns "live".
func (l *Live) Mode() string { return "live" }

// Execute runs the pre-flight checks and, if every one passes, publishes the
// signal for execution. The returned result is SUBMITTED on success and
// FAILED with the rejection reason otherwise.
func (l *Live) Execute(ctx context.Context, signal *domain.TradeSignal) (*domain.ExecutionResult, error) {
	if reason := l.preflight(ctx, signal); reason != "" {
		l.log.Warn("signal rejected pre-flight", "trade_id", signal.ID, "reason", reason)
		return l.failed(signal, reason), nil
	}

	if err := l.bus.Publish(ctx, signal); err != nil {
		l.log.Error("signal publish failed", "trade_id", signal.ID, "err", err)
		return l.failed(signal, fmt.Sprintf("signal bus unavailable: %v", err)), nil
	}

	l.mu.Lock()
	l.submitted[signal.ID] = signal
	l.mu.Unlock()

	if err := l.pending.Add(ctx, signal.ID); err != nil {
		// The signal is already on the bus; losing the pending entry only
		// loosens the concurrency guard for this one trade.
		l.log.Warn("pending set add failed", "trade_id", signal.ID, "err", err)
	}

	l.log.Info("signal submitted for execution",
		"trade_id", signal.ID,
		"chain_id", signal.ChainID,
		"expected_profit_usd", signal.ExpectedProfitUSD,
		"confidence", signal.Confidence)

	return &domain.ExecutionResult{
		TradeID:   signal.ID,
		Status:    domain.TradeSubmitted,
		Timestamp: time.Now().UTC(),
	}, nil
}

// preflight returns an empty string when the signal may go live, otherwise
// the rejection reason. Checks run cheapest-first.
func (l *Live) preflight(ctx context.Context, signal *domain.TradeSignal) string {
	// 1. Required fields.
	switch {
	case signal.ID == "":
		return "missing required field: id"
	case signal.ChainID <= 0:
		return "missing required field: chainId"
	case signal.Token == "":
		return "missing required field: token"
	case signal.Amount == "" || signal.Amount == "0":
		return "missing required field: amount"
	}

	entry, err := l.registry.Entry(signal.ChainID)
	if err != nil {
		return fmt.Sprintf("chain %d not in registry", signal.ChainID)
	}
	if !l.registry.Executable(signal.ChainID) {
		return fmt.Sprintf("chain %s not enabled for execution", entry.Desc.Name)
	}

	// 2. Profit threshold.
	if signal.ExpectedProfitUSD < l.cfg.MinProfitUSD {
		return fmt.Sprintf("expected profit $%.2f below $%.2f minimum", signal.ExpectedProfitUSD, l.cfg.MinProfitUSD)
	}

	// 3. Slippage ceiling.
	if signal.EstSlippageBps > l.cfg.MaxSlippageBps {
		return fmt.Sprintf("estimated slippage %dbps above %dbps maximum", signal.EstSlippageBps, l.cfg.MaxSlippageBps)
	}

	// 4. In-flight concurrency. An unreachable pending set skips the check
	// rather than freezing execution on a cache outage.
	if n, err := l.pending.Count(ctx); err != nil {
		l.log.Warn("pending count unavailable, skipping in-flight check", "err", err)
	} else if n >= l.cfg.MaxConcurrentTxs {
		return fmt.Sprintf("%d transactions in flight, limit %d", n, l.cfg.MaxConcurrentTxs)
	}

	// 5. Signing key must be real.
	if l.cfg.PrivateKey == "" || l.cfg.PrivateKey == config.PlaceholderPrivateKey {
		return "private key is not configured"
	}

	// 6. Executor contract must be deployed.
	if entry.Executor == "" || entry.Executor == config.PlaceholderExecutorAddress {
		return fmt.Sprintf("executor contract not deployed on %s", entry.Desc.Name)
	}

	return ""
}

func (l *Live) failed(signal *domain.TradeSignal, reason string) *domain.ExecutionResult {
	return &domain.ExecutionResult{
		TradeID:   signal.ID,
		Status:    domain.TradeFailed,
		Error:     reason,
		Timestamp: time.Now().UTC(),
	}
}

// RecordExecutionResult ingests a terminal outcome reported by the execution
// service. It is idempotent per trade id: duplicates clear the pending entry
// again but never double-count performance.
func (l *Live) RecordExecutionResult(ctx context.Context, result *domain.ExecutionResult) error {
	if err := l.pending.Remove(ctx, result.TradeID); err != nil {
		l.log.Warn("pending set remove failed", "trade_id", result.TradeID, "err", err)
	}

	if !result.Status.Terminal() {
		return nil
	}

	if !l.track.record(result.TradeID, result.NetProfit) {
		return nil
	}

	l.mu.Lock()
	signal := l.submitted[result.TradeID]
	delete(l.submitted, result.TradeID)
	l.mu.Unlock()

	if l.tradeLog != nil {
		if err := l.tradeLog.Append(ctx, result, signal); err != nil {
			l.log.Warn("trade log append failed", "trade_id", result.TradeID, "err", err)
		}
	}

	l.log.Info("execution result recorded",
		"trade_id", result.TradeID,
		"status", result.Status,
		"tx_hash", result.TxHash,
		"net_profit_usd", result.NetProfit)
	return nil
}

// Summary reports live performance.
func (l *Live) Summary() Summary {
	trades, wins, losses, pnl := l.track.snapshot()
	return Summary{
		Mode:     "live",
		Trades:   trades,
		Wins:     wins,
		Losses:   losses,
		TotalPnL: pnl,
	}
}
