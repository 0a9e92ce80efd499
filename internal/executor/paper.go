package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apexomega/titan/internal/domain"
)

// paperSlippageFactor haircuts the expected profit to approximate the fill
// quality a live trade would get. Without it, paper results overstate every
// strategy.
const paperSlippageFactor = 0.998

// Paper simulates execution against a virtual balance. Every signal fills
// immediately at the slippage-adjusted expected profit.
type Paper struct {
	log      *slog.Logger
	tradeLog domain.TradeLog
	track    *tracker

	seq atomic.Int64

	mu      sync.Mutex
	balance float64
}

// NewPaper creates a paper executor with the given starting balance.
// tradeLog may be nil, in which case results are only tracked in memory.
func NewPaper(startingBalanceUSD float64, tradeLog domain.TradeLog, log *slog.Logger) *Paper {
	if log == nil {
		log = slog.Default()
	}
	return &Paper{
		log:      log.With("component", "paper_executor"),
		tradeLog: tradeLog,
		track:    newTracker(),
		balance:  startingBalanceUSD,
	}
}

// Mode returns "paper".
func (p *Paper) Mode() string { return "paper" }

// Execute simulates the signal: slippage-adjusted profit minus gas, a
// synthetic transaction id, and an immediately terminal SIMULATED status.
func (p *Paper) Execute(ctx context.Context, signal *domain.TradeSignal) (*domain.ExecutionResult, error) {
	n := p.seq.Add(1)
	txID := fmt.Sprintf("SIMULATED_PAPER_%d_%d", signal.ChainID, n)

	net := signal.ExpectedProfitUSD*paperSlippageFactor - signal.GasCostUSD

	p.mu.Lock()
	p.balance += net
	balance := p.balance
	p.mu.Unlock()

	result := &domain.ExecutionResult{
		TradeID:   signal.ID,
		Status:    domain.TradeSimulated,
		TxHash:    txID,
		NetProfit: net,
		IsPaper:   true,
		Timestamp: time.Now().UTC(),
	}

	p.track.record(signal.ID, net)

	if p.tradeLog != nil {
		if err := p.tradeLog.Append(ctx, result, signal); err != nil {
			p.log.Warn("trade log append failed", "trade_id", signal.ID, "err", err)
		}
	}

	p.log.Info("paper trade simulated",
		"trade_id", signal.ID,
		"chain_id", signal.ChainID,
		"tx_id", txID,
		"net_profit_usd", net,
		"balance_usd", balance)
	return result, nil
}

// RecordExecutionResult is a no-op for paper trades beyond dedup tracking;
// simulation is terminal at Execute time.
func (p *Paper) RecordExecutionResult(_ context.Context, result *domain.ExecutionResult) error {
	p.track.record(result.TradeID, result.NetProfit)
	return nil
}

// Summary reports simulated performance including the virtual balance.
func (p *Paper) Summary() Summary {
	trades, wins, losses, pnl := p.track.snapshot()
	p.mu.Lock()
	balance := p.balance
	p.mu.Unlock()
	return Summary{
		Mode:       "paper",
		Trades:     trades,
		Wins:       wins,
		Losses:     losses,
		TotalPnL:   pnl,
		BalanceUSD: balance,
	}
}
