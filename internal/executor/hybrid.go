package executor

import (
	"context"
	"log/slog"

	"github.com/apexomega/titan/internal/domain"
)

// Hybrid routes each signal by confidence: at or above the threshold it goes
// live, below it stays paper. A tie goes live; the threshold is the floor of
// acceptable confidence, not an open bound.
type Hybrid struct {
	live      Executor
	paper     Executor
	threshold float64
	log       *slog.Logger
}

// NewHybrid creates a hybrid executor over a live and a paper executor.
func NewHybrid(live, paper Executor, threshold float64, log *slog.Logger) *Hybrid {
	if log == nil {
		log = slog.Default()
	}
	return &Hybrid{
		live:      live,
		paper:     paper,
		threshold: threshold,
		log:       log.With("component", "hybrid_executor"),
	}
}

// Mode returns "hybrid".
func (h *Hybrid) Mode() string { return "hybrid" }

// Execute dispatches the signal to the executor its confidence earns.
func (h *Hybrid) Execute(ctx context.Context, signal *domain.TradeSignal) (*domain.ExecutionResult, error) {
	if signal.Confidence >= h.threshold {
		h.log.Debug("routing to live", "trade_id", signal.ID, "confidence", signal.Confidence)
		return h.live.Execute(ctx, signal)
	}
	h.log.Debug("routing to paper", "trade_id", signal.ID, "confidence", signal.Confidence)
	return h.paper.Execute(ctx, signal)
}

// RecordExecutionResult forwards to the live executor; only live trades have
// asynchronous outcomes.
func (h *Hybrid) RecordExecutionResult(ctx context.Context, result *domain.ExecutionResult) error {
	if result.IsPaper {
		return h.paper.RecordExecutionResult(ctx, result)
	}
	return h.live.RecordExecutionResult(ctx, result)
}

// Summary combines both sides' performance.
func (h *Hybrid) Summary() Summary {
	live := h.live.Summary()
	paper := h.paper.Summary()
	return Summary{
		Mode:       "hybrid",
		Trades:     live.Trades + paper.Trades,
		Wins:       live.Wins + paper.Wins,
		Losses:     live.Losses + paper.Losses,
		TotalPnL:   live.TotalPnL + paper.TotalPnL,
		BalanceUSD: paper.BalanceUSD,
	}
}
