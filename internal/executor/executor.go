// Package executor routes approved trade signals into paper simulation or
// live submission. All execution-mode policy lives here; the scanner only
// decides that an opportunity is profitable, never how it is acted on.
package executor

import (
	"context"
	"sync"

	"github.com/apexomega/titan/internal/domain"
)

// Executor consumes trade signals. Execute never broadcasts directly: live
// execution publishes to the signal bus for the external execution service.
type Executor interface {
	Mode() string
	Execute(ctx context.Context, signal *domain.TradeSignal) (*domain.ExecutionResult, error)
	RecordExecutionResult(ctx context.Context, result *domain.ExecutionResult) error
	Summary() Summary
}

// Summary is a point-in-time performance snapshot for one executor.
type Summary struct {
	Mode       string  `json:"mode"`
	Trades     int64   `json:"trades"`
	Wins       int64   `json:"wins"`
	Losses     int64   `json:"losses"`
	TotalPnL   float64 `json:"total_pnl"`
	BalanceUSD float64 `json:"balance_usd,omitempty"`
}

// tracker accumulates per-executor performance, applying each trade id at
// most once so duplicate result deliveries cannot double-count.
type tracker struct {
	mu       sync.Mutex
	recorded map[string]bool
	trades   int64
	wins     int64
	losses   int64
	totalPnL float64
}

func newTracker() *tracker {
	return &tracker{recorded: make(map[string]bool)}
}

// record applies one result. It returns false when the trade id was already
// recorded.
func (t *tracker) record(tradeID string, pnl float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.recorded[tradeID] {
		return false
	}
	t.recorded[tradeID] = true

	t.trades++
	if pnl > 0 {
		t.wins++
	} else {
		t.losses++
	}
	t.totalPnL += pnl
	return true
}

func (t *tracker) snapshot() (trades, wins, losses int64, totalPnL float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trades, t.wins, t.losses, t.totalPnL
}
