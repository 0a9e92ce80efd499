package domain

import "time"

// TradeStatus tracks a trade through its lifecycle:
// PENDING -> SIMULATED (paper terminal) | SUBMITTED -> CONFIRMED | FAILED | REVERTED.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeSimulated TradeStatus = "simulated"
	TradeSubmitted TradeStatus = "submitted"
	TradeConfirmed TradeStatus = "confirmed"
	TradeFailed    TradeStatus = "failed"
	TradeReverted  TradeStatus = "reverted"
)

// Terminal reports whether the status is a final state.
func (s TradeStatus) Terminal() bool {
	switch s {
	case TradeSimulated, TradeConfirmed, TradeFailed, TradeReverted:
		return true
	}
	return false
}

// TradeSignal is the unit of work handed to an executor. It is built once by
// the scanner for a profitable opportunity and consumed exactly once.
type TradeSignal struct {
	ID          string   `json:"id"` // UUID for tracking and dedup
	ChainID     int64    `json:"chainId"`
	Token       string   `json:"token"`  // token address to borrow
	Amount      string   `json:"amount"` // raw loan amount, decimal string
	FlashSource int      `json:"flashSource"` // 1=Balancer V3, 2=Aave V3
	Protocols   []int    `json:"protocols"`
	Routers     []string `json:"routers"`
	Path        []string `json:"path"`
	Extras      [][]byte `json:"extras"` // opaque per-hop calldata

	ExpectedProfitUSD float64 `json:"expected_profit"`
	EstSlippageBps    int     `json:"estimated_slippage_bps"`
	GasCostUSD        float64 `json:"gas_cost"`
	Confidence        float64 `json:"confidence_score"` // [0, 1]

	// Hints carries free-form execution hints (advisory tuning output).
	Hints map[string]string `json:"hints,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ExecutionResult is what an executor returns for one submitted signal.
type ExecutionResult struct {
	TradeID   string      `json:"trade_id"`
	Status    TradeStatus `json:"status"`
	TxHash    string      `json:"tx_hash,omitempty"`
	NetProfit float64     `json:"net_profit,omitempty"`
	Error     string      `json:"error,omitempty"`
	IsPaper   bool        `json:"is_paper"`
	Timestamp time.Time   `json:"timestamp"`
}

// BridgeRoute is the quote returned by the bridge-route aggregator for a
// cross-chain transfer.
type BridgeRoute struct {
	Bridge    string
	EstOutput string // raw units, decimal string
	FeeUSD    float64
	TxData    []byte
}
