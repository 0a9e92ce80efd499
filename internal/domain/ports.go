package domain

import (
	"context"
	"math/big"
)

// TVLSource reports the lockable value of a token pool on a chain, in raw
// token units.
type TVLSource interface {
	PoolTVL(ctx context.Context, chainID int64, token string) (*big.Int, error)
}

// GasSource returns the current gas price for a chain.
type GasSource interface {
	GasPrice(ctx context.Context, chainID int64) (GasPrice, error)
}

// QuoteSource prices an exact-input swap on a chain. A zero output with a nil
// error means the route is unviable (quoter reverted or pool missing).
type QuoteSource interface {
	QuoteExactInput(ctx context.Context, chainID int64, tokenIn, tokenOut string, amountIn *big.Int, feeTier int) (*big.Int, error)
}

// BridgeRouter quotes cross-chain transfers between two chains.
type BridgeRouter interface {
	BestRoute(ctx context.Context, srcChain, dstChain int64, token string, amount *big.Int) (*BridgeRoute, error)
}

// PendingTxSet tracks transaction ids that have been submitted but not yet
// resolved. Implementations back this with shared state so multiple processes
// observe the same in-flight count.
type PendingTxSet interface {
	Add(ctx context.Context, txID string) error
	Remove(ctx context.Context, txID string) error
	Count(ctx context.Context) (int64, error)
}

// SignalBus publishes trade signals to downstream executors.
type SignalBus interface {
	Publish(ctx context.Context, signal *TradeSignal) error
}

// TradeLog records executed trades for later analysis.
type TradeLog interface {
	Append(ctx context.Context, result *ExecutionResult, signal *TradeSignal) error
}

// Forecaster scores near-term market conditions for a chain. A false verdict
// tells the scanner to sit the cycle out.
type Forecaster interface {
	Favorable(ctx context.Context, chainID int64) (bool, float64, error)
}

// Optimizer annotates a signal with execution hints and a confidence score.
type Optimizer interface {
	Tune(ctx context.Context, signal *TradeSignal) error
}
