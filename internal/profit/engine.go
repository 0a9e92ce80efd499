// Package profit computes net arbitrage profit with exact decimal arithmetic.
// Float drift on fee math is how paper winners become live losers, so every
// figure stays a decimal until the final report.
package profit

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultFlashFeeRate is the flash-loan fee fraction applied to the borrowed
// principal. Balancer charges nothing; Aave V3 charges 5 bps. The engine
// defaults to the Aave rate so paper results never flatter live ones.
var DefaultFlashFeeRate = decimal.NewFromFloat(0.0005)

// Costs are the deductions applied to a gross arbitrage output. All values
// share the loan's denomination.
type Costs struct {
	BridgeFee decimal.Decimal
	GasFee    decimal.Decimal
	// FlashFeeRate overrides the engine's rate when positive.
	FlashFeeRate decimal.Decimal
}

// Result is the outcome of evaluating one opportunity.
type Result struct {
	Gross      decimal.Decimal
	Loan       decimal.Decimal
	TotalFees  decimal.Decimal
	Net        decimal.Decimal
	Profitable bool
}

// Engine evaluates opportunities against a configured flash fee rate.
type Engine struct {
	flashFeeRate decimal.Decimal
}

// NewEngine creates an Engine. A zero or negative rate falls back to
// DefaultFlashFeeRate.
func NewEngine(flashFeeRate decimal.Decimal) *Engine {
	if flashFeeRate.Sign() <= 0 {
		flashFeeRate = DefaultFlashFeeRate
	}
	return &Engine{flashFeeRate: flashFeeRate}
}

// Evaluate computes net profit for repaying loan out of gross after fees:
//
//	net = gross - loan - (bridgeFee + gasFee + loan*flashFeeRate)
//
// Profitable requires net strictly above zero; breaking even is a loss once
// the transaction is real.
func (e *Engine) Evaluate(gross, loan decimal.Decimal, costs Costs) Result {
	rate := e.flashFeeRate
	if costs.FlashFeeRate.Sign() > 0 {
		rate = costs.FlashFeeRate
	}

	flashFee := loan.Mul(rate)
	totalFees := costs.BridgeFee.Add(costs.GasFee).Add(flashFee)
	net := gross.Sub(loan).Sub(totalFees)

	return Result{
		Gross:      gross,
		Loan:       loan,
		TotalFees:  totalFees,
		Net:        net,
		Profitable: net.IsPositive(),
	}
}

// FromRaw converts a raw token amount into whole-token decimal units.
func FromRaw(amount *big.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ToRaw converts whole-token units back to a raw integer amount, truncating
// any fraction below one raw unit.
func ToRaw(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}
