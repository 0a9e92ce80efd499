// Package liquidity sizes flash loans against available pool depth. Borrowing
// too large a share of a pool moves the price against the trade before the
// arbitrage leg even starts.
package liquidity

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/apexomega/titan/internal/domain"
)

// maxPoolFractionBps caps the loan at 20% of the pool's TVL.
const maxPoolFractionBps = 2000

// minLoanWholeTokens is the floor below which an opportunity is not worth the
// gas. A clamped loan under 500 whole tokens aborts the evaluation.
const minLoanWholeTokens = 500

// Guard clamps requested loan sizes to what a pool can safely supply.
type Guard struct {
	tvl domain.TVLSource
	log *slog.Logger
}

// NewGuard creates a Guard over the given TVL source.
func NewGuard(tvl domain.TVLSource, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{tvl: tvl, log: log.With("component", "liquidity_guard")}
}

// ClampLoan returns the largest permissible loan no greater than requested,
// in raw token units. The result is zero when the pool cannot support at
// least the minimum viable loan; callers must abort the opportunity then.
// Clamping only ever shrinks the request.
func (g *Guard) ClampLoan(ctx context.Context, chainID int64, token string, decimals int, requested *big.Int) (*big.Int, error) {
	if requested == nil || requested.Sign() <= 0 {
		return big.NewInt(0), nil
	}

	tvl, err := g.tvl.PoolTVL(ctx, chainID, token)
	if err != nil {
		return nil, err
	}

	// limit = tvl * 20%
	limit := new(big.Int).Mul(tvl, big.NewInt(maxPoolFractionBps))
	limit.Div(limit, big.NewInt(10_000))

	loan := new(big.Int).Set(requested)
	if loan.Cmp(limit) > 0 {
		g.log.Debug("loan clamped to pool limit",
			"chain_id", chainID,
			"token", token,
			"requested", requested.String(),
			"cap", limit.String())
		loan.Set(limit)
	}

	floor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	floor.Mul(floor, big.NewInt(minLoanWholeTokens))
	if loan.Cmp(floor) < 0 {
		g.log.Debug("loan below viable floor, aborting",
			"chain_id", chainID,
			"token", token,
			"clamped", loan.String(),
			"floor", floor.String())
		return big.NewInt(0), nil
	}

	return loan, nil
}
