package scanner

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/profit"
	"github.com/apexomega/titan/internal/tokens"
)

// evaluateEdge evaluates one cross-chain edge end to end. It returns whether
// a profitable opportunity was found and whether it was handed to the
// executor. Evaluation is isolated: a panic or error in one edge is contained
// and never disturbs the rest of the cycle.
func (s *Scanner) evaluateEdge(ctx context.Context, edge domain.CrossChainEdge, gasByChain map[int64]domain.GasPrice) (hit, executed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("edge evaluation panicked",
				"src_chain", edge.SrcChain,
				"dst_chain", edge.DstChain,
				"token", edge.Token,
				"panic", r)
			hit, executed = false, false
		}
	}()

	srcEntry, err := s.registry.Entry(edge.SrcChain)
	if err != nil {
		return false, false
	}
	dstEntry, err := s.registry.Entry(edge.DstChain)
	if err != nil {
		return false, false
	}

	usdcSrc := tokens.Address(edge.SrcChain, loanSymbol)
	usdcDecimals := tokens.Decimals(edge.SrcChain, loanSymbol)

	loan, err := s.selectLoan(ctx, edge.SrcChain, usdcSrc, usdcDecimals)
	if err != nil {
		s.log.Debug("no viable loan for edge",
			"src_chain", edge.SrcChain,
			"token", edge.Token,
			"err", err)
		return false, false
	}

	gross, bridgeFeeUSD, err := s.simulateRoundTrip(ctx, edge, loan)
	if err != nil {
		s.log.Debug("route simulation failed",
			"src_chain", edge.SrcChain,
			"dst_chain", edge.DstChain,
			"token", edge.Token,
			"err", err)
		return false, false
	}
	if gross.Sign() == 0 {
		return false, false
	}

	gasUSD := gasCostUSD(srcEntry, gasByChain[edge.SrcChain]) + gasCostUSD(dstEntry, gasByChain[edge.DstChain])

	res := s.engine.Evaluate(
		decimalFromRaw(gross, usdcDecimals),
		decimalFromRaw(loan, usdcDecimals),
		costsFromUSD(bridgeFeeUSD, gasUSD),
	)
	if !res.Profitable {
		return false, false
	}

	s.log.Info("opportunity found",
		"src_chain", edge.SrcChain,
		"dst_chain", edge.DstChain,
		"token", edge.Token,
		"loan", loan.String(),
		"net_profit", res.Net.StringFixed(2))

	sig := s.buildSignal(edge, loan, res, gasUSD)
	if s.optimizer != nil {
		if err := s.optimizer.Tune(ctx, sig); err != nil {
			s.log.Warn("optimizer failed, using signal as-is", "trade_id", sig.ID, "err", err)
		}
	}

	result, err := s.exec.Execute(ctx, sig)
	if err != nil {
		s.log.Error("execution failed", "trade_id", sig.ID, "err", err)
		return true, false
	}
	return true, result.Status != domain.TradeFailed
}

// selectLoan finds the largest configured loan size the source pool can
// support, clamped by the liquidity guard.
func (s *Scanner) selectLoan(ctx context.Context, chainID int64, token string, decimals int) (*big.Int, error) {
	for i := len(s.cfg.LoanSizesWhole) - 1; i >= 0; i-- {
		requested := loanRaw(s.cfg.LoanSizesWhole[i], decimals)
		clamped, err := s.guard.ClampLoan(ctx, chainID, token, decimals, requested)
		if err != nil {
			return nil, err
		}
		if clamped.Sign() > 0 {
			return clamped, nil
		}
	}
	return nil, errNoViableLoan
}

// simulateRoundTrip prices the full route: swap the loan into the bridged
// asset on the source chain, bridge it, and swap back on the destination
// chain. It returns the gross output in loan-currency raw units plus the
// bridge fee in USD. A zero gross means some leg was unviable.
func (s *Scanner) simulateRoundTrip(ctx context.Context, edge domain.CrossChainEdge, loan *big.Int) (*big.Int, float64, error) {
	bridgeIn := loan
	// When the bridged asset is the loan currency itself there is nothing to
	// swap on either side.
	sameAsset := edge.Token == loanSymbol

	if !sameAsset {
		out, err := s.quotes.QuoteExactInput(ctx, edge.SrcChain,
			tokens.Address(edge.SrcChain, loanSymbol), edge.TokenAddrSrc, loan, s.cfg.FeeTier)
		if err != nil {
			return nil, 0, err
		}
		if out.Sign() == 0 {
			return big.NewInt(0), 0, nil
		}
		bridgeIn = out
	}

	route, err := s.bridges.BestRoute(ctx, edge.SrcChain, edge.DstChain, edge.Token, bridgeIn)
	if err != nil {
		return nil, 0, err
	}
	bridgeOut, ok := new(big.Int).SetString(route.EstOutput, 10)
	if !ok || bridgeOut.Sign() <= 0 {
		return big.NewInt(0), route.FeeUSD, nil
	}

	if sameAsset {
		return bridgeOut, route.FeeUSD, nil
	}

	gross, err := s.quotes.QuoteExactInput(ctx, edge.DstChain,
		edge.TokenAddrDst, tokens.Address(edge.DstChain, loanSymbol), bridgeOut, s.cfg.FeeTier)
	if err != nil {
		return nil, 0, err
	}
	return gross, route.FeeUSD, nil
}

// costsFromUSD converts dollar fee figures into profit engine costs. The
// loan currency is a dollar stablecoin, so the conversion is the identity.
func costsFromUSD(bridgeFee, gasFee float64) profit.Costs {
	return profit.Costs{
		BridgeFee: decimal.NewFromFloat(bridgeFee),
		GasFee:    decimal.NewFromFloat(gasFee),
	}
}
