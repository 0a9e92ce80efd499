// Package pricing prices exact-input swaps through the Uniswap V3 QuoterV2
// via eth_call, without spending gas.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/apexomega/titan/internal/evm"
)

// quoterV2 is the canonical QuoterV2 deployment, shared across Uniswap V3
// chains.
const quoterV2 = "0x61fFE014bA17989E743c5F6cB21bF9697530B21e"

// DefaultFeeTier is the 0.05% pool tier probed when no tier is specified.
const DefaultFeeTier = 500

const quoterABI = `[{"inputs":[{"components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"fee","type":"uint24"},{"name":"sqrtPriceLimitX96","type":"uint160"}],"name":"params","type":"tuple"}],"name":"quoteExactInputSingle","outputs":[{"name":"amountOut","type":"uint256"},{"name":"sqrtPriceX96After","type":"uint160"},{"name":"initializedTicksCrossed","type":"uint32"},{"name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	parsedQuoter     abi.ABI
	parsedQuoterOnce sync.Once
)

func quoter() abi.ABI {
	parsedQuoterOnce.Do(func() {
		var err error
		parsedQuoter, err = abi.JSON(strings.NewReader(quoterABI))
		if err != nil {
			panic(fmt.Sprintf("parse quoter abi: %v", err))
		}
	})
	return parsedQuoter
}

type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type backendSource interface {
	Backend(ctx context.Context, chainID int64) (evm.Backend, error)
}

// Simulator implements domain.QuoteSource against QuoterV2. A reverting quote
// (no pool, no liquidity at the tier) yields a zero output rather than an
// error, so callers treat unviable routes as worthless instead of broken.
type Simulator struct {
	source  backendSource
	address common.Address
	log     *slog.Logger
}

// NewSimulator creates a quoter over the given backend source.
func NewSimulator(source backendSource, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		source:  source,
		address: common.HexToAddress(quoterV2),
		log:     log.With("component", "price_simulator"),
	}
}

// QuoteExactInput returns the output amount for swapping amountIn of tokenIn
// into tokenOut at the given fee tier. feeTier <= 0 selects DefaultFeeTier.
func (s *Simulator) QuoteExactInput(ctx context.Context, chainID int64, tokenIn, tokenOut string, amountIn *big.Int, feeTier int) (*big.Int, error) {
	if feeTier <= 0 {
		feeTier = DefaultFeeTier
	}

	backend, err := s.source.Backend(ctx, chainID)
	if err != nil {
		return nil, err
	}

	data, err := quoter().Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           common.HexToAddress(tokenIn),
		TokenOut:          common.HexToAddress(tokenOut),
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(feeTier)),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("pack quote: %w", err)
	}

	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &s.address, Data: data}, nil)
	if err != nil {
		// QuoterV2 reverts when the pool does not exist or cannot fill the
		// amount. That is a price of zero, not a failure.
		s.log.Debug("quote reverted",
			"chain_id", chainID,
			"token_in", tokenIn,
			"token_out", tokenOut,
			"fee_tier", feeTier,
			"err", err)
		return big.NewInt(0), nil
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := quoter().Unpack("quoteExactInputSingle", out)
	if err != nil {
		return nil, fmt.Errorf("unpack quote: %w", err)
	}
	amountOut, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected quote result type %T", unpacked[0])
	}
	return amountOut, nil
}
