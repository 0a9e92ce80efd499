package scanner

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/executor"
	"github.com/apexomega/titan/internal/graph"
	"github.com/apexomega/titan/internal/liquidity"
	"github.com/apexomega/titan/internal/profit"
	"github.com/apexomega/titan/internal/tokens"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubGas struct {
	gwei map[int64]float64
	errs map[int64]error
}

func (s *stubGas) GasPrice(_ context.Context, chainID int64) (domain.GasPrice, error) {
	if err := s.errs[chainID]; err != nil {
		return domain.GasPrice{}, err
	}
	g := s.gwei[chainID]
	return domain.GasPrice{ChainID: chainID, Wei: uint64(g * 1e9), Gwei: g}, nil
}

// hangingGas never answers; only context expiry releases the caller.
type hangingGas struct{}

func (hangingGas) GasPrice(ctx context.Context, chainID int64) (domain.GasPrice, error) {
	<-ctx.Done()
	return domain.GasPrice{}, ctx.Err()
}

// hangingQuotes never answers; only context expiry releases the caller.
type hangingQuotes struct{}

func (hangingQuotes) QuoteExactInput(ctx context.Context, _ int64, _, _ string, _ *big.Int, _ int) (*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubForecaster struct {
	favorable bool
}

func (s *stubForecaster) Favorable(context.Context, int64) (bool, float64, error) {
	return s.favorable, 0.9, nil
}

type stubTVL struct{ tvl *big.Int }

func (s *stubTVL) PoolTVL(context.Context, int64, string) (*big.Int, error) {
	return s.tvl, nil
}

// stubQuotes returns zero for every pair unless a panic trigger matches.
// USDC legs never reach it because the bridged asset is the loan currency.
type stubQuotes struct {
	mu      sync.Mutex
	panicOn string // tokenOut address that triggers a panic
	calls   int
}

func (s *stubQuotes) QuoteExactInput(_ context.Context, _ int64, _, tokenOut string, _ *big.Int, _ int) (*big.Int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicOn != "" && tokenOut == s.panicOn {
		panic("quoter blew up")
	}
	return big.NewInt(0), nil
}

// stubBridges yields a profitable USDC route only from srcProfit.
type stubBridges struct {
	srcProfit int64
}

func (s *stubBridges) BestRoute(_ context.Context, srcChain, _ int64, token string, amount *big.Int) (*domain.BridgeRoute, error) {
	out := new(big.Int).Set(amount)
	if token == "USDC" && srcChain == s.srcProfit {
		// 0.3% better on the far side.
		out.Mul(out, big.NewInt(1003))
		out.Div(out, big.NewInt(1000))
	}
	return &domain.BridgeRoute{Bridge: "stargate", EstOutput: out.String(), FeeUSD: 2.0}, nil
}

type stubExecutor struct {
	mu      sync.Mutex
	signals []*domain.TradeSignal
}

func (s *stubExecutor) Mode() string { return "stub" }

func (s *stubExecutor) Execute(_ context.Context, sig *domain.TradeSignal) (*domain.ExecutionResult, error) {
	s.mu.Lock()
	s.signals = append(s.signals, sig)
	s.mu.Unlock()
	return &domain.ExecutionResult{TradeID: sig.ID, Status: domain.TradeSubmitted}, nil
}

func (s *stubExecutor) RecordExecutionResult(context.Context, *domain.ExecutionResult) error {
	return nil
}

func (s *stubExecutor) Summary() executor.Summary { return executor.Summary{Mode: "stub"} }

func (s *stubExecutor) captured() []*domain.TradeSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.TradeSignal(nil), s.signals...)
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type harness struct {
	scanner *Scanner
	exec    *stubExecutor
	quotes  *stubQuotes
	gas     *stubGas
}

func newHarness(t *testing.T, mutate func(*harness)) *harness {
	t.Helper()

	registry := chain.NewRegistry(config.ChainsConfig{
		RPC: map[string]string{
			"polygon":  "https://polygon-rpc.example.com",
			"arbitrum": "https://arb-rpc.example.com",
		},
		Executors: map[string]string{"polygon": "0x1111111111111111111111111111111111111111"},
	}, nil)

	h := &harness{
		exec:   &stubExecutor{},
		quotes: &stubQuotes{},
		gas:    &stubGas{gwei: map[int64]float64{137: 30, 42161: 0.1}},
	}
	if mutate != nil {
		mutate(h)
	}

	// Enough TVL that a 10k loan is never clamped.
	guard := liquidity.NewGuard(&stubTVL{tvl: new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000))}, nil)

	h.scanner = New(
		Config{
			Interval:        time.Second,
			Workers:         4,
			PrimaryChainID:  137,
			LoanSizesWhole:  []int64{1000, 10_000},
			FeeTier:         500,
			ForecastEnabled: true,
		},
		registry,
		graph.Build([]int64{137, 42161}),
		h.gas,
		&stubForecaster{favorable: true},
		nil,
		guard,
		h.quotes,
		&stubBridges{srcProfit: 137},
		profit.NewEngine(decimal.Zero),
		nil,
		h.exec,
		nil,
	)
	return h
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCycleFindsProfitableEdge(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.scanner.RunCycle(context.Background()))

	signals := h.exec.captured()
	require.Len(t, signals, 1, "only the profitable USDC edge should execute")

	sig := signals[0]
	assert.Equal(t, int64(137), sig.ChainID)
	assert.Equal(t, tokens.Address(137, "USDC"), sig.Token)
	assert.Equal(t, "10000000000", sig.Amount, "largest viable loan, raw units")
	assert.Positive(t, sig.ExpectedProfitUSD)
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, 1, sig.FlashSource)

	stats := h.scanner.Stats()
	assert.Equal(t, int64(1), stats.Cycles)
	assert.Equal(t, int64(1), stats.Opportunities)
	assert.Equal(t, int64(1), stats.Executed)
}

func TestUnfavorableForecastSkipsCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.scanner.forecaster = &stubForecaster{favorable: false}

	require.NoError(t, h.scanner.RunCycle(context.Background()))

	assert.Empty(t, h.exec.captured())
	assert.Equal(t, 0, h.quotes.calls, "no edges evaluated on a vetoed cycle")
}

func TestGasFetchFailureSkipsChainEdges(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.gas = &stubGas{
			gwei: map[int64]float64{137: 30},
			errs: map[int64]error{42161: errors.New("rpc timeout")},
		}
	})

	// The cycle completes despite the unreachable chain; every edge touches
	// it here, so nothing is evaluated, but scanning is not aborted.
	require.NoError(t, h.scanner.RunCycle(context.Background()))
	assert.Empty(t, h.exec.captured())
	assert.Equal(t, 0, h.quotes.calls)
	assert.Equal(t, int64(1), h.scanner.Stats().Cycles)
}

func TestHungGasEndpointDoesNotStallCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.scanner.gas = hangingGas{}
	h.scanner.cfg.RequestTimeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- h.scanner.RunCycle(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cycle blocked on a hung gas endpoint")
	}
	assert.Empty(t, h.exec.captured())
}

func TestHungQuoterDoesNotStallCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.scanner.quotes = hangingQuotes{}
	h.scanner.cfg.RequestTimeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- h.scanner.RunCycle(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cycle blocked on a hung quoter")
	}

	// The USDC edge never touches the quoter, so it still executes while the
	// hung edges time out around it.
	assert.Len(t, h.exec.captured(), 1)
}

func TestPanickingEdgeDoesNotPoisonCycle(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.quotes = &stubQuotes{panicOn: tokens.Address(137, "WETH")}
	})

	require.NoError(t, h.scanner.RunCycle(context.Background()))

	// The profitable USDC edge still executes despite the WETH edge panicking.
	assert.Len(t, h.exec.captured(), 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.scanner.Run(ctx) }()

	// Let at least one cycle happen, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}
}
