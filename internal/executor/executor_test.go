package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/keys"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubPending struct {
	count    int64
	countErr error
	added    []string
	removed  []string
}

func (s *stubPending) Add(_ context.Context, id string) error {
	s.added = append(s.added, id)
	return nil
}

func (s *stubPending) Remove(_ context.Context, id string) error {
	s.removed = append(s.removed, id)
	return nil
}

func (s *stubPending) Count(context.Context) (int64, error) {
	return s.count, s.countErr
}

type stubBus struct {
	published []*domain.TradeSignal
	err       error
}

func (s *stubBus) Publish(_ context.Context, sig *domain.TradeSignal) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, sig)
	return nil
}

type stubTradeLog struct {
	appended []*domain.ExecutionResult
	signals  []*domain.TradeSignal
}

func (s *stubTradeLog) Append(_ context.Context, r *domain.ExecutionResult, sig *domain.TradeSignal) error {
	s.appended = append(s.appended, r)
	s.signals = append(s.signals, sig)
	return nil
}

func testRegistry(t *testing.T) *chain.Registry {
	t.Helper()
	return chain.NewRegistry(config.ChainsConfig{
		RPC: map[string]string{
			"polygon":  "https://polygon-rpc.example.com",
			"ethereum": "https://eth-rpc.example.com",
		},
		Executors: map[string]string{"polygon": "0x1111111111111111111111111111111111111111"},
	}, nil)
}

func validSignal() *domain.TradeSignal {
	return &domain.TradeSignal{
		ID:                uuid.NewString(),
		ChainID:           137,
		Token:             "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Amount:            "10000000000",
		ExpectedProfitUSD: 25.0,
		EstSlippageBps:    20,
		GasCostUSD:        0.8,
		Confidence:        0.90,
	}
}

func liveConfig() LiveConfig {
	return LiveConfig{
		MinProfitUSD:     5.0,
		MaxSlippageBps:   50,
		MaxConcurrentTxs: 3,
		PrivateKey:       "0xrealkey",
	}
}

// ---------------------------------------------------------------------------
// Paper
// ---------------------------------------------------------------------------

func TestPaperExecute(t *testing.T) {
	tl := &stubTradeLog{}
	p := NewPaper(10_000, tl, nil)

	sig := validSignal()
	res, err := p.Execute(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeSimulated, res.Status)
	assert.True(t, res.IsPaper)
	assert.Equal(t, "SIMULATED_PAPER_137_1", res.TxHash)
	// 25 * 0.998 - 0.8
	assert.InDelta(t, 24.15, res.NetProfit, 1e-9)
	assert.Len(t, tl.appended, 1)

	sum := p.Summary()
	assert.Equal(t, int64(1), sum.Trades)
	assert.Equal(t, int64(1), sum.Wins)
	assert.InDelta(t, 10_024.15, sum.BalanceUSD, 1e-9)
}

func TestPaperTxIDsIncrement(t *testing.T) {
	p := NewPaper(0, nil, nil)

	r1, err := p.Execute(context.Background(), validSignal())
	require.NoError(t, err)
	r2, err := p.Execute(context.Background(), validSignal())
	require.NoError(t, err)

	assert.Equal(t, "SIMULATED_PAPER_137_1", r1.TxHash)
	assert.Equal(t, "SIMULATED_PAPER_137_2", r2.TxHash)
}

func TestPaperLossCountsAgainstBalance(t *testing.T) {
	p := NewPaper(100, nil, nil)

	sig := validSignal()
	sig.ExpectedProfitUSD = 0.5
	sig.GasCostUSD = 2.0

	res, err := p.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Negative(t, res.NetProfit)

	sum := p.Summary()
	assert.Equal(t, int64(1), sum.Losses)
	assert.Less(t, sum.BalanceUSD, 100.0)
}

// ---------------------------------------------------------------------------
// Live pre-flight
// ---------------------------------------------------------------------------

func newLive(t *testing.T, cfg LiveConfig, pending *stubPending, bus *stubBus) *Live {
	t.Helper()
	return NewLive(cfg, testRegistry(t), pending, bus, &stubTradeLog{}, nil)
}

func TestLiveExecuteHappyPath(t *testing.T) {
	pending := &stubPending{}
	bus := &stubBus{}
	l := newLive(t, liveConfig(), pending, bus)

	sig := validSignal()
	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeSubmitted, res.Status)
	require.Len(t, bus.published, 1)
	assert.Equal(t, sig.ID, bus.published[0].ID)
	assert.Equal(t, []string{sig.ID}, pending.added)
}

func TestLiveRejectsBelowMinProfit(t *testing.T) {
	bus := &stubBus{}
	l := newLive(t, liveConfig(), &stubPending{}, bus)

	sig := validSignal()
	sig.ExpectedProfitUSD = 4.99

	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "$4.99 below $5.00 minimum")
	assert.Empty(t, bus.published)
}

func TestLiveAcceptsExactMinProfit(t *testing.T) {
	bus := &stubBus{}
	l := newLive(t, liveConfig(), &stubPending{}, bus)

	sig := validSignal()
	sig.ExpectedProfitUSD = 5.00

	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSubmitted, res.Status)
}

func TestLiveRejectsExcessSlippage(t *testing.T) {
	l := newLive(t, liveConfig(), &stubPending{}, &stubBus{})

	sig := validSignal()
	sig.EstSlippageBps = 51

	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "slippage 51bps above 50bps maximum")
}

func TestLiveRejectsWhenInFlightLimitReached(t *testing.T) {
	l := newLive(t, liveConfig(), &stubPending{count: 3}, &stubBus{})

	res, err := l.Execute(context.Background(), validSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "3 transactions in flight, limit 3")
}

func TestLiveSkipsInFlightCheckWhenCacheDown(t *testing.T) {
	pending := &stubPending{countErr: errors.New("connection refused")}
	bus := &stubBus{}
	l := newLive(t, liveConfig(), pending, bus)

	res, err := l.Execute(context.Background(), validSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSubmitted, res.Status)
	assert.Len(t, bus.published, 1)
}

func TestLiveRejectsPlaceholderCredentials(t *testing.T) {
	cfg := liveConfig()
	cfg.PrivateKey = config.PlaceholderPrivateKey
	l := newLive(t, cfg, &stubPending{}, &stubBus{})

	res, err := l.Execute(context.Background(), validSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "private key")
}

func TestLiveRejectsMissingFields(t *testing.T) {
	l := newLive(t, liveConfig(), &stubPending{}, &stubBus{})

	for _, tc := range []struct {
		name   string
		mutate func(*domain.TradeSignal)
		want   string
	}{
		{"no id", func(s *domain.TradeSignal) { s.ID = "" }, "id"},
		{"no chain", func(s *domain.TradeSignal) { s.ChainID = 0 }, "chainId"},
		{"no token", func(s *domain.TradeSignal) { s.Token = "" }, "token"},
		{"no amount", func(s *domain.TradeSignal) { s.Amount = "" }, "amount"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sig := validSignal()
			tc.mutate(sig)

			res, err := l.Execute(context.Background(), sig)
			require.NoError(t, err)
			assert.Equal(t, domain.TradeFailed, res.Status)
			assert.True(t, strings.HasPrefix(res.Error, "missing required field"), res.Error)
			assert.Contains(t, res.Error, tc.want)
		})
	}
}

func TestLiveRejectsNonExecutableChain(t *testing.T) {
	l := newLive(t, liveConfig(), &stubPending{}, &stubBus{})

	sig := validSignal()
	sig.ChainID = 1 // configured, scan-only

	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "not enabled for execution")
}

func TestLiveFailsWhenBusUnavailable(t *testing.T) {
	bus := &stubBus{err: domain.ErrBusUnavailable}
	l := newLive(t, liveConfig(), &stubPending{}, bus)

	res, err := l.Execute(context.Background(), validSignal())
	require.NoError(t, err)
	assert.Equal(t, domain.TradeFailed, res.Status)
	assert.Contains(t, res.Error, "signal bus unavailable")
}

func TestLiveRecordExecutionResultIdempotent(t *testing.T) {
	pending := &stubPending{}
	tl := &stubTradeLog{}
	l := NewLive(liveConfig(), testRegistry(t), pending, &stubBus{}, tl, nil)

	result := &domain.ExecutionResult{
		TradeID:   "trade-1",
		Status:    domain.TradeConfirmed,
		TxHash:    "0xhash",
		NetProfit: 12.0,
	}
	require.NoError(t, l.RecordExecutionResult(context.Background(), result))
	require.NoError(t, l.RecordExecutionResult(context.Background(), result))

	sum := l.Summary()
	assert.Equal(t, int64(1), sum.Trades)
	assert.InDelta(t, 12.0, sum.TotalPnL, 1e-9)
	assert.Len(t, tl.appended, 1)
	assert.Equal(t, []string{"trade-1", "trade-1"}, pending.removed)
}

func TestLiveRecordKeepsSignalContext(t *testing.T) {
	tl := &stubTradeLog{}
	l := NewLive(liveConfig(), testRegistry(t), &stubPending{}, &stubBus{}, tl, nil)

	sig := validSignal()
	res, err := l.Execute(context.Background(), sig)
	require.NoError(t, err)
	require.Equal(t, domain.TradeSubmitted, res.Status)

	require.NoError(t, l.RecordExecutionResult(context.Background(), &domain.ExecutionResult{
		TradeID:   sig.ID,
		Status:    domain.TradeConfirmed,
		TxHash:    "0xhash",
		NetProfit: 18.0,
	}))

	require.Len(t, tl.signals, 1)
	logged := tl.signals[0]
	require.NotNil(t, logged, "the submitted signal travels with its result")
	assert.Equal(t, sig.ChainID, logged.ChainID)
	assert.Equal(t, sig.Token, logged.Token)
	assert.Equal(t, sig.Amount, logged.Amount)
	assert.InDelta(t, sig.ExpectedProfitUSD, logged.ExpectedProfitUSD, 1e-9)
}

func TestLiveRecordIgnoresNonTerminal(t *testing.T) {
	l := newLive(t, liveConfig(), &stubPending{}, &stubBus{})

	require.NoError(t, l.RecordExecutionResult(context.Background(), &domain.ExecutionResult{
		TradeID: "trade-2",
		Status:  domain.TradeSubmitted,
	}))
	assert.Equal(t, int64(0), l.Summary().Trades)
}

// ---------------------------------------------------------------------------
// Hybrid
// ---------------------------------------------------------------------------

func TestHybridRouting(t *testing.T) {
	bus := &stubBus{}
	live := newLive(t, liveConfig(), &stubPending{}, bus)
	paper := NewPaper(1000, nil, nil)
	h := NewHybrid(live, paper, 0.85, nil)

	// Above threshold goes live.
	sig := validSignal()
	sig.Confidence = 0.95
	res, err := h.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSubmitted, res.Status)

	// Exactly at threshold also goes live.
	sig = validSignal()
	sig.Confidence = 0.85
	res, err = h.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSubmitted, res.Status)

	// Below threshold stays paper.
	sig = validSignal()
	sig.Confidence = 0.84
	res, err = h.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSimulated, res.Status)
	assert.True(t, res.IsPaper)

	assert.Len(t, bus.published, 2)
	assert.Equal(t, int64(1), paper.Summary().Trades)
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

func TestFactoryModes(t *testing.T) {
	cfg := config.Defaults()
	deps := Deps{
		Registry: testRegistry(t),
		Pending:  &stubPending{},
		Bus:      &stubBus{},
	}

	for mode, want := range map[string]string{
		"paper":  "paper",
		"live":   "live",
		"hybrid": "hybrid",
	} {
		cfg.Execution.Mode = mode
		ex, err := New(&cfg, deps)
		require.NoError(t, err, mode)
		assert.Equal(t, want, ex.Mode())
	}

	cfg.Execution.Mode = "turbo"
	_, err := New(&cfg, deps)
	assert.Error(t, err)
}

func TestFactoryLiveNeedsBus(t *testing.T) {
	cfg := config.Defaults()
	cfg.Execution.Mode = "live"

	_, err := New(&cfg, Deps{Registry: testRegistry(t)})
	assert.Error(t, err)
}

func TestResolveSigningKey(t *testing.T) {
	const keyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	cfg := config.Defaults()
	cfg.Wallet.PrivateKey = "0x" + keyHex
	assert.Equal(t, "0x"+keyHex, resolveSigningKey(&cfg, nil))

	// Encrypted key file wins over the shipped placeholder.
	blob, err := keys.Encrypt(keyHex, "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	cfg = config.Defaults()
	cfg.Wallet.EncryptedKeyPath = path
	cfg.Wallet.KeyPassword = "pw"
	assert.Equal(t, "0x"+keyHex, resolveSigningKey(&cfg, nil))

	// Unresolvable key falls back to the raw configured value so the
	// pre-flight check reports it per trade.
	cfg = config.Defaults()
	assert.Equal(t, config.PlaceholderPrivateKey, resolveSigningKey(&cfg, nil))
}
