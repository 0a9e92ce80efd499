// Package scanner runs the opportunity scan loop: fetch gas, consult the
// forecaster, fan out over the cross-chain graph, and hand profitable
// opportunities to the executor.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/executor"
	"github.com/apexomega/titan/internal/graph"
	"github.com/apexomega/titan/internal/liquidity"
	"github.com/apexomega/titan/internal/profit"
	"github.com/apexomega/titan/internal/tokens"
)

// loanSymbol is the borrow currency. Everything is priced in and out of it,
// and it doubles as the USD unit for profit thresholds.
const loanSymbol = "USDC"

// swapRouter is the Uniswap SwapRouter02, deployed at the same address on
// every supported chain.
const swapRouter = "0x68b3465833fb72A70ecDF485E0e4C7bd8665Fc45"

// executionGasUnits is the gas budget carried on every signal. Matches the
// executor contract's worst-case flash loan round trip.
const executionGasUnits = 500_000

// defaultSlippageBps is the slippage estimate attached to signals until a
// per-pool model replaces it.
const defaultSlippageBps = 20

// nativeUSD is a coarse native-token price table used only for gas cost
// estimates. Gas is a rounding error next to loan sizes, so coarse is fine.
var nativeUSD = map[string]float64{
	"POL": 0.45,
	"ETH": 2600,
}

// Config are the scan loop parameters.
type Config struct {
	Interval        time.Duration
	Workers         int
	PrimaryChainID  int64
	LoanSizesWhole  []int64
	FeeTier         int
	ForecastEnabled bool

	// RequestTimeout bounds every network call made during a cycle: gas
	// fetches and full edge evaluations. A hung endpoint becomes a failed
	// call instead of a stuck worker.
	RequestTimeout time.Duration
}

// GasRecorder is the forecaster's ingest side. Satisfied by
// *forecast.GasTrend; the Always forecaster needs no samples.
type GasRecorder interface {
	Record(chainID int64, gwei float64)
}

// Scanner drives repeated scan cycles until its context ends.
type Scanner struct {
	cfg        Config
	registry   *chain.Registry
	graph      *graph.Graph
	gas        domain.GasSource
	forecaster domain.Forecaster
	recorder   GasRecorder
	guard      *liquidity.Guard
	quotes     domain.QuoteSource
	bridges    domain.BridgeRouter
	engine     *profit.Engine
	optimizer  domain.Optimizer
	exec       executor.Executor
	log        *slog.Logger

	cycles        atomic.Int64
	opportunities atomic.Int64
	executed      atomic.Int64
}

// New creates a Scanner. recorder may be nil when the forecaster does not
// consume gas samples.
func New(
	cfg Config,
	registry *chain.Registry,
	g *graph.Graph,
	gas domain.GasSource,
	forecaster domain.Forecaster,
	recorder GasRecorder,
	guard *liquidity.Guard,
	quotes domain.QuoteSource,
	bridges domain.BridgeRouter,
	engine *profit.Engine,
	optimizer domain.Optimizer,
	exec executor.Executor,
	log *slog.Logger,
) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Scanner{
		cfg:        cfg,
		registry:   registry,
		graph:      g,
		gas:        gas,
		forecaster: forecaster,
		recorder:   recorder,
		guard:      guard,
		quotes:     quotes,
		bridges:    bridges,
		engine:     engine,
		optimizer:  optimizer,
		exec:       exec,
		log:        log.With("component", "scanner"),
	}
}

// Run executes scan cycles at the configured interval until ctx is done. A
// failed cycle is logged and the loop continues; only context cancellation
// stops the scanner.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info("scanner started",
		"interval", s.cfg.Interval,
		"workers", s.cfg.Workers,
		"edges", len(s.graph.Edges()))

	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("scan cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			s.log.Info("scanner stopped", "cycles", s.cycles.Load())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one complete scan: gas refresh, forecast gate, then a
// bounded concurrent sweep of every graph edge. The cycle does not return
// until every in-flight evaluation has finished, so cycles never overlap.
func (s *Scanner) RunCycle(ctx context.Context) error {
	n := s.cycles.Add(1)
	start := time.Now()

	gasByChain := s.fetchGas(ctx)

	if s.recorder != nil {
		for id, gp := range gasByChain {
			s.recorder.Record(id, gp.Gwei)
		}
	}

	if s.cfg.ForecastEnabled {
		ok, conf, err := s.forecaster.Favorable(ctx, s.cfg.PrimaryChainID)
		if err != nil {
			s.log.Warn("forecast unavailable, proceeding", "err", err)
		} else if !ok {
			s.log.Info("cycle skipped: unfavorable forecast",
				"cycle", n,
				"chain_id", s.cfg.PrimaryChainID,
				"confidence", conf)
			return nil
		}
	}

	sem := semaphore.NewWeighted(int64(s.cfg.Workers))
	var found, acted atomic.Int64

	for _, edge := range s.graph.Edges() {
		edge := edge
		// Edges touching a chain whose gas fetch failed sit this cycle out;
		// profit math with a missing gas figure is a guess, not an estimate.
		if _, ok := gasByChain[edge.SrcChain]; !ok {
			continue
		}
		if _, ok := gasByChain[edge.DstChain]; !ok {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		go func() {
			defer sem.Release(1)
			evalCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
			hit, executed := s.evaluateEdge(evalCtx, edge, gasByChain)
			if hit {
				found.Add(1)
			}
			if executed {
				acted.Add(1)
			}
		}()
	}

	// Cycle barrier: reclaim the full semaphore so no evaluation from this
	// cycle outlives it.
	if err := sem.Acquire(context.Background(), int64(s.cfg.Workers)); err != nil {
		return err
	}
	sem.Release(int64(s.cfg.Workers))

	s.opportunities.Add(found.Load())
	s.executed.Add(acted.Load())

	s.log.Info("scan cycle complete",
		"cycle", n,
		"duration", time.Since(start).Round(time.Millisecond),
		"edges", len(s.graph.Edges()),
		"opportunities", found.Load(),
		"executed", acted.Load())
	return nil
}

// fetchGas retrieves gas prices for every active chain concurrently, each
// request under its own timeout. An unreachable chain is logged and omitted
// from the result so the remaining chains keep scanning; its edges are
// skipped for the cycle.
func (s *Scanner) fetchGas(ctx context.Context) map[int64]domain.GasPrice {
	entries := s.registry.Active()
	results := make([]*domain.GasPrice, len(entries))

	var eg errgroup.Group
	for i, e := range entries {
		i, e := i, e
		eg.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
			gp, err := s.gas.GasPrice(callCtx, e.Desc.ChainID)
			if err != nil {
				s.log.Warn("gas fetch failed, skipping chain this cycle",
					"chain", e.Desc.Name,
					"err", err)
				return nil
			}
			results[i] = &gp
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[int64]domain.GasPrice, len(entries))
	for _, gp := range results {
		if gp != nil {
			out[gp.ChainID] = *gp
		}
	}
	return out
}

// Stats is a snapshot of lifetime scanner counters.
type Stats struct {
	Cycles        int64 `json:"cycles"`
	Opportunities int64 `json:"opportunities"`
	Executed      int64 `json:"executed"`
}

// Stats returns the scanner's counters.
func (s *Scanner) Stats() Stats {
	return Stats{
		Cycles:        s.cycles.Load(),
		Opportunities: s.opportunities.Load(),
		Executed:      s.executed.Load(),
	}
}

// gasCostUSD estimates the dollar cost of one execution on the chain.
func gasCostUSD(entry *chain.Entry, gp domain.GasPrice) float64 {
	price := nativeUSD[entry.Desc.NativeSymbol]
	nativeSpent := gp.Gwei * float64(executionGasUnits) / 1e9
	return nativeSpent * price
}

// loanRaw converts a whole-token loan size into raw units.
func loanRaw(whole int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, big.NewInt(whole))
}

var errNoViableLoan = fmt.Errorf("no viable loan size")

// buildSignal assembles the trade signal for a profitable evaluation.
func (s *Scanner) buildSignal(edge domain.CrossChainEdge, loan *big.Int, res profit.Result, gasUSD float64) *domain.TradeSignal {
	usdcSrc := tokens.Address(edge.SrcChain, loanSymbol)
	usdcDst := tokens.Address(edge.DstChain, loanSymbol)

	sig := &domain.TradeSignal{
		ID:          uuid.NewString(),
		ChainID:     edge.SrcChain,
		Token:       usdcSrc,
		Amount:      loan.String(),
		FlashSource: 1,
		Protocols:   []int{3, 3},
		Routers:     []string{swapRouter, swapRouter},
		Path:        []string{usdcSrc, edge.TokenAddrSrc, edge.TokenAddrDst, usdcDst},
		Extras:      [][]byte{},

		ExpectedProfitUSD: res.Net.InexactFloat64(),
		EstSlippageBps:    defaultSlippageBps,
		GasCostUSD:        gasUSD,
		CreatedAt:         time.Now().UTC(),
	}
	return sig
}

// decimalFromRaw converts raw token units to whole units as a decimal.
func decimalFromRaw(raw *big.Int, decimals int) decimal.Decimal {
	return profit.FromRaw(raw, decimals)
}
