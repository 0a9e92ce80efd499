// Package forecast scores near-term market conditions. The scanner consults
// it before fanning out a cycle: when gas on the primary chain is spiking,
// sitting out costs nothing and executing costs real money.
package forecast

import (
	"context"
	"log/slog"
	"sync"
)

const (
	shortWindow = 5
	longWindow  = 20
	// spikeTolerance lets the short average run 10% above the long average
	// before a cycle is vetoed. Gas is noisy; reacting to every wiggle
	// would stall the scanner.
	spikeTolerance = 1.10
)

// GasTrend implements domain.Forecaster from a rolling window of gas samples.
// It compares a short moving average against a long one: a short average well
// above the long one means fees are spiking and the cycle should be skipped.
type GasTrend struct {
	log *slog.Logger

	mu      sync.Mutex
	samples map[int64][]float64
}

// NewGasTrend creates an empty forecaster. It reports favorable until it has
// seen a full long window of samples.
func NewGasTrend(log *slog.Logger) *GasTrend {
	if log == nil {
		log = slog.Default()
	}
	return &GasTrend{
		log:     log.With("component", "forecaster"),
		samples: make(map[int64][]float64),
	}
}

// Record appends one gas sample (gwei) for chainID, keeping only the long
// window.
func (g *GasTrend) Record(chainID int64, gwei float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := append(g.samples[chainID], gwei)
	if len(s) > longWindow {
		s = s[len(s)-longWindow:]
	}
	g.samples[chainID] = s
}

// Favorable reports whether conditions on chainID permit a scan cycle, with a
// confidence in [0, 1]. With fewer samples than the long window it returns
// favorable at half confidence rather than blocking a cold start.
func (g *GasTrend) Favorable(_ context.Context, chainID int64) (bool, float64, error) {
	g.mu.Lock()
	s := append([]float64(nil), g.samples[chainID]...)
	g.mu.Unlock()

	if len(s) < longWindow {
		return true, 0.5, nil
	}

	long := mean(s)
	short := mean(s[len(s)-shortWindow:])

	if long <= 0 {
		return true, 0.5, nil
	}

	ratio := short / long
	ok := ratio <= spikeTolerance
	// Confidence scales with distance from the threshold, clamped to [0, 1].
	conf := 1.0 - (ratio-spikeTolerance)/spikeTolerance
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	if !ok {
		g.log.Info("unfavorable gas trend, cycle veto",
			"chain_id", chainID,
			"short_avg_gwei", short,
			"long_avg_gwei", long)
	}
	return ok, conf, nil
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Always is a forecaster that never vetoes. Used when forecasting is
// disabled.
type Always struct{}

// Favorable always approves at full confidence.
func (Always) Favorable(context.Context, int64) (bool, float64, error) {
	return true, 1.0, nil
}
