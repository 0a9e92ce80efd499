package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexomega/titan/internal/domain"
)

func TestGasTrendColdStartIsFavorable(t *testing.T) {
	f := NewGasTrend(nil)

	ok, conf, err := f.Favorable(context.Background(), 137)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.5, conf)
}

func TestGasTrendStableGasIsFavorable(t *testing.T) {
	f := NewGasTrend(nil)
	for i := 0; i < longWindow; i++ {
		f.Record(137, 30.0)
	}

	ok, conf, err := f.Favorable(context.Background(), 137)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, conf, 0.9)
}

func TestGasTrendSpikeVetoes(t *testing.T) {
	f := NewGasTrend(nil)
	for i := 0; i < longWindow-shortWindow; i++ {
		f.Record(137, 30.0)
	}
	// Recent samples triple the baseline.
	for i := 0; i < shortWindow; i++ {
		f.Record(137, 90.0)
	}

	ok, _, err := f.Favorable(context.Background(), 137)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGasTrendWindowSlides(t *testing.T) {
	f := NewGasTrend(nil)
	// An old spike scrolls out once enough calm samples follow.
	for i := 0; i < shortWindow; i++ {
		f.Record(137, 90.0)
	}
	for i := 0; i < longWindow; i++ {
		f.Record(137, 30.0)
	}

	ok, _, err := f.Favorable(context.Background(), 137)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaticOptimizer(t *testing.T) {
	sig := &domain.TradeSignal{}
	require.NoError(t, StaticOptimizer{}.Tune(context.Background(), sig))
	assert.Equal(t, 0.90, sig.Confidence)
	assert.Equal(t, "fast", sig.Hints["gas_strategy"])

	// An existing confidence is preserved.
	sig2 := &domain.TradeSignal{Confidence: 0.42}
	require.NoError(t, StaticOptimizer{}.Tune(context.Background(), sig2))
	assert.Equal(t, 0.42, sig2.Confidence)
}
