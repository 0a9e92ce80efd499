package forecast

import (
	"context"

	"github.com/apexomega/titan/internal/domain"
)

// defaultConfidence is the score assigned to signals with no model-supplied
// confidence. Deliberately above the hybrid threshold so an unscored signal
// is not silently demoted to paper.
const defaultConfidence = 0.90

// StaticOptimizer implements domain.Optimizer with fixed heuristics: it fills
// in a default confidence and a fast gas hint. A learned model can replace it
// behind the same interface.
type StaticOptimizer struct{}

// Tune annotates the signal in place.
func (StaticOptimizer) Tune(_ context.Context, signal *domain.TradeSignal) error {
	if signal.Confidence == 0 {
		signal.Confidence = defaultConfidence
	}
	if signal.Hints == nil {
		signal.Hints = map[string]string{}
	}
	if _, ok := signal.Hints["gas_strategy"]; !ok {
		signal.Hints["gas_strategy"] = "fast"
	}
	return nil
}
