package detector

import (
	"context"
	"fmt"
	"math"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/signal"
)

// ThresholdDetector flags transactions whose amount deviates from the
// series mean by more than threshold standard deviations. It scores the
// raw amount series directly; the processed signal is not consumed.
type ThresholdDetector struct {
	threshold float64
}

// NewThresholdDetector creates a threshold detector. The threshold must
// be positive.
func NewThresholdDetector(threshold float64) (*ThresholdDetector, error) {
	if threshold <= 0 {
		return nil, domain.NewConfigurationError("detector.threshold", "threshold must be > 0, got %g", threshold)
	}
	return &ThresholdDetector{threshold: threshold}, nil
}

// Name returns the detector's display name.
func (d *ThresholdDetector) Name() string {
	return fmt.Sprintf("Threshold Detector (threshold=%g)", d.threshold)
}

// NeedsSignal reports that the detector works on raw amounts only. The
// pipeline still runs a processor for visualization consumers, which is
// why this returns true; the detector itself ignores the signal.
func (d *ThresholdDetector) NeedsSignal() bool { return true }

// Detect computes per-element absolute z-scores over the full amount
// series and flags every index whose score exceeds the threshold.
// Flagged indices are returned in ascending order with confidence
// |z|/threshold. A constant series yields all-zero z-scores and no flags.
func (d *ThresholdDetector) Detect(ctx context.Context, _ []float64, ds *dataset.Dataset) (*domain.AnomalyResult, error) {
	amounts := ds.Amounts()

	zScores := make([]float64, len(amounts))
	for i, z := range signal.Normalize(amounts) {
		zScores[i] = math.Abs(z)
	}

	indices := []int{}
	scores := []float64{}
	for i, z := range zScores {
		if z > d.threshold {
			indices = append(indices, i)
			scores = append(scores, z/d.threshold)
		}
	}

	return &domain.AnomalyResult{
		Kind: domain.KindThreshold,
		Threshold: &domain.ThresholdResult{
			Indices: indices,
			Scores:  scores,
			ZScores: zScores,
		},
	}, nil
}
