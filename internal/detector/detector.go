// Package detector provides the anomaly detection strategies applied to
// a transaction dataset or its processed signal.
package detector

import (
	"context"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
)

// Detector is the common interface for fraud detection strategies.
type Detector interface {
	// Detect produces an anomaly result from the processed signal and/or
	// the dataset. Detectors that declare NeedsSignal() == false receive
	// a nil signal.
	Detect(ctx context.Context, processed []float64, ds *dataset.Dataset) (*domain.AnomalyResult, error)

	// Name returns a human-readable detector name for reporting.
	Name() string

	// NeedsSignal reports whether the detector consumes a processed
	// signal. The pipeline skips the transform stage entirely when this
	// is false, and callers dispatch on the result's Kind tag rather
	// than on the detector's concrete type.
	NeedsSignal() bool
}
