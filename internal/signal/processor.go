// Package signal provides the frequency/time-domain transforms applied to
// transaction amount series before statistical detection.
package signal

import (
	"github.com/opensource-finance/harrier/internal/dataset"
)

// Processor transforms a dataset's amount series into a processed signal.
// Implementations z-score-normalize the amounts before transforming, so a
// constant series always yields an all-zero signal.
type Processor interface {
	// Process returns the transformed signal, index-aligned in length
	// with the dataset's amount series.
	Process(ds *dataset.Dataset) ([]float64, error)

	// Name returns a human-readable processor name for reporting.
	Name() string
}
