package domain

import "time"

// ResultKind tags which AnomalyResult variant was produced.
type ResultKind string

const (
	// KindThreshold marks a per-transaction statistical result.
	KindThreshold ResultKind = "threshold"

	// KindGraph marks a relationship-path result.
	KindGraph ResultKind = "graph"
)

// AnomalyResult is the output of one detection run. Exactly one variant
// is non-nil, indicated by Kind. Consumers dispatch on Kind rather than
// on the detector that produced it.
type AnomalyResult struct {
	Kind      ResultKind       `json:"kind"`
	Threshold *ThresholdResult `json:"threshold,omitempty"`
	Graph     *GraphResult     `json:"graph,omitempty"`
}

// ThresholdResult holds statistically flagged transaction indices.
// Indices and Scores are index-aligned with each other; ZScores is
// index-aligned with the full amount series.
type ThresholdResult struct {
	Indices []int     `json:"indices"`
	Scores  []float64 `json:"scores"`
	ZScores []float64 `json:"zScores"`
}

// GraphResult holds high-value relationship chains.
type GraphResult struct {
	SuspiciousPaths []SuspiciousPath `json:"suspiciousPaths"`
}

// SuspiciousPath is a chain of entity nodes whose summed transaction
// amounts exceed the detector's configured minimum.
type SuspiciousPath struct {
	Path        []string `json:"path"`
	TotalAmount float64  `json:"totalAmount"`
}

// AnomalyCount returns the number of flagged entries for either variant.
func (r *AnomalyResult) AnomalyCount() int {
	switch r.Kind {
	case KindThreshold:
		if r.Threshold != nil {
			return len(r.Threshold.Indices)
		}
	case KindGraph:
		if r.Graph != nil {
			return len(r.Graph.SuspiciousPaths)
		}
	}
	return 0
}

// Analysis is the complete output of one pipeline run, handed to external
// reporting and visualization collaborators.
type Analysis struct {
	ID               string      `json:"id"`
	DatasetType      DatasetType `json:"datasetType"`
	TransactionCount int         `json:"transactionCount"`

	// Strategy names, for reporting
	ProcessorName string `json:"processorName,omitempty"`
	DetectorName  string `json:"detectorName"`

	// Series for visualization: the raw amounts and, on the signal path,
	// the processed signal (nil on the graph path)
	Amounts         []float64 `json:"amounts"`
	ProcessedSignal []float64 `json:"processedSignal,omitempty"`

	Result *AnomalyResult `json:"result"`

	Metadata AnalysisMetadata `json:"metadata"`
}

// AnalysisMetadata contains per-stage processing information.
type AnalysisMetadata struct {
	TraceID       string    `json:"traceId,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	LoadMs        int64     `json:"loadMs"`
	ProcessMs     int64     `json:"processMs"`
	DetectMs      int64     `json:"detectMs"`
	TotalMs       int64     `json:"totalMs"`
	EngineVersion string    `json:"engineVersion,omitempty"`
}
