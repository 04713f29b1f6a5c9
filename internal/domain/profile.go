package domain

import "time"

// ProcessorSpec selects and parameterizes a signal processor.
type ProcessorSpec struct {
	// Type is the processor tag: "fft" or "wavelet"
	Type string `json:"type"`

	// FFT settings
	SampleRate float64 `json:"sampleRate,omitempty"`

	// Wavelet settings
	Wavelet string `json:"wavelet,omitempty"` // "haar", "db2", "db4"
	Level   int    `json:"level,omitempty"`
}

// DetectorSpec selects and parameterizes a fraud detector.
type DetectorSpec struct {
	// Type is the detector tag: "threshold" or "graph"
	Type string `json:"type"`

	// Threshold settings: flag |z| > Threshold
	Threshold float64 `json:"threshold,omitempty"`

	// Graph settings: report paths whose summed amount exceeds MinPathAmount
	MinPathAmount float64 `json:"minPathAmount,omitempty"`

	// Workers bounds the pairwise path search concurrency (0 = default)
	Workers int `json:"workers,omitempty"`
}

// Profile is a named, persisted detection configuration. Profiles let
// callers reference a stored strategy setup instead of inlining one per
// analyze request.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	DatasetType DatasetType   `json:"datasetType"`
	Processor   ProcessorSpec `json:"processor"`
	Detector    DetectorSpec  `json:"detector"`

	// Filter is an optional CEL expression applied to each flagged
	// anomaly or path; entries it rejects are dropped from the result.
	Filter string `json:"filter,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultProcessorSpec mirrors the historical defaults: FFT at 1kHz
// nominal sample rate.
func DefaultProcessorSpec() ProcessorSpec {
	return ProcessorSpec{Type: "fft", SampleRate: 1000}
}

// DefaultDetectorSpec mirrors the historical defaults: z-score threshold 1.5.
func DefaultDetectorSpec() DetectorSpec {
	return DetectorSpec{Type: "threshold", Threshold: 1.5}
}
