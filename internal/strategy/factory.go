// Package strategy constructs signal processors and fraud detectors from
// their configuration specs, isolating pipeline assembly from the
// concrete strategy types.
package strategy

import (
	"github.com/opensource-finance/harrier/internal/detector"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/signal"
)

// Historical strategy defaults.
const (
	DefaultSampleRate    = 1000.0
	DefaultWavelet       = "db4"
	DefaultWaveletLevel  = 5
	DefaultThreshold     = 2.0
	DefaultMinPathAmount = 5000.0
)

// Processor tags accepted by NewProcessor.
const (
	ProcessorFFT     = "fft"
	ProcessorWavelet = "wavelet"
)

// Detector tags accepted by NewDetector.
const (
	DetectorThreshold = "threshold"
	DetectorGraph     = "graph"
)

// NewProcessor builds a signal processor from its spec. The tag set is
// closed; an unknown tag fails with a ConfigurationError naming it.
func NewProcessor(spec domain.ProcessorSpec) (signal.Processor, error) {
	switch spec.Type {
	case ProcessorFFT:
		rate := spec.SampleRate
		if rate == 0 {
			rate = DefaultSampleRate
		}
		return signal.NewFFTProcessor(rate), nil

	case ProcessorWavelet:
		wavelet := spec.Wavelet
		if wavelet == "" {
			wavelet = DefaultWavelet
		}
		level := spec.Level
		if level == 0 {
			level = DefaultWaveletLevel
		}
		return signal.NewWaveletProcessor(wavelet, level)

	default:
		return nil, domain.NewConfigurationError("processor.type", "unsupported processor type: %q", spec.Type)
	}
}

// NewDetector builds a fraud detector from its spec. The tag set is
// closed; an unknown tag fails with a ConfigurationError naming it.
func NewDetector(spec domain.DetectorSpec) (detector.Detector, error) {
	switch spec.Type {
	case DetectorThreshold:
		threshold := spec.Threshold
		if threshold == 0 {
			threshold = DefaultThreshold
		}
		return detector.NewThresholdDetector(threshold)

	case DetectorGraph:
		min := spec.MinPathAmount
		if min == 0 {
			min = DefaultMinPathAmount
		}
		return detector.NewGraphFraudDetector(min, spec.Workers)

	default:
		return nil, domain.NewConfigurationError("detector.type", "unsupported detector type: %q", spec.Type)
	}
}
