// Package pipeline orchestrates one analysis run: dataset loading, the
// optional signal transform, detection, and result filtering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/detector"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/filter"
	"github.com/opensource-finance/harrier/internal/signal"
	"github.com/opensource-finance/harrier/internal/strategy"
)

var tracer = otel.Tracer("harrier-pipeline")

// Pipeline assembles a processor and a detector for one dataset type and
// runs analyses with them. Construction validates the whole configuration
// up front, so Analyze only ever fails on input data.
type Pipeline struct {
	dtype     domain.DatasetType
	processor signal.Processor
	det       detector.Detector
	filt      *filter.Filter
	version   string
}

// Options configures a pipeline.
type Options struct {
	DatasetType domain.DatasetType
	Processor   domain.ProcessorSpec
	Detector    domain.DetectorSpec

	// Filter is an optional CEL expression applied to the result.
	Filter string

	// Version is stamped into analysis metadata.
	Version string
}

// New builds a pipeline from strategy specs. Unknown tags or invalid
// parameters fail with a ConfigurationError before any data is touched.
func New(opts Options) (*Pipeline, error) {
	if !opts.DatasetType.Valid() {
		return nil, domain.NewConfigurationError("dataset.type", "unsupported dataset type: %q", opts.DatasetType)
	}

	det, err := strategy.NewDetector(opts.Detector)
	if err != nil {
		return nil, err
	}

	// The processor is only constructed when the detector declares
	// needing a signal; the graph path skips the transform entirely.
	var proc signal.Processor
	if det.NeedsSignal() {
		proc, err = strategy.NewProcessor(opts.Processor)
		if err != nil {
			return nil, err
		}
	}

	var filt *filter.Filter
	if opts.Filter != "" {
		filt, err = filter.New(opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		dtype:     opts.DatasetType,
		processor: proc,
		det:       det,
		filt:      filt,
		version:   opts.Version,
	}, nil
}

// DetectorName returns the configured detector's display name.
func (p *Pipeline) DetectorName() string { return p.det.Name() }

// ProcessorName returns the configured processor's display name, or ""
// when the detector path skips the transform stage.
func (p *Pipeline) ProcessorName() string {
	if p.processor == nil {
		return ""
	}
	return p.processor.Name()
}

// Analyze parses raw lines and runs the configured strategies over them.
// A malformed line aborts the run with a *domain.ParseError; no partial
// result is returned.
func (p *Pipeline) Analyze(ctx context.Context, lines []string) (*domain.Analysis, error) {
	started := time.Now()
	ds, err := dataset.Build(lines, p.dtype)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, ds, started)
}

// AnalyzeFile loads a transaction file and analyzes it.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*domain.Analysis, error) {
	started := time.Now()
	ds, err := dataset.LoadFile(path, p.dtype)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, ds, started)
}

func (p *Pipeline) run(ctx context.Context, ds *dataset.Dataset, started time.Time) (*domain.Analysis, error) {
	ctx, span := tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("dataset.type", string(p.dtype)),
		attribute.String("detector", p.det.Name()),
		attribute.Int("dataset.size", ds.Len()),
	)

	analysis := &domain.Analysis{
		ID:               uuid.New().String(),
		DatasetType:      p.dtype,
		TransactionCount: ds.Len(),
		DetectorName:     p.det.Name(),
		Amounts:          ds.Amounts(),
		Metadata: domain.AnalysisMetadata{
			TraceID:       span.SpanContext().TraceID().String(),
			StartedAt:     started,
			LoadMs:        time.Since(started).Milliseconds(),
			EngineVersion: p.version,
		},
	}

	var processed []float64
	var err error
	if p.det.NeedsSignal() {
		stageStart := time.Now()
		_, procSpan := tracer.Start(ctx, "pipeline.process")
		processed, err = p.processor.Process(ds)
		procSpan.End()
		if err != nil {
			return nil, fmt.Errorf("process signal: %w", err)
		}
		analysis.ProcessorName = p.processor.Name()
		analysis.ProcessedSignal = processed
		analysis.Metadata.ProcessMs = time.Since(stageStart).Milliseconds()
	}

	stageStart := time.Now()
	detectCtx, detectSpan := tracer.Start(ctx, "pipeline.detect")
	result, err := p.det.Detect(detectCtx, processed, ds)
	detectSpan.End()
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	analysis.Metadata.DetectMs = time.Since(stageStart).Milliseconds()

	if p.filt != nil {
		result, err = p.filt.Apply(result, analysis.Amounts)
		if err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
	}

	analysis.Result = result
	analysis.Metadata.TotalMs = time.Since(started).Milliseconds()

	slog.Debug("analysis complete",
		"analysis_id", analysis.ID,
		"dataset_type", p.dtype,
		"transactions", ds.Len(),
		"detector", p.det.Name(),
		"anomalies", result.AnomalyCount(),
		"total_ms", analysis.Metadata.TotalMs,
	)

	return analysis, nil
}
