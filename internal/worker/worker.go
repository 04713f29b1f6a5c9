// Package worker provides async analysis processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/pipeline"
)

// Worker processes analysis requests asynchronously from the EventBus:
// it consumes harrier.analysis.requested, runs the pipeline, and
// publishes a completion (or failure) event with the run summary.
type Worker struct {
	bus     domain.EventBus
	version string
	workers int

	subscription domain.Subscription
	ctx          context.Context
	cancel       context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// GraphWorkers is passed through to graph detectors built per request.
	GraphWorkers int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, version string, cfg Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		version: version,
		workers: cfg.GraphWorkers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins consuming analysis requests.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicAnalysisRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscription = sub

	slog.Info("analysis worker started", "topic", domain.TopicAnalysisRequested)
	return nil
}

// handleMessage runs one requested analysis.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req domain.AnalysisRequestedEvent
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse analysis request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Debug("processing analysis request",
		"request_id", req.RequestID,
		"dataset_type", req.DatasetType,
		"lines", len(req.Lines),
	)

	det := req.Detector
	if det.Workers == 0 {
		det.Workers = w.workers
	}

	p, err := pipeline.New(pipeline.Options{
		DatasetType: req.DatasetType,
		Processor:   req.Processor,
		Detector:    det,
		Filter:      req.Filter,
		Version:     w.version,
	})
	if err != nil {
		return w.publishFailure(ctx, req.RequestID, err)
	}

	analysis, err := p.Analyze(ctx, req.Lines)
	if err != nil {
		return w.publishFailure(ctx, req.RequestID, err)
	}

	completed := domain.AnalysisCompletedEvent{
		RequestID:        req.RequestID,
		AnalysisID:       analysis.ID,
		DatasetType:      analysis.DatasetType,
		DetectorName:     analysis.DetectorName,
		ProcessorName:    analysis.ProcessorName,
		TransactionCount: analysis.TransactionCount,
		AnomalyCount:     analysis.Result.AnomalyCount(),
		TotalMs:          analysis.Metadata.TotalMs,
	}
	payload, _ := json.Marshal(completed)
	if err := w.bus.Publish(ctx, domain.TopicAnalysisCompleted, payload); err != nil {
		slog.Error("failed to publish analysis completion",
			"request_id", req.RequestID,
			"error", err,
		)
	}

	slog.Info("analysis request processed",
		"request_id", req.RequestID,
		"analysis_id", analysis.ID,
		"anomalies", completed.AnomalyCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func (w *Worker) publishFailure(ctx context.Context, requestID string, cause error) error {
	slog.Error("analysis request failed",
		"request_id", requestID,
		"error", cause,
	)

	payload, _ := json.Marshal(domain.AnalysisFailedEvent{
		RequestID: requestID,
		Error:     cause.Error(),
	})
	if err := w.bus.Publish(ctx, domain.TopicAnalysisFailed, payload); err != nil {
		slog.Error("failed to publish analysis failure",
			"request_id", requestID,
			"error", err,
		)
	}
	return cause
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	if w.subscription != nil {
		if err := w.subscription.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", w.subscription.Topic(),
				"error", err,
			)
		}
		w.subscription = nil
	}

	slog.Info("analysis worker stopped")
	return nil
}
