package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/domain"
)

// collector captures events published on a topic so tests can await them.
type collector struct {
	mu     sync.Mutex
	events [][]byte
}

func (c *collector) handle(_ context.Context, msg *domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, msg.Payload)
	return nil
}

func (c *collector) await(t *testing.T) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.events) > 0 {
			payload := c.events[0]
			c.mu.Unlock()
			return payload
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for event")
	return nil
}

func publishRequest(t *testing.T, b domain.EventBus, req domain.AnalysisRequestedEvent) {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := b.Publish(context.Background(), domain.TopicAnalysisRequested, payload); err != nil {
		t.Fatalf("publish request: %v", err)
	}
}

func TestWorkerProcessesRequest(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	w := NewWorker(b, "test", Config{GraphWorkers: 2})
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	completed := &collector{}
	sub, err := b.Subscribe(context.Background(), domain.TopicAnalysisCompleted, completed.handle)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	publishRequest(t, b, domain.AnalysisRequestedEvent{
		RequestID:   "req-1",
		DatasetType: domain.DatasetCreditCard,
		Lines:       []string{"1,100,m1,c1", "2,250,m2,c2", "3,5000,m3,c3"},
		Processor:   domain.DefaultProcessorSpec(),
		Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1},
	})

	var event domain.AnalysisCompletedEvent
	if err := json.Unmarshal(completed.await(t), &event); err != nil {
		t.Fatalf("invalid completion payload: %v", err)
	}
	if event.RequestID != "req-1" {
		t.Errorf("expected request ID req-1, got %q", event.RequestID)
	}
	if event.AnalysisID == "" {
		t.Error("expected analysis ID")
	}
	if event.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", event.TransactionCount)
	}
	if event.AnomalyCount != 1 {
		t.Errorf("expected 1 anomaly, got %d", event.AnomalyCount)
	}
}

func TestWorkerPublishesFailure(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	w := NewWorker(b, "test", Config{})
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	failed := &collector{}
	sub, err := b.Subscribe(context.Background(), domain.TopicAnalysisFailed, failed.handle)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	t.Run("BadDetectorSpec", func(t *testing.T) {
		publishRequest(t, b, domain.AnalysisRequestedEvent{
			RequestID:   "req-bad-spec",
			DatasetType: domain.DatasetCreditCard,
			Lines:       []string{"1,100,m1,c1"},
			Processor:   domain.DefaultProcessorSpec(),
			Detector:    domain.DetectorSpec{Type: "nope"},
		})

		var event domain.AnalysisFailedEvent
		if err := json.Unmarshal(failed.await(t), &event); err != nil {
			t.Fatalf("invalid failure payload: %v", err)
		}
		if event.RequestID != "req-bad-spec" {
			t.Errorf("expected request ID req-bad-spec, got %q", event.RequestID)
		}
		if event.Error == "" {
			t.Error("expected error message in failure event")
		}
	})

	t.Run("MalformedLine", func(t *testing.T) {
		failed.mu.Lock()
		failed.events = nil
		failed.mu.Unlock()

		publishRequest(t, b, domain.AnalysisRequestedEvent{
			RequestID:   "req-bad-line",
			DatasetType: domain.DatasetCreditCard,
			Lines:       []string{"not,enough,fields"},
			Processor:   domain.DefaultProcessorSpec(),
			Detector:    domain.DefaultDetectorSpec(),
		})

		var event domain.AnalysisFailedEvent
		if err := json.Unmarshal(failed.await(t), &event); err != nil {
			t.Fatalf("invalid failure payload: %v", err)
		}
		if event.RequestID != "req-bad-line" {
			t.Errorf("expected request ID req-bad-line, got %q", event.RequestID)
		}
	})
}

func TestWorkerStop(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	w := NewWorker(b, "test", Config{})
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("failed to stop worker: %v", err)
	}

	// Stop is idempotent.
	if err := w.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}
