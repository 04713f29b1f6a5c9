package report

import (
	"strings"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestWriteThreshold(t *testing.T) {
	a := &domain.Analysis{
		DatasetType:      domain.DatasetCreditCard,
		TransactionCount: 3,
		ProcessorName:    "Fast Fourier Transform",
		DetectorName:     "Threshold Detector (threshold=1.5)",
		Result: &domain.AnomalyResult{
			Kind: domain.KindThreshold,
			Threshold: &domain.ThresholdResult{
				Indices: []int{2},
				Scores:  []float64{1.2},
				ZScores: []float64{0.1, 0.2, 1.8},
			},
		},
	}

	var sb strings.Builder
	if err := New(&sb).Write(a); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"Loaded 3 transactions of type credit_card",
		"Processed signal using Fast Fourier Transform",
		"Detected 1 potential fraud cases using Threshold Detector (threshold=1.5)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestWriteGraph(t *testing.T) {
	a := &domain.Analysis{
		DatasetType:      domain.DatasetInsurance,
		TransactionCount: 10,
		DetectorName:     "Graph Dijkstra Detector (min_path_amount=5000)",
		Result: &domain.AnomalyResult{
			Kind: domain.KindGraph,
			Graph: &domain.GraphResult{
				SuspiciousPaths: []domain.SuspiciousPath{
					{Path: []string{"cardA", "mid", "final"}, TotalAmount: 7000},
				},
			},
		},
	}

	var sb strings.Builder
	if err := New(&sb).Write(a); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"Loaded 10 transactions of type insurance",
		"Detected 1 suspicious transaction paths using Graph Dijkstra Detector (min_path_amount=5000)",
		"1. Path: cardA -> mid -> final",
		"Total amount: 7000.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	// graph path runs no processor, so no signal line
	if strings.Contains(out, "Processed signal") {
		t.Error("unexpected signal line for graph analysis")
	}
}
