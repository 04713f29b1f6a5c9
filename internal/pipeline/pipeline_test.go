package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestNew(t *testing.T) {
	t.Run("InvalidDatasetType", func(t *testing.T) {
		_, err := New(Options{
			DatasetType: "crypto",
			Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1.5},
		})
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("InvalidDetector", func(t *testing.T) {
		_, err := New(Options{
			DatasetType: domain.DatasetCreditCard,
			Detector:    domain.DetectorSpec{Type: "nope"},
		})
		if err == nil {
			t.Fatal("expected error for unknown detector")
		}
	})

	t.Run("InvalidProcessorOnlyCheckedWhenNeeded", func(t *testing.T) {
		// graph detector skips the signal stage, so a bad processor spec
		// does not matter
		_, err := New(Options{
			DatasetType: domain.DatasetCreditCard,
			Processor:   domain.ProcessorSpec{Type: "nope"},
			Detector:    domain.DetectorSpec{Type: "graph", MinPathAmount: 5000},
		})
		if err != nil {
			t.Fatalf("expected graph pipeline to ignore processor spec, got %v", err)
		}

		_, err = New(Options{
			DatasetType: domain.DatasetCreditCard,
			Processor:   domain.ProcessorSpec{Type: "nope"},
			Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1.5},
		})
		if err == nil {
			t.Fatal("expected error for bad processor on the signal path")
		}
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		_, err := New(Options{
			DatasetType: domain.DatasetCreditCard,
			Processor:   domain.ProcessorSpec{Type: "fft"},
			Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1.5},
			Filter:      "amount >",
		})
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("Names", func(t *testing.T) {
		p, err := New(Options{
			DatasetType: domain.DatasetCreditCard,
			Processor:   domain.ProcessorSpec{Type: "fft"},
			Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1.5},
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if p.ProcessorName() != "Fast Fourier Transform" {
			t.Errorf("unexpected processor name: %q", p.ProcessorName())
		}
		if p.DetectorName() != "Threshold Detector (threshold=1.5)" {
			t.Errorf("unexpected detector name: %q", p.DetectorName())
		}

		g, err := New(Options{
			DatasetType: domain.DatasetCreditCard,
			Detector:    domain.DetectorSpec{Type: "graph", MinPathAmount: 5000},
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if g.ProcessorName() != "" {
			t.Errorf("expected empty processor name on the graph path, got %q", g.ProcessorName())
		}
	})
}

func TestAnalyzeThresholdPath(t *testing.T) {
	p, err := New(Options{
		DatasetType: domain.DatasetCreditCard,
		Processor:   domain.ProcessorSpec{Type: "fft"},
		Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1},
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lines := []string{
		"1,100,m1,c1",
		"2,250,m2,c2",
		"3,5000,m3,c3",
	}
	analysis, err := p.Analyze(context.Background(), lines)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.ID == "" {
		t.Error("expected analysis ID")
	}
	if analysis.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", analysis.TransactionCount)
	}
	if analysis.ProcessorName == "" {
		t.Error("expected processor name on the signal path")
	}
	if len(analysis.ProcessedSignal) != 3 {
		t.Errorf("expected processed signal of length 3, got %d", len(analysis.ProcessedSignal))
	}
	if len(analysis.Amounts) != 3 || analysis.Amounts[2] != 5000 {
		t.Errorf("unexpected amounts: %v", analysis.Amounts)
	}
	if analysis.Result.Kind != domain.KindThreshold {
		t.Fatalf("expected threshold result, got %s", analysis.Result.Kind)
	}
	if got := analysis.Result.Threshold.Indices; len(got) != 1 || got[0] != 2 {
		t.Errorf("expected index 2 flagged, got %v", got)
	}
	if analysis.Metadata.EngineVersion != "test" {
		t.Errorf("expected engine version stamped, got %q", analysis.Metadata.EngineVersion)
	}
}

func TestAnalyzeGraphPath(t *testing.T) {
	p, err := New(Options{
		DatasetType: domain.DatasetCreditCard,
		Detector:    domain.DetectorSpec{Type: "graph", MinPathAmount: 5000},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lines := []string{
		"1,3000,mid,cardA",
		"2,4000,final,mid",
	}
	analysis, err := p.Analyze(context.Background(), lines)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.ProcessorName != "" {
		t.Errorf("expected no processor on the graph path, got %q", analysis.ProcessorName)
	}
	if analysis.ProcessedSignal != nil {
		t.Error("expected nil processed signal on the graph path")
	}
	if analysis.Result.Kind != domain.KindGraph {
		t.Fatalf("expected graph result, got %s", analysis.Result.Kind)
	}
	if len(analysis.Result.Graph.SuspiciousPaths) != 1 {
		t.Errorf("expected 1 suspicious path, got %+v", analysis.Result.Graph.SuspiciousPaths)
	}
}

func TestAnalyzeParseError(t *testing.T) {
	p, err := New(Options{
		DatasetType: domain.DatasetCreditCard,
		Processor:   domain.ProcessorSpec{Type: "fft"},
		Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1.5},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = p.Analyze(context.Background(), []string{"1,100,m,c", "garbage"})
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Line != 2 {
		t.Errorf("expected line 2, got %d", parseErr.Line)
	}
}

func TestAnalyzeWithFilter(t *testing.T) {
	p, err := New(Options{
		DatasetType: domain.DatasetCreditCard,
		Processor:   domain.ProcessorSpec{Type: "fft"},
		Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1},
		Filter:      "amount > 10000.0",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	analysis, err := p.Analyze(context.Background(), []string{
		"1,100,m1,c1",
		"2,250,m2,c2",
		"3,5000,m3,c3",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	// the flagged 5000 charge is below the filter's 10000 floor
	if len(analysis.Result.Threshold.Indices) != 0 {
		t.Errorf("expected filter to drop all flags, got %v", analysis.Result.Threshold.Indices)
	}
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.txt")
	content := "1,100,m1,c1\n2,250,m2,c2\n3,5000,m3,c3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	p, err := New(Options{
		DatasetType: domain.DatasetCreditCard,
		Processor:   domain.ProcessorSpec{Type: "fft"},
		Detector:    domain.DetectorSpec{Type: "threshold", Threshold: 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	analysis, err := p.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if analysis.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", analysis.TransactionCount)
	}

	t.Run("MissingFile", func(t *testing.T) {
		_, err := p.AnalyzeFile(context.Background(), filepath.Join(dir, "missing.txt"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
