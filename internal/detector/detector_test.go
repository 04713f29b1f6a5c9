package detector

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/signal"
)

func creditCardDataset(t *testing.T, amounts []float64) *dataset.Dataset {
	t.Helper()
	lines := make([]string, len(amounts))
	for i, a := range amounts {
		lines[i] = strconv.Itoa(i) + "," + strconv.FormatFloat(a, 'f', -1, 64) + ",merchant" + strconv.Itoa(i) + ",card" + strconv.Itoa(i)
	}
	ds, err := dataset.Build(lines, domain.DatasetCreditCard)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return ds
}

func TestThresholdDetector(t *testing.T) {
	t.Run("RejectsNonPositiveThreshold", func(t *testing.T) {
		for _, v := range []float64{0, -1.5} {
			_, err := NewThresholdDetector(v)
			var cfgErr *domain.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("threshold %g: expected ConfigurationError, got %v", v, err)
			}
		}
	})

	t.Run("Name", func(t *testing.T) {
		d, _ := NewThresholdDetector(1.5)
		if d.Name() != "Threshold Detector (threshold=1.5)" {
			t.Errorf("unexpected name: %q", d.Name())
		}
	})

	t.Run("FlagsOutlier", func(t *testing.T) {
		amounts := []float64{100, 250, 5000}
		ds := creditCardDataset(t, amounts)

		d, err := NewThresholdDetector(1)
		if err != nil {
			t.Fatalf("NewThresholdDetector failed: %v", err)
		}
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}

		if result.Kind != domain.KindThreshold {
			t.Fatalf("expected threshold result, got %s", result.Kind)
		}
		res := result.Threshold
		if len(res.Indices) != 1 || res.Indices[0] != 2 {
			t.Fatalf("expected only index 2 flagged, got %v", res.Indices)
		}

		// scores are |z| / threshold, z-scores computed over the raw amounts
		z := signal.Normalize(amounts)
		wantZ := math.Abs(z[2])
		if math.Abs(res.ZScores[2]-wantZ) > 1e-12 {
			t.Errorf("expected z-score %g at index 2, got %g", wantZ, res.ZScores[2])
		}
		if math.Abs(res.Scores[0]-wantZ) > 1e-12 {
			t.Errorf("expected score %g, got %g", wantZ, res.Scores[0])
		}
		if len(res.ZScores) != len(amounts) {
			t.Errorf("expected z-scores for the full series, got %d", len(res.ZScores))
		}
	})

	t.Run("ZScoresAreAbsolute", func(t *testing.T) {
		ds := creditCardDataset(t, []float64{1, 100, 1, 100, 1, 100})
		d, _ := NewThresholdDetector(2)
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		for i, z := range result.Threshold.ZScores {
			if z < 0 {
				t.Errorf("z-score at %d is negative: %g", i, z)
			}
		}
	})

	t.Run("ConstantSeriesFlagsNothing", func(t *testing.T) {
		ds := creditCardDataset(t, []float64{500, 500, 500, 500})
		d, _ := NewThresholdDetector(0.1)
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		res := result.Threshold
		if len(res.Indices) != 0 {
			t.Errorf("expected no anomalies for zero-variance series, got %v", res.Indices)
		}
		for i, z := range res.ZScores {
			if z != 0 {
				t.Errorf("expected zero z-score at %d, got %g", i, z)
			}
		}
	})

	t.Run("HigherThresholdFlagsFewer", func(t *testing.T) {
		amounts := []float64{10, 12, 9, 11, 400, 10, 13, 900}
		ds := creditCardDataset(t, amounts)

		low, _ := NewThresholdDetector(0.5)
		high, _ := NewThresholdDetector(2)

		lowRes, err := low.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		highRes, err := high.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(highRes.Threshold.Indices) > len(lowRes.Threshold.Indices) {
			t.Errorf("raising the threshold added anomalies: %v vs %v",
				highRes.Threshold.Indices, lowRes.Threshold.Indices)
		}
	})

	t.Run("IndicesAscending", func(t *testing.T) {
		ds := creditCardDataset(t, []float64{900, 10, 12, 9, 11, 400, 10, 13})
		d, _ := NewThresholdDetector(0.5)
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		indices := result.Threshold.Indices
		for i := 1; i < len(indices); i++ {
			if indices[i] <= indices[i-1] {
				t.Fatalf("indices not ascending: %v", indices)
			}
		}
	})

	t.Run("NeedsSignal", func(t *testing.T) {
		d, _ := NewThresholdDetector(1.5)
		if !d.NeedsSignal() {
			t.Error("threshold detector should request the signal stage")
		}
	})
}

func TestGraphFraudDetector(t *testing.T) {
	t.Run("RejectsNegativeMinimum", func(t *testing.T) {
		_, err := NewGraphFraudDetector(-1, 0)
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("NeedsSignal", func(t *testing.T) {
		d, _ := NewGraphFraudDetector(5000, 0)
		if d.NeedsSignal() {
			t.Error("graph detector should skip the signal stage")
		}
	})

	t.Run("ChainDetection", func(t *testing.T) {
		// cardA -> mid -> final: the shared "mid" identifier chains the
		// two transactions into one path
		lines := []string{
			"1,3000,mid,cardA",
			"2,4000,final,mid",
		}
		ds, err := dataset.Build(lines, domain.DatasetCreditCard)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		d, err := NewGraphFraudDetector(5000, 0)
		if err != nil {
			t.Fatalf("NewGraphFraudDetector failed: %v", err)
		}
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}

		if result.Kind != domain.KindGraph {
			t.Fatalf("expected graph result, got %s", result.Kind)
		}
		paths := result.Graph.SuspiciousPaths

		// only cardA -> mid -> final (7000) clears the 5000 minimum
		if len(paths) != 1 {
			t.Fatalf("expected 1 suspicious path, got %d: %+v", len(paths), paths)
		}
		sp := paths[0]
		if sp.TotalAmount != 7000 {
			t.Errorf("expected total 7000, got %g", sp.TotalAmount)
		}
		want := []string{"cardA", "mid", "final"}
		if len(sp.Path) != 3 || sp.Path[0] != want[0] || sp.Path[1] != want[1] || sp.Path[2] != want[2] {
			t.Errorf("expected path %v, got %v", want, sp.Path)
		}
	})

	t.Run("BelowMinimumIsSilent", func(t *testing.T) {
		ds := creditCardDataset(t, []float64{100, 200, 300})
		d, _ := NewGraphFraudDetector(5000, 0)
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(result.Graph.SuspiciousPaths) != 0 {
			t.Errorf("expected no paths, got %+v", result.Graph.SuspiciousPaths)
		}
	})

	t.Run("DisconnectedPairsSkipped", func(t *testing.T) {
		// two unconnected components, both above the minimum individually
		lines := []string{
			"1,6000,m1,c1",
			"2,7000,m2,c2",
		}
		ds, err := dataset.Build(lines, domain.DatasetCreditCard)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		d, _ := NewGraphFraudDetector(5000, 0)
		result, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(result.Graph.SuspiciousPaths) != 2 {
			t.Fatalf("expected exactly the 2 direct edges, got %+v", result.Graph.SuspiciousPaths)
		}
	})

	t.Run("DeterministicOrder", func(t *testing.T) {
		lines := []string{
			"1,6000,m1,c1",
			"2,7000,m2,c1",
			"3,8000,m1,c2",
		}
		ds, err := dataset.Build(lines, domain.DatasetCreditCard)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		d, _ := NewGraphFraudDetector(5000, 3)

		first, err := d.Detect(context.Background(), nil, ds)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		for i := 0; i < 10; i++ {
			again, err := d.Detect(context.Background(), nil, ds)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if len(again.Graph.SuspiciousPaths) != len(first.Graph.SuspiciousPaths) {
				t.Fatal("path count varies between runs")
			}
			for j, sp := range again.Graph.SuspiciousPaths {
				if sp.TotalAmount != first.Graph.SuspiciousPaths[j].TotalAmount {
					t.Fatalf("run %d: path order varies between runs", i)
				}
			}
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ds := creditCardDataset(t, []float64{6000, 7000, 8000, 9000})
		d, _ := NewGraphFraudDetector(5000, 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := d.Detect(ctx, nil, ds)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
