package signal

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
)

func buildDataset(t *testing.T, amounts []float64) *dataset.Dataset {
	t.Helper()
	lines := make([]string, len(amounts))
	for i, a := range amounts {
		lines[i] = strconv.Itoa(i) + "," + strconv.FormatFloat(a, 'f', -1, 64) + ",merchant,card"
	}
	ds, err := dataset.Build(lines, domain.DatasetCreditCard)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return ds
}

func TestStats(t *testing.T) {
	t.Run("Mean", func(t *testing.T) {
		if m := Mean([]float64{1, 2, 3, 4}); m != 2.5 {
			t.Errorf("expected 2.5, got %g", m)
		}
		if m := Mean(nil); m != 0 {
			t.Errorf("expected 0 for empty series, got %g", m)
		}
	})

	t.Run("StdDevPopulation", func(t *testing.T) {
		// population stddev of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2
		xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		if s := StdDev(xs); math.Abs(s-2) > 1e-12 {
			t.Errorf("expected 2, got %g", s)
		}
	})

	t.Run("NormalizeZeroVariance", func(t *testing.T) {
		out := Normalize([]float64{5, 5, 5, 5})
		for i, z := range out {
			if z != 0 {
				t.Errorf("expected zero z-score at %d for constant series, got %g", i, z)
			}
		}
	})

	t.Run("NormalizeRoundTrip", func(t *testing.T) {
		xs := []float64{100, 250, 5000}
		out := Normalize(xs)
		mean := Mean(xs)
		std := StdDev(xs)
		for i, x := range xs {
			want := (x - mean) / std
			if math.Abs(out[i]-want) > 1e-12 {
				t.Errorf("z[%d]: expected %g, got %g", i, want, out[i])
			}
		}
	})
}

func TestFFTProcessor(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		p := NewFFTProcessor(1000)
		if p.Name() != "Fast Fourier Transform" {
			t.Errorf("unexpected name: %q", p.Name())
		}
	})

	t.Run("DefaultSampleRate", func(t *testing.T) {
		p := NewFFTProcessor(0)
		if p.SampleRate() != 1000 {
			t.Errorf("expected default rate 1000, got %g", p.SampleRate())
		}
	})

	t.Run("OutputLengthPowerOfTwo", func(t *testing.T) {
		ds := buildDataset(t, []float64{10, 20, 30, 40, 50, 60, 70, 80})
		out, err := NewFFTProcessor(1000).Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 8 {
			t.Errorf("expected 8 bins, got %d", len(out))
		}
	})

	t.Run("OutputLengthArbitrary", func(t *testing.T) {
		ds := buildDataset(t, []float64{10, 20, 30, 40, 50, 60, 70})
		out, err := NewFFTProcessor(1000).Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 7 {
			t.Errorf("expected 7 bins, got %d", len(out))
		}
	})

	t.Run("ConstantSeriesIsSilent", func(t *testing.T) {
		ds := buildDataset(t, []float64{42, 42, 42, 42})
		out, err := NewFFTProcessor(1000).Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		for i, m := range out {
			if m != 0 {
				t.Errorf("expected zero magnitude at bin %d, got %g", i, m)
			}
		}
	})

	t.Run("RadixMatchesNaiveDFT", func(t *testing.T) {
		// same input through both code paths: pad-free power of two vs
		// the direct transform on the identical values
		x := []float64{1, -2, 3, 0.5, -1, 2, 0, 4}
		fast := fftRadix2(x)

		n := len(x)
		for k := 0; k < n; k++ {
			var sum complex128
			for tt := 0; tt < n; tt++ {
				angle := -2 * math.Pi * float64(k) * float64(tt) / float64(n)
				sum += complex(x[tt]*math.Cos(angle), x[tt]*math.Sin(angle))
			}
			if math.Abs(real(fast[k])-real(sum)) > 1e-9 || math.Abs(imag(fast[k])-imag(sum)) > 1e-9 {
				t.Fatalf("bin %d: radix-2 %v, naive %v", k, fast[k], sum)
			}
		}
	})

	t.Run("DCBinIsSumOfSeries", func(t *testing.T) {
		ds := buildDataset(t, []float64{10, 20, 90, 15})
		out, err := NewFFTProcessor(1000).Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		// normalized series sums to ~0, so the DC bin magnitude is ~0
		if out[0] > 1e-9 {
			t.Errorf("expected near-zero DC bin for normalized input, got %g", out[0])
		}
	})
}

func TestWaveletProcessor(t *testing.T) {
	t.Run("UnsupportedWavelet", func(t *testing.T) {
		_, err := NewWaveletProcessor("sym8", 2)
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := NewWaveletProcessor("haar", 0)
		if err == nil {
			t.Fatal("expected error for level 0")
		}
	})

	t.Run("Name", func(t *testing.T) {
		p, err := NewWaveletProcessor("db4", 2)
		if err != nil {
			t.Fatalf("NewWaveletProcessor failed: %v", err)
		}
		if p.Name() != "Wavelet Transform (db4)" {
			t.Errorf("unexpected name: %q", p.Name())
		}
	})

	t.Run("OutputLengthPreserved", func(t *testing.T) {
		for _, n := range []int{16, 17, 33, 64} {
			amounts := make([]float64, n)
			for i := range amounts {
				amounts[i] = float64(i%7) * 13.5
			}
			ds := buildDataset(t, amounts)

			p, err := NewWaveletProcessor("haar", 2)
			if err != nil {
				t.Fatalf("NewWaveletProcessor failed: %v", err)
			}
			out, err := p.Process(ds)
			if err != nil {
				t.Fatalf("Process failed for n=%d: %v", n, err)
			}
			if len(out) != n {
				t.Errorf("n=%d: expected output length %d, got %d", n, n, len(out))
			}
		}
	})

	t.Run("LevelTooDeep", func(t *testing.T) {
		ds := buildDataset(t, []float64{1, 2, 3, 4, 5, 6, 7, 8})
		p, err := NewWaveletProcessor("db4", 5)
		if err != nil {
			t.Fatalf("NewWaveletProcessor failed: %v", err)
		}
		_, err = p.Process(ds)
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError for level > max depth, got %v", err)
		}
	})

	t.Run("MaxLevel", func(t *testing.T) {
		p, err := NewWaveletProcessor("haar", 1)
		if err != nil {
			t.Fatalf("NewWaveletProcessor failed: %v", err)
		}
		// haar filter length 2: max level is log2(n)
		if got := p.MaxLevel(16); got != 4 {
			t.Errorf("expected max level 4 for n=16, got %d", got)
		}
		if got := p.MaxLevel(1); got != 0 {
			t.Errorf("expected max level 0 for n=1, got %d", got)
		}
	})

	t.Run("ConstantSeriesStaysZero", func(t *testing.T) {
		ds := buildDataset(t, []float64{9, 9, 9, 9, 9, 9, 9, 9})
		p, err := NewWaveletProcessor("haar", 2)
		if err != nil {
			t.Fatalf("NewWaveletProcessor failed: %v", err)
		}
		out, err := p.Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		for i, v := range out {
			if math.Abs(v) > 1e-12 {
				t.Errorf("expected zero output at %d for degenerate series, got %g", i, v)
			}
		}
	})

	t.Run("HaarSmoothsPairs", func(t *testing.T) {
		// one haar level reconstructs each adjacent pair to its average
		// (of the normalized series)
		amounts := []float64{10, 30, 10, 30, 10, 30, 10, 30}
		ds := buildDataset(t, amounts)
		p, err := NewWaveletProcessor("haar", 1)
		if err != nil {
			t.Fatalf("NewWaveletProcessor failed: %v", err)
		}
		out, err := p.Process(ds)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		for i := 0; i < len(out); i += 2 {
			if math.Abs(out[i]-out[i+1]) > 1e-12 {
				t.Errorf("pair %d: expected equal smoothed values, got %g and %g", i/2, out[i], out[i+1])
			}
			// alternating +-1 z-scores average to zero
			if math.Abs(out[i]) > 1e-12 {
				t.Errorf("pair %d: expected zero average, got %g", i/2, out[i])
			}
		}
	})
}
