package signal

import (
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/opensource-finance/harrier/internal/dataset"
)

// FFTProcessor computes the magnitude spectrum of the normalized amount
// series. The sample rate is carried for interpretation of frequency bins
// by downstream consumers; it does not affect the magnitudes.
type FFTProcessor struct {
	sampleRate float64
}

// NewFFTProcessor creates an FFT processor.
func NewFFTProcessor(sampleRate float64) *FFTProcessor {
	if sampleRate <= 0 {
		sampleRate = 1000
	}
	return &FFTProcessor{sampleRate: sampleRate}
}

// SampleRate returns the configured nominal sample rate.
func (p *FFTProcessor) SampleRate() float64 { return p.sampleRate }

// Name returns the processor's display name.
func (p *FFTProcessor) Name() string { return "Fast Fourier Transform" }

// Process returns the magnitude of the discrete Fourier transform of the
// z-score-normalized amounts, one value per frequency bin, same length as
// the input series.
func (p *FFTProcessor) Process(ds *dataset.Dataset) ([]float64, error) {
	normalized := Normalize(ds.Amounts())

	spectrum := dft(normalized)
	magnitude := make([]float64, len(spectrum))
	for i, c := range spectrum {
		magnitude[i] = cmplx.Abs(c)
	}
	return magnitude, nil
}

// dft computes the discrete Fourier transform. Power-of-two lengths take
// the iterative radix-2 path; other lengths fall back to the direct
// O(n²) transform, which is acceptable at batch dataset sizes.
func dft(x []float64) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}

	if n&(n-1) == 0 {
		return fftRadix2(x)
	}

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex(x[t], 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

// fftRadix2 is an in-place iterative Cooley-Tukey FFT. n must be a power
// of two.
func fftRadix2(x []float64) []complex128 {
	n := len(x)
	out := make([]complex128, n)

	// bit-reversal permutation
	shift := 64 - uint(bits.TrailingZeros(uint(n)))
	for i := 0; i < n; i++ {
		out[bits.Reverse64(uint64(i))>>shift] = complex(x[i], 0)
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				even := out[start+k]
				odd := out[start+k+half] * w
				out[start+k] = even + odd
				out[start+k+half] = even - odd
				w *= step
			}
		}
	}
	return out
}
