package signal

import (
	"fmt"
	"math"

	"github.com/opensource-finance/harrier/internal/dataset"
	"github.com/opensource-finance/harrier/internal/domain"
)

// Daubechies scaling (low-pass decomposition) coefficients, orthonormal.
var waveletFilters = map[string][]float64{
	"haar": {
		0.7071067811865476, 0.7071067811865476,
	},
	"db2": {
		0.48296291314469025, 0.836516303737469,
		0.22414386804185735, -0.12940952255092145,
	},
	"db4": {
		0.23037781330885523, 0.7148465705525415,
		0.6308807679295904, -0.02798376941698385,
		-0.18703481171888114, 0.030841381835986965,
		0.032883011666982945, -0.010597401784997278,
	},
}

// WaveletProcessor denoises the normalized amount series with a
// multi-level wavelet decomposition: all detail bands are zeroed and the
// signal is reconstructed from the approximation band alone, acting as an
// approximate low-pass filter.
type WaveletProcessor struct {
	wavelet string
	level   int
	decLo   []float64
	decHi   []float64
}

// NewWaveletProcessor creates a wavelet processor. The wavelet must be
// one of "haar", "db2", "db4"; level must be positive. Compatibility of
// the level with the series length is checked per dataset at Process time.
func NewWaveletProcessor(wavelet string, level int) (*WaveletProcessor, error) {
	decLo, ok := waveletFilters[wavelet]
	if !ok {
		return nil, domain.NewConfigurationError("processor.wavelet", "unsupported wavelet: %q", wavelet)
	}
	if level < 1 {
		return nil, domain.NewConfigurationError("processor.level", "decomposition level must be >= 1, got %d", level)
	}

	// quadrature mirror of the low-pass filter
	l := len(decLo)
	decHi := make([]float64, l)
	for k := 0; k < l; k++ {
		decHi[k] = decLo[l-1-k]
		if k%2 == 1 {
			decHi[k] = -decHi[k]
		}
	}

	return &WaveletProcessor{wavelet: wavelet, level: level, decLo: decLo, decHi: decHi}, nil
}

// Name returns the processor's display name.
func (p *WaveletProcessor) Name() string {
	return fmt.Sprintf("Wavelet Transform (%s)", p.wavelet)
}

// MaxLevel returns the maximum useful decomposition depth for a series
// of length n with this processor's filter.
func (p *WaveletProcessor) MaxLevel(n int) int {
	flen := len(p.decLo)
	if n < flen {
		return 0
	}
	return int(math.Log2(float64(n) / float64(flen-1)))
}

// Process returns the denoised signal, truncated to exactly the length of
// the input amount series.
func (p *WaveletProcessor) Process(ds *dataset.Dataset) ([]float64, error) {
	normalized := Normalize(ds.Amounts())
	n := len(normalized)

	if max := p.MaxLevel(n); p.level > max {
		return nil, domain.NewConfigurationError("processor.level",
			"level %d exceeds maximum decomposition depth %d for series length %d (%s)",
			p.level, max, n, p.wavelet)
	}

	// decompose: keep only the approximation band at each level
	lengths := make([]int, p.level)
	x := normalized
	for l := 0; l < p.level; l++ {
		lengths[l] = len(x)
		x, _ = p.decompose(x)
	}

	// reconstruct from approximation alone, discarding details
	for l := p.level - 1; l >= 0; l-- {
		x = p.reconstruct(x, lengths[l])
	}

	if len(x) > n {
		x = x[:n]
	}
	return x, nil
}

// decompose performs one periodized analysis step, returning the
// approximation and detail bands at half length.
func (p *WaveletProcessor) decompose(x []float64) (approx, detail []float64) {
	if len(x)%2 == 1 {
		// pad to even length by repeating the last sample
		x = append(x[:len(x):len(x)], x[len(x)-1])
	}
	n := len(x)
	half := n / 2
	approx = make([]float64, half)
	detail = make([]float64, half)

	for i := 0; i < half; i++ {
		var a, d float64
		for k, lo := range p.decLo {
			v := x[(2*i+k)%n]
			a += lo * v
			d += p.decHi[k] * v
		}
		approx[i] = a
		detail[i] = d
	}
	return approx, detail
}

// reconstruct performs one periodized synthesis step from the
// approximation band alone (details treated as zero), producing a signal
// of the given original length.
func (p *WaveletProcessor) reconstruct(approx []float64, length int) []float64 {
	n := length
	if n%2 == 1 {
		n++
	}
	out := make([]float64, n)
	for i, a := range approx {
		for k, lo := range p.decLo {
			out[(2*i+k)%n] += lo * a
		}
	}
	return out[:length]
}
