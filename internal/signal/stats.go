package signal

import "math"

// Mean returns the arithmetic mean of xs (0 for an empty series).
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		dev := x - mean
		ss += dev * dev
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Normalize returns the z-score-normalized series (value - mean) / stddev.
// A degenerate series with zero standard deviation normalizes to all
// zeros instead of dividing by zero.
func Normalize(xs []float64) []float64 {
	out := make([]float64, len(xs))
	std := StdDev(xs)
	if std == 0 {
		return out
	}
	mean := Mean(xs)
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}
