// Package hurst implements two independent self-similarity estimators —
// Rescaled-Range (R/S) and Wavelet — used to characterize the long-range
// dependence of upstream/downstream one-way time series.
package hurst

import "math"

// Truncate keeps the last 2^floor(log2(len(series))) elements of series,
// the largest power-of-two window ending at the most recent sample. Both
// estimators require a power-of-two-length input.
func Truncate(series []float64) []float64 {
	n := len(series)
	if n == 0 {
		return series
	}
	desired := 1 << int(math.Floor(math.Log2(float64(n))))
	return series[n-desired:]
}

// Effective combines the two independent estimates into the single value
// used by the congestion decision: their arithmetic mean.
func Effective(rs, wavelet float64) float64 {
	return (rs + wavelet) / 2
}

// Value is the pair of independent Hurst estimates produced for one
// direction (upstream or downstream).
type Value struct {
	RS      float64
	Wavelet float64
}
