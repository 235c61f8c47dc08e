package hurst

// Daubechies-2 (db2) analysis filter coefficients. No library in this
// module's dependency tree implements a discrete wavelet transform, so the
// filter bank is written out directly.
var (
	db2Low  = []float64{-0.1294095226, 0.2241438680, 0.8365163037, 0.4829629131}
	db2High = []float64{-0.4829629131, 0.8365163037, -0.2241438680, -0.1294095226}
)

// dwtLevel runs one level of a periodic (circular) discrete wavelet
// transform over x using the db2 filter bank, returning the approximation
// and detail coefficients, each of length len(x)/2.
//
// The signal is extended periodically at its boundary rather than padded
// with zeros, so energy is conserved across the decomposition.
func dwtLevel(x []float64) (approx, detail []float64) {
	n := len(x)
	half := n / 2
	approx = make([]float64, half)
	detail = make([]float64, half)
	filterLen := len(db2Low)

	for i := 0; i < half; i++ {
		var a, d float64
		base := 2 * i
		for k := 0; k < filterLen; k++ {
			idx := (base + k) % n
			a += db2Low[k] * x[idx]
			d += db2High[k] * x[idx]
		}
		approx[i] = a
		detail[i] = d
	}
	return approx, detail
}

// decompose runs the periodic db2 DWT to its maximum depth, returning the
// detail coefficients at each octave (coarsest scale last is not required;
// octave 0 is the finest scale, closest to the original sampling rate).
func decompose(x []float64) [][]float64 {
	var details [][]float64
	approx := x
	for len(approx) >= len(db2Low) {
		var detail []float64
		approx, detail = dwtLevel(approx)
		details = append(details, detail)
		if len(approx) < 2 {
			break
		}
	}
	return details
}

// waveletOrder is the Daubechies db2 filter order N; octaveEnergy drops
// this many coefficients from each end of a detail vector before computing
// its mean square, discarding the boundary-contaminated coefficients the
// periodic extension introduces at the edges of each octave.
const waveletOrder = 2

// octaveEnergy returns the mean squared detail coefficient (the average
// wavelet energy) at a given octave, after trimming the first and last
// waveletOrder coefficients.
func octaveEnergy(detail []float64) float64 {
	if len(detail) <= 2*waveletOrder {
		return 0
	}
	trimmed := detail[waveletOrder : len(detail)-waveletOrder]
	var sum float64
	for _, v := range trimmed {
		sum += v * v
	}
	return sum / float64(len(trimmed))
}
