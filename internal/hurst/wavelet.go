package hurst

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Octave bounds used for the log-log fit, matching the calibrated range
// used by the source implementation's wavelet estimator.
const (
	waveletMinOctave = 2
	waveletMaxOctave = 8
)

// Wavelet computes the Wavelet-based Hurst estimate of x: the series is
// decomposed with a periodic db2 DWT, the mean energy at each octave is
// regressed against octave index in log2 space, and the reported value is
// fitH = (beta+1)/2, where beta is the fitted slope — not beta itself.
func Wavelet(x []float64) (float64, error) {
	details := decompose(x)
	if len(details) <= waveletMinOctave {
		return 0, ErrConstantSeries{}
	}

	var octaves, logEnergy []float64
	maxOctave := waveletMaxOctave
	if maxOctave > len(details)-1 {
		maxOctave = len(details) - 1
	}

	for j := waveletMinOctave; j <= maxOctave; j++ {
		energy := octaveEnergy(details[j])
		if energy <= 0 {
			continue
		}
		octaves = append(octaves, float64(j))
		logEnergy = append(logEnergy, math.Log2(energy))
	}

	if len(octaves) < 2 {
		return 0, ErrConstantSeries{}
	}

	_, beta := stat.LinearRegression(octaves, logEnergy, nil, false)
	return (beta + 1) / 2, nil
}
