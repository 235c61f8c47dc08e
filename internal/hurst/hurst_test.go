package hurst_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/hurst"
)

func TestTruncateKeepsLargestPowerOfTwoSuffix(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(i)
	}
	truncated := hurst.Truncate(series)

	assert.Len(t, truncated, 64)
	assert.Equal(t, float64(36), truncated[0])
	assert.Equal(t, float64(99), truncated[len(truncated)-1])
}

func TestTruncateIsIdempotentOnExactPowerOfTwo(t *testing.T) {
	series := make([]float64, 128)
	truncated := hurst.Truncate(series)
	assert.Len(t, truncated, 128)
}

func TestEffectiveIsArithmeticMean(t *testing.T) {
	assert.InDelta(t, 0.6, hurst.Effective(0.5, 0.7), 1e-9)
}

func fractionalSeries(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	series := make([]float64, n)
	var cumulative float64
	for i := range series {
		cumulative += r.NormFloat64()
		series[i] = cumulative
	}
	return series
}

func TestRSReturnsFiniteValueForLongSeries(t *testing.T) {
	// 10^2.5 approx 316 observations, the spec's minimum length for the
	// R/S estimator to produce a finite slope.
	series := fractionalSeries(320, 1)

	value, err := hurst.RS(series)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(value))
	assert.False(t, math.IsInf(value, 0))
}

func TestRSRejectsConstantSeries(t *testing.T) {
	series := make([]float64, 400)
	for i := range series {
		series[i] = 7
	}

	_, err := hurst.RS(series)
	var constant hurst.ErrConstantSeries
	require.ErrorAs(t, err, &constant)
}

func TestWaveletReturnsFiniteValueForLongSeries(t *testing.T) {
	// 2^(8+2) = 1024 observations; octaves 2 through 6 keep enough
	// coefficients after trimming to enter the fit.
	series := fractionalSeries(1024, 2)

	value, err := hurst.Wavelet(series)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(value))
	assert.False(t, math.IsInf(value, 0))
}

func TestWaveletRejectsShortSeries(t *testing.T) {
	series := fractionalSeries(8, 3)

	_, err := hurst.Wavelet(series)
	var constant hurst.ErrConstantSeries
	require.ErrorAs(t, err, &constant)
}
