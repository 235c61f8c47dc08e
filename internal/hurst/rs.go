package hurst

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// R/S estimator parameters, fixed by the calibrated source implementation.
const (
	rsNBLK   = 5
	rsNLAG   = 50
	rsPower1 = 0.7
	rsPower2 = 2.5
)

// ErrConstantSeries is returned when every computed range statistic is zero,
// meaning the input series carries no usable variation (or is too short).
type ErrConstantSeries struct{}

func (ErrConstantSeries) Error() string {
	return "hurst: series is constant or too short for R/S estimation"
}

// RS computes the Rescaled-Range Hurst estimate of x, a port of the
// classic Crs/plotrs routine (NBLK=5, NLAG=50, OVERLAP=1).
func RS(x []float64) (float64, error) {
	n := len(x)
	r, rs := crs(x, n, rsNBLK, rsNLAG)

	increment := math.Log10(float64(n)) / rsNLAG

	var ld, lra []float64
	for k := 0; k < rsNLAG; k++ {
		lagFraction := float64(k) * increment
		if lagFraction < rsPower1 || lagFraction > rsPower2 {
			continue
		}
		windowLen := math.Floor(math.Pow(10, float64(k+1)*increment))
		logWindow := math.Log10(windowLen)
		for i := 0; i < rsNBLK; i++ {
			idx := k*rsNBLK + i
			if r[idx] <= 0 {
				continue
			}
			ld = append(ld, logWindow)
			lra = append(lra, math.Log10(rs[idx]))
		}
	}

	if len(ld) == 0 {
		return 0, ErrConstantSeries{}
	}

	_, slope := stat.LinearRegression(ld, lra, nil, false)
	return slope, nil
}

// crs is a direct port of the source's Crs function: it computes, for each
// of NLAG logarithmically spaced window lengths, the range R and the
// rescaled range R/S at up to NBLK starting offsets within the series.
//
// Returns two flat arrays of length NBLK*NLAG indexed [k*NBLK+i]: the range
// R and the rescaled range R/S.
func crs(data []float64, n, nblk, nlag int) (r, rs []float64) {
	r = make([]float64, nblk*nlag)
	rs = make([]float64, nblk*nlag)

	xcum := make([]float64, n)
	xsqcum := make([]float64, n)
	xcum[0] = data[0]
	xsqcum[0] = data[0] * data[0]
	for i := 1; i < n; i++ {
		xcum[i] = xcum[i-1] + data[i]
		xsqcum[i] = xsqcum[i-1] + data[i]*data[i]
	}

	blksize := n / nblk
	// OVERLAP is always 1 in this system: the increment is always derived
	// from the full series length, never from blksize.
	increment := math.Log10(float64(n)) / float64(nlag)

	for k := 0; k < nlag; k++ {
		var d int
		if k == nlag-1 {
			d = int(math.Pow(10, increment*float64(k+1)))
		} else {
			d = int(math.Ceil(math.Pow(10, increment*float64(k+1))))
		}
		if d < 1 {
			d = 1
		}
		if d > n {
			d = n
		}

		correction := int(math.Ceil(float64(d-blksize) / float64(blksize)))
		if correction == nblk {
			correction--
		}
		nval := nblk
		if d > blksize {
			nval = nblk - correction
		}
		if nval < 1 {
			nval = 1
		}
		if nval > nblk {
			nval = nblk
		}

		for i := 0; i < nval; i++ {
			var ave, secondMoment float64
			var windowStart int
			if i == 0 {
				ave = xcum[d-1] / float64(d)
				secondMoment = xsqcum[d-1] / float64(d)
				windowStart = 0
			} else {
				hi := blksize*i - 1 + d
				lo := blksize*i - 1
				if hi >= n {
					hi = n - 1
				}
				ave = (xcum[hi] - xcum[lo]) / float64(d)
				secondMoment = (xsqcum[hi] - xsqcum[lo]) / float64(d)
				windowStart = blksize*i - 1
			}

			max, min := 0.0, 0.0
			for j := 0; j < d; j++ {
				var cum float64
				if i == 0 {
					cum = xcum[j]
				} else {
					cum = xcum[windowStart+1+j] - xcum[windowStart]
				}
				temp := cum - float64(j+1)*ave
				if temp > max {
					max = temp
				} else if temp < min {
					min = temp
				}
			}

			idx := k*nblk + i
			rangeVal := max - min
			r[idx] = rangeVal
			if secondMoment > ave*ave {
				s := math.Sqrt(secondMoment - ave*ave)
				rs[idx] = rangeVal / s
			} else {
				rs[idx] = rangeVal
			}
		}
	}

	return r, rs
}
