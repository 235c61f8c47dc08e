// Package clockfix estimates the clock offset between a probe's client and
// the measurement server as a linear function of absolute time, so that
// upstream and downstream one-way times can be decomposed out of a
// round-trip measurement.
package clockfix

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tix-net/condenser/internal/wire"
)

// UpstreamSerialization and DownstreamSerialization are the fixed processing
// delays (nanoseconds) subtracted/added when decomposing tau into upstream
// and downstream halves.
const (
	UpstreamSerialization   = 15_000
	DownstreamSerialization = 15_000
)

// PhiEstimate holds the three phi values derived for a single observation,
// kept as a parallel structure rather than mutating wire.Observation.
type PhiEstimate struct {
	UpstreamPhi   float64
	DownstreamPhi float64
	EstimatedPhi  float64
}

// PhiFunc is the fitted clock-offset function, linear in absolute time
// (seconds since the Unix epoch).
type PhiFunc func(dayTimestamp int64) float64

// ErrInsufficientMinutes is returned when fewer than two distinct
// minute-buckets of observations are available to fit a line.
type ErrInsufficientMinutes struct {
	Minutes int
}

func (e *ErrInsufficientMinutes) Error() string {
	return fmt.Sprintf("clockfix: need at least 2 minute buckets, got %d", e.Minutes)
}

// EstimatePerObservation computes the (upstream, downstream, estimated) phi
// triple for each observation given the RTT mode tau, preserving input
// order.
func EstimatePerObservation(observations []wire.Observation, tau float64) []PhiEstimate {
	estimates := make([]PhiEstimate, len(observations))
	for i, o := range observations {
		upstreamPhi := float64(o.ReceptionTimestamp-o.InitialTimestamp) - UpstreamSerialization - tau
		downstreamPhi := float64(o.SentTimestamp-o.FinalTimestamp) + DownstreamSerialization + tau
		estimates[i] = PhiEstimate{
			UpstreamPhi:   upstreamPhi,
			DownstreamPhi: downstreamPhi,
			EstimatedPhi:  (upstreamPhi + downstreamPhi) / 2,
		}
	}
	return estimates
}

// Fit derives the linear phi(t) estimator: per-minute median of EstimatedPhi,
// then ordinary least squares of those medians against the minute's Unix
// timestamp.
func Fit(observations []wire.Observation, tau float64) (PhiFunc, error) {
	estimates := EstimatePerObservation(observations, tau)

	byMinute := make(map[int64][]float64)
	for i, o := range observations {
		minute := time.Unix(o.DayTimestamp, 0).UTC().Truncate(time.Minute).Unix()
		byMinute[minute] = append(byMinute[minute], estimates[i].EstimatedPhi)
	}

	if len(byMinute) < 2 {
		return nil, &ErrInsufficientMinutes{Minutes: len(byMinute)}
	}

	minutes := make([]int64, 0, len(byMinute))
	for minute := range byMinute {
		minutes = append(minutes, minute)
	}
	sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })

	xs := make([]float64, len(minutes))
	ys := make([]float64, len(minutes))
	for i, minute := range minutes {
		xs[i] = float64(minute)
		ys[i] = median(byMinute[minute])
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return func(dayTimestamp int64) float64 {
		return slope*float64(dayTimestamp) + intercept
	}, nil
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
