// Package usage computes per-direction link usage and a per-minute
// congestion quality score from a set of meaningful observations.
package usage

import (
	"fmt"
	"time"

	"github.com/tix-net/condenser/internal/histogram"
	"github.com/tix-net/condenser/internal/wire"
)

// MinimumSpan is the shortest observation span (most recent minus oldest
// DayTimestamp) that qualifies a batch as analyzable. Exactly MinimumSpan is
// still insufficient; the check is strict.
const MinimumSpan = 10 * time.Minute

// MinimumObservationsPerMinute is the floor below which a minute is dropped
// from the quality calculation rather than treated as non-congested.
const MinimumObservationsPerMinute = 30

// CongestionThreshold and HurstCongestionThreshold define a congested
// minute: usage below the former and effective Hurst above the latter.
const (
	CongestionThreshold      = 0.5
	HurstCongestionThreshold = 0.7
)

// ErrInsufficientSpan is returned when the observation batch does not span
// more than MinimumSpan.
type ErrInsufficientSpan struct {
	Span time.Duration
}

func (e *ErrInsufficientSpan) Error() string {
	return fmt.Sprintf("usage: observation span %s does not exceed the required %s", e.Span, MinimumSpan)
}

// Meaningful returns the subset of observations within the last
// MinimumSpan of the most recent DayTimestamp, or ErrInsufficientSpan if the
// full batch's span doesn't exceed MinimumSpan.
func Meaningful(observations []wire.Observation) ([]wire.Observation, error) {
	if len(observations) == 0 {
		return nil, &ErrInsufficientSpan{Span: 0}
	}

	minTs, maxTs := observations[0].DayTimestamp, observations[0].DayTimestamp
	for _, o := range observations[1:] {
		if o.DayTimestamp < minTs {
			minTs = o.DayTimestamp
		}
		if o.DayTimestamp > maxTs {
			maxTs = o.DayTimestamp
		}
	}

	span := time.Duration(maxTs-minTs) * time.Second
	if span <= MinimumSpan {
		return nil, &ErrInsufficientSpan{Span: span}
	}

	cutoff := maxTs - int64(MinimumSpan/time.Second)
	meaningful := make([]wire.Observation, 0, len(observations))
	for _, o := range observations {
		if o.DayTimestamp > cutoff {
			meaningful = append(meaningful, o)
		}
	}
	return meaningful, nil
}

// Usage computes the fraction of observations whose projected value exceeds
// the batch's own histogram threshold.
func Usage(observations []wire.Observation, proj histogram.Projection) (float64, error) {
	h, err := histogram.Build(observations, proj)
	if err != nil {
		return 0, err
	}

	threshold := h.Threshold()
	var above int
	for _, o := range observations {
		if proj(o) > threshold {
			above++
		}
	}
	return float64(above) / float64(len(observations)), nil
}

// Quality partitions observations by UTC minute, drops minutes with fewer
// than MinimumObservationsPerMinute samples, and reports the fraction of
// remaining minutes that are not congested. effectiveHurst is the
// already-computed arithmetic mean of the direction's RS and Wavelet
// estimates, applied uniformly across minutes (the Hurst exponent is not
// recomputed per minute; only usage is).
func Quality(observations []wire.Observation, proj histogram.Projection, effectiveHurst float64) (float64, error) {
	byMinute := make(map[int64][]wire.Observation)
	for _, o := range observations {
		minute := time.Unix(o.DayTimestamp, 0).UTC().Truncate(time.Minute).Unix()
		byMinute[minute] = append(byMinute[minute], o)
	}

	var minutes, congested int
	for _, bucket := range byMinute {
		if len(bucket) < MinimumObservationsPerMinute {
			continue
		}
		minutes++

		minuteUsage, err := Usage(bucket, proj)
		if err != nil {
			return 0, err
		}
		if minuteUsage < CongestionThreshold && effectiveHurst > HurstCongestionThreshold {
			congested++
		}
	}

	if minutes == 0 {
		return 0, &ErrInsufficientSpan{Span: 0}
	}
	return float64(minutes-congested) / float64(minutes), nil
}
