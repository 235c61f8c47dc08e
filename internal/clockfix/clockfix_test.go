package clockfix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/clockfix"
	"github.com/tix-net/condenser/internal/wire"
)

func TestEstimatedPhiIsAverageOfUpstreamAndDownstream(t *testing.T) {
	observations := []wire.Observation{{
		DayTimestamp:       1700000000,
		InitialTimestamp:   0,
		ReceptionTimestamp: 20_000,
		SentTimestamp:      40_000,
		FinalTimestamp:     60_000,
	}}
	estimates := clockfix.EstimatePerObservation(observations, 1000)
	require.Len(t, estimates, 1)

	e := estimates[0]
	assert.InDelta(t, (e.UpstreamPhi+e.DownstreamPhi)/2, e.EstimatedPhi, 1e-9)
}

func TestFitFailsWithSingleMinuteBucket(t *testing.T) {
	observations := []wire.Observation{
		{DayTimestamp: 1700000000, InitialTimestamp: 0, ReceptionTimestamp: 20_000, SentTimestamp: 40_000, FinalTimestamp: 60_000},
		{DayTimestamp: 1700000010, InitialTimestamp: 0, ReceptionTimestamp: 21_000, SentTimestamp: 41_000, FinalTimestamp: 61_000},
	}
	_, err := clockfix.Fit(observations, 1000)
	var insufficient *clockfix.ErrInsufficientMinutes
	require.ErrorAs(t, err, &insufficient)
}

func TestFitRecoversLinearDrift(t *testing.T) {
	// Two minute buckets with a known difference in median estimated phi;
	// the fitted line should interpolate between them.
	var observations []wire.Observation
	base := int64(1700000000)
	for i := int64(0); i < 10; i++ {
		observations = append(observations, wire.Observation{
			DayTimestamp:       base + i,
			InitialTimestamp:   0,
			ReceptionTimestamp: 20_000,
			SentTimestamp:      40_000,
			FinalTimestamp:     60_000,
		})
	}
	for i := int64(0); i < 10; i++ {
		observations = append(observations, wire.Observation{
			DayTimestamp:       base + 60 + i,
			InitialTimestamp:   0,
			ReceptionTimestamp: 30_000,
			SentTimestamp:      40_000,
			FinalTimestamp:     60_000,
		})
	}

	phi, err := clockfix.Fit(observations, 1000)
	require.NoError(t, err)

	// phi should be an increasing function of time given the later bucket's
	// larger reception timestamp raises its upstream phi.
	assert.Less(t, phi(base), phi(base+60))
}
