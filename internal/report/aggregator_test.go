package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/report"
	"github.com/tix-net/condenser/internal/wire"
)

func TestCollectObservationsReturnsEmptyForNoReports(t *testing.T) {
	ip, observations, err := report.CollectObservations(nil)
	require.NoError(t, err)
	assert.Empty(t, ip)
	assert.Nil(t, observations)
}

func TestCollectObservationsDedupesWithinIP(t *testing.T) {
	shared := wire.Observation{DayTimestamp: 1, TypeIdentifier: wire.Short, FinalTimestamp: 100}
	reports := []report.Report{
		{From: "203.0.113.5:1", Observations: []wire.Observation{shared}},
		{From: "203.0.113.5:2", Observations: []wire.Observation{shared}},
	}

	ip, observations, err := report.CollectObservations(reports)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5", ip)
	assert.Len(t, observations, 1)
}

func TestCollectObservationsSortsByDayTimestamp(t *testing.T) {
	late := wire.Observation{DayTimestamp: 300, TypeIdentifier: wire.Short, FinalTimestamp: 300}
	early := wire.Observation{DayTimestamp: 100, TypeIdentifier: wire.Short, FinalTimestamp: 100}
	mid := wire.Observation{DayTimestamp: 200, TypeIdentifier: wire.Short, FinalTimestamp: 200}
	reports := []report.Report{
		{From: "203.0.113.5:1", Observations: []wire.Observation{late, early, mid}},
	}

	_, observations, err := report.CollectObservations(reports)
	require.NoError(t, err)
	require.Len(t, observations, 3)
	assert.Equal(t, []int64{100, 200, 300}, []int64{
		observations[0].DayTimestamp,
		observations[1].DayTimestamp,
		observations[2].DayTimestamp,
	})
}

func TestCollectObservationsUsesFirstIPInOrder(t *testing.T) {
	a := wire.Observation{DayTimestamp: 1, TypeIdentifier: wire.Short, FinalTimestamp: 100}
	b := wire.Observation{DayTimestamp: 2, TypeIdentifier: wire.Short, FinalTimestamp: 200}
	reports := []report.Report{
		{From: "203.0.113.5:1", Observations: []wire.Observation{a}},
		{From: "198.51.100.9:1", Observations: []wire.Observation{b}},
	}

	ip, observations, err := report.CollectObservations(reports)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5", ip)
	assert.Len(t, observations, 1)
}
