package queue_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/report"
	"github.com/tix-net/condenser/internal/wire"
)

// wellFormedBatch builds a single-report JSON array body with enough
// observations, spanning enough wall-clock time, for analyzer.Analyze to
// succeed end to end.
func wellFormedBatch(t *testing.T) []byte {
	t.Helper()

	const n = 700
	base := int64(1700000000)
	observations := make([]wire.Observation, n)
	for i := 0; i < n; i++ {
		observations[i] = wire.Observation{
			DayTimestamp:       base + int64(i),
			TypeIdentifier:     wire.Short,
			PacketSize:         64,
			InitialTimestamp:   0,
			ReceptionTimestamp: int64(15000 + (i%11)*200),
			SentTimestamp:      30000,
			FinalTimestamp:     int64(60000 + (i%7)*200 + i),
		}
	}

	r := report.Report{
		From:           "203.0.113.5:54321",
		To:             "198.51.100.9:443",
		Type:           wire.Short,
		InitialTS:      1,
		ReceivedTS:     2,
		SentTS:         3,
		FinalTS:        4,
		PublicKey:      "pk",
		Signature:      "sig",
		UserID:         7,
		InstallationID: 9,
		Observations:   observations,
	}

	body, err := json.Marshal([]report.Report{r})
	require.NoError(t, err)
	return body
}
