package report_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tix-net/condenser/internal/report"
	"github.com/tix-net/condenser/internal/wire"
)

func sampleMessage(t *testing.T) string {
	t.Helper()
	observations := []wire.Observation{{
		DayTimestamp:       1700000000,
		TypeIdentifier:     wire.Short,
		PacketSize:         64,
		InitialTimestamp:   0,
		ReceptionTimestamp: 15000,
		SentTimestamp:      30000,
		FinalTimestamp:     60000,
	}}
	message, err := wire.Serialize(observations)
	require.NoError(t, err)
	return message
}

func TestUnmarshalAcceptsReceivedTimestamp(t *testing.T) {
	body := `{
		"from": "203.0.113.5:54321",
		"to": "198.51.100.9:443",
		"type": "S",
		"initialTimestamp": 1,
		"receivedTimestamp": 2,
		"sentTimestamp": 3,
		"finalTimestamp": 4,
		"publicKey": "pk",
		"message": "` + sampleMessage(t) + `",
		"signature": "sig",
		"userId": 7,
		"installationId": 9
	}`

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	assert.Equal(t, int64(2), r.ReceivedTS)
	assert.Len(t, r.Observations, 1)
}

func TestUnmarshalAcceptsReceptionTimestamp(t *testing.T) {
	body := `{
		"from": "203.0.113.5:54321",
		"to": "198.51.100.9:443",
		"type": "L",
		"initialTimestamp": 1,
		"receptionTimestamp": 2,
		"sentTimestamp": 3,
		"finalTimestamp": 4,
		"publicKey": "pk",
		"message": "` + sampleMessage(t) + `",
		"signature": "sig",
		"userId": 7,
		"installationId": 9
	}`

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	assert.Equal(t, int64(2), r.ReceivedTS)
}

func TestMarshalAlwaysEmitsReceivedTimestamp(t *testing.T) {
	r := report.Report{
		From:       "203.0.113.5:54321",
		To:         "198.51.100.9:443",
		Type:       wire.Short,
		ReceivedTS: 42,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(42), raw["receivedTimestamp"])
	_, hasOld := raw["receptionTimestamp"]
	assert.False(t, hasOld)
}

func TestSourceIPStripsPort(t *testing.T) {
	r := report.Report{From: "203.0.113.5:54321"}
	assert.Equal(t, "203.0.113.5", r.SourceIP())
}

func TestSourceIPHandlesBareHost(t *testing.T) {
	r := report.Report{From: "203.0.113.5"}
	assert.Equal(t, "203.0.113.5", r.SourceIP())
}

func TestValidateSchemaRejectsMissingFields(t *testing.T) {
	err := report.ValidateSchema([]byte(`{"from": "a"}`))
	var schemaErr *report.ErrSchema
	require.ErrorAs(t, err, &schemaErr)
}

func TestValidateSchemaAcceptsWellFormedBody(t *testing.T) {
	body := `{
		"from": "203.0.113.5:54321",
		"to": "198.51.100.9:443",
		"type": "S",
		"initialTimestamp": 1,
		"receivedTimestamp": 2,
		"sentTimestamp": 3,
		"finalTimestamp": 4,
		"publicKey": "pk",
		"message": "` + sampleMessage(t) + `",
		"signature": "sig",
		"userId": 7,
		"installationId": 9
	}`
	assert.NoError(t, report.ValidateSchema([]byte(body)))
}
