// Package report models the JSON envelope a queue message carries: one or
// more signed reports, each wrapping a base64-encoded block of wire
// observations for a single source/destination pair.
package report

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/tix-net/condenser/internal/wire"
)

// Report is the JSON envelope for one batch of observations. Its JSON field
// names are declared by the struct tags on jsonAlias, the same
// lowerCamelCase wire names the original schema uses; Message is decoded
// through the wire codec into Observations and is not retained on the
// struct.
type Report struct {
	From           string
	To             string
	Type           wire.PacketType
	InitialTS      int64
	ReceivedTS     int64
	SentTS         int64
	FinalTS        int64
	PublicKey      string
	Signature      string
	UserID         int64
	InstallationID int64
	Observations   []wire.Observation
}

// jsonAlias mirrors Report's wire shape for (un)marshaling, with ReceivedTS
// doubled up under its two historical field names and Message carrying the
// raw base64 block instead of the decoded Observations.
type jsonAlias struct {
	From               string          `json:"from"`
	To                 string          `json:"to"`
	Type               wire.PacketType `json:"type"`
	InitialTS          int64           `json:"initialTimestamp"`
	ReceivedTS         int64           `json:"receivedTimestamp,omitempty"`
	ReceptionTimestamp int64           `json:"receptionTimestamp,omitempty"`
	SentTS             int64           `json:"sentTimestamp"`
	FinalTS            int64           `json:"finalTimestamp"`
	PublicKey          string          `json:"publicKey"`
	Message            string          `json:"message"`
	Signature          string          `json:"signature"`
	UserID             int64           `json:"userId"`
	InstallationID     int64           `json:"installationId"`
}

// UnmarshalJSON accepts either receivedTimestamp or the older
// receptionTimestamp spelling and decodes Message through the wire codec.
func (r *Report) UnmarshalJSON(data []byte) error {
	var alias jsonAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	received := alias.ReceivedTS
	if received == 0 {
		received = alias.ReceptionTimestamp
	}

	observations, err := wire.Deserialize(alias.Message)
	if err != nil {
		return fmt.Errorf("report: decoding message: %w", err)
	}

	*r = Report{
		From:           alias.From,
		To:             alias.To,
		Type:           alias.Type,
		InitialTS:      alias.InitialTS,
		ReceivedTS:     received,
		SentTS:         alias.SentTS,
		FinalTS:        alias.FinalTS,
		PublicKey:      alias.PublicKey,
		Signature:      alias.Signature,
		UserID:         alias.UserID,
		InstallationID: alias.InstallationID,
		Observations:   observations,
	}
	return nil
}

// MarshalJSON emits the received timestamp as receivedTimestamp (omitted
// when zero), never as receptionTimestamp, re-encoding Observations through
// the wire codec into Message.
func (r Report) MarshalJSON() ([]byte, error) {
	message, err := wire.Serialize(r.Observations)
	if err != nil {
		return nil, fmt.Errorf("report: encoding message: %w", err)
	}

	return json.Marshal(jsonAlias{
		From:           r.From,
		To:             r.To,
		Type:           r.Type,
		InitialTS:      r.InitialTS,
		ReceivedTS:     r.ReceivedTS,
		SentTS:         r.SentTS,
		FinalTS:        r.FinalTS,
		PublicKey:      r.PublicKey,
		Message:        message,
		Signature:      r.Signature,
		UserID:         r.UserID,
		InstallationID: r.InstallationID,
	})
}

// SourceIP returns the IP portion of From, stripping a trailing ":port"
// when present.
func (r Report) SourceIP() string {
	if host, _, err := net.SplitHostPort(r.From); err == nil {
		return host
	}
	return strings.TrimSpace(r.From)
}
