// Package wire implements the compact binary framing used to embed
// per-packet observations inside a report's base64 message field.
package wire

import (
	"encoding/json"
	"fmt"
)

// PacketType identifies whether an Observation came from a short or long probe.
type PacketType byte

const (
	Short PacketType = 'S'
	Long  PacketType = 'L'
)

func (t PacketType) Valid() bool {
	return t == Short || t == Long
}

func (t PacketType) String() string {
	switch t {
	case Short:
		return "S"
	case Long:
		return "L"
	default:
		return fmt.Sprintf("PacketType(%d)", byte(t))
	}
}

// MarshalJSON encodes the packet type as its single-letter string form
// ("S" or "L"), matching the report schema.
func (t PacketType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the single-letter "S"/"L" string form.
func (t *PacketType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "S":
		*t = Short
	case "L":
		*t = Long
	default:
		return fmt.Errorf("wire: unknown packet type %q", s)
	}
	return nil
}

// Observation is one probed packet's four timestamps plus identity. It is
// immutable and comparable, so a slice of Observations can be deduplicated by
// putting them in a map keyed on the struct value itself.
type Observation struct {
	DayTimestamp        int64
	TypeIdentifier      PacketType
	PacketSize          int32
	InitialTimestamp    int64
	ReceptionTimestamp  int64
	SentTimestamp       int64
	FinalTimestamp      int64
}

// dayNanos is the exclusive upper bound for the four nanosecond-of-day
// timestamp fields: 24h expressed in nanoseconds.
const dayNanos = 24 * 60 * 60 * 1_000_000_000

// Valid reports whether the four ns-of-day timestamps lie within [0, 24h) and
// the packet type is one of the two known identifiers.
func (o Observation) Valid() bool {
	if !o.TypeIdentifier.Valid() {
		return false
	}
	for _, ts := range [...]int64{o.InitialTimestamp, o.ReceptionTimestamp, o.SentTimestamp, o.FinalTimestamp} {
		if ts < 0 || ts >= dayNanos {
			return false
		}
	}
	return true
}
