package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// recordSize is the fixed width of one serialized Observation: 8 (day_timestamp)
// + 1 (type_identifier) + 4 (packet_size) + 8*4 (the four ns timestamps).
const recordSize = 8 + 1 + 4 + 8 + 8 + 8 + 8

// ErrMalformed is returned when a message block cannot be decoded into a
// sequence of valid Observations: bad base64, a length that isn't a multiple
// of recordSize, or an unknown type identifier.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("wire: malformed message: %s", e.Reason)
}

// Deserialize decodes a base64 "message" field into the Observations it
// encodes. The decoded byte block must be an exact multiple of recordSize.
func Deserialize(message string) ([]Observation, error) {
	raw, err := base64.StdEncoding.DecodeString(message)
	if err != nil {
		return nil, &ErrMalformed{Reason: "invalid base64: " + err.Error()}
	}
	if len(raw)%recordSize != 0 {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("byte block length %d is not a multiple of %d", len(raw), recordSize)}
	}

	n := len(raw) / recordSize
	observations := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		record := raw[i*recordSize : (i+1)*recordSize]
		obs, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func decodeRecord(record []byte) (Observation, error) {
	r := bytes.NewReader(record)
	var (
		dayTimestamp       int64
		typeIdentifier     byte
		packetSize         int32
		initialTimestamp   int64
		receptionTimestamp int64
		sentTimestamp      int64
		finalTimestamp     int64
	)
	for _, field := range []struct {
		name string
		dst  interface{}
	}{
		{"day_timestamp", &dayTimestamp},
		{"type_identifier", &typeIdentifier},
		{"packet_size", &packetSize},
		{"initial_timestamp", &initialTimestamp},
		{"reception_timestamp", &receptionTimestamp},
		{"sent_timestamp", &sentTimestamp},
		{"final_timestamp", &finalTimestamp},
	} {
		if err := binary.Read(r, binary.BigEndian, field.dst); err != nil {
			return Observation{}, &ErrMalformed{Reason: "reading " + field.name + ": " + err.Error()}
		}
	}

	pt := PacketType(typeIdentifier)
	if !pt.Valid() {
		return Observation{}, &ErrMalformed{Reason: fmt.Sprintf("unknown type identifier %q", typeIdentifier)}
	}

	return Observation{
		DayTimestamp:       dayTimestamp,
		TypeIdentifier:     pt,
		PacketSize:         packetSize,
		InitialTimestamp:   initialTimestamp,
		ReceptionTimestamp: receptionTimestamp,
		SentTimestamp:      sentTimestamp,
		FinalTimestamp:     finalTimestamp,
	}, nil
}

// Serialize is the inverse of Deserialize: it produces the base64 "message"
// field for a slice of Observations. Round-tripping any valid Observation
// through Serialize then Deserialize must reproduce it byte-exactly.
func Serialize(observations []Observation) (string, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(observations)*recordSize))
	for _, obs := range observations {
		if !obs.TypeIdentifier.Valid() {
			return "", &ErrMalformed{Reason: fmt.Sprintf("unknown type identifier %q", byte(obs.TypeIdentifier))}
		}
		for _, field := range []interface{}{
			obs.DayTimestamp,
			byte(obs.TypeIdentifier),
			obs.PacketSize,
			obs.InitialTimestamp,
			obs.ReceptionTimestamp,
			obs.SentTimestamp,
			obs.FinalTimestamp,
		} {
			if err := binary.Write(buf, binary.BigEndian, field); err != nil {
				return "", fmt.Errorf("wire: encoding observation: %w", err)
			}
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
