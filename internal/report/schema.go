package report

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// schemaDocument is the JSON Schema a raw report body must satisfy before
// it is unmarshaled into a Report. It mirrors the wire contract: an IP or
// hostname pair, a packet type, four outer timestamps, and the signed
// observation block.
const schemaDocument = `{
  "type": "object",
  "properties": {
    "from": {"type": "string", "minLength": 1},
    "to": {"type": "string", "minLength": 1},
    "type": {"type": "string", "enum": ["S", "L"]},
    "initialTimestamp": {"type": "integer"},
    "receivedTimestamp": {"type": "integer"},
    "receptionTimestamp": {"type": "integer"},
    "sentTimestamp": {"type": "integer"},
    "finalTimestamp": {"type": "integer"},
    "publicKey": {"type": "string"},
    "message": {"type": "string"},
    "signature": {"type": "string"},
    "userId": {"type": "integer"},
    "installationId": {"type": "integer"}
  },
  "required": [
    "from", "to", "type",
    "initialTimestamp", "sentTimestamp", "finalTimestamp",
    "publicKey", "message", "signature",
    "userId", "installationId"
  ]
}`

var schemaLoader = gojsonschema.NewStringLoader(schemaDocument)

// ErrSchema is returned when a report body fails JSON Schema validation.
type ErrSchema struct {
	Errors []string
}

func (e *ErrSchema) Error() string {
	return fmt.Sprintf("report: schema validation failed: %v", e.Errors)
}

// ValidateSchema checks raw report JSON against schemaDocument, returning
// ErrSchema with the collected validation failures if it does not conform.
func ValidateSchema(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("report: running schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return &ErrSchema{Errors: messages}
}
