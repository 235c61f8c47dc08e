package analyzer

import "fmt"

// Tag classifies an analysis failure into one of the policies the queue
// adapter applies when deciding whether to ack, reject, or reject-with-requeue
// a message.
type Tag int

const (
	// MalformedInput covers JSON parse failures, schema failures, wire codec
	// failures, and unknown packet types. Reject without requeue.
	MalformedInput Tag = iota
	// InsufficientData covers batches too small or too narrow in time to
	// analyze. Analyze also uses it for every histogram failure, a
	// zero-width bin included. Reject without requeue; retrying the same
	// data cannot help.
	InsufficientData
	// NumericalDegeneracy covers a Hurst estimator that finds no usable
	// variation (a constant or too-short series). Histogram failures are not
	// tagged with it. Reject without requeue.
	NumericalDegeneracy
	// TransientEgressFailure covers HTTP 5xx, non-auth 4xx, and network
	// errors talking to the downstream API. Reject with requeue.
	TransientEgressFailure
	// ConfigurationFailure covers missing API credentials. Reject with
	// requeue; an operator fix makes the retry succeed.
	ConfigurationFailure
	// BrokerFailure covers AMQP channel/connection loss. Not message-scoped;
	// the consumer process exits and a supervisor restarts it.
	BrokerFailure
)

func (t Tag) String() string {
	switch t {
	case MalformedInput:
		return "malformed_input"
	case InsufficientData:
		return "insufficient_data"
	case NumericalDegeneracy:
		return "numerical_degeneracy"
	case TransientEgressFailure:
		return "transient_egress_failure"
	case ConfigurationFailure:
		return "configuration_failure"
	case BrokerFailure:
		return "broker_failure"
	default:
		return "unknown"
	}
}

// Error is the single tagged error type the Orchestrator returns, wrapping
// whatever sentinel error from a component actually triggered it.
type Error struct {
	Tag Tag
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analyzer: %s: %v", e.Tag, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// tagged wraps err with tag, or returns nil if err is nil.
func tagged(tag Tag, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Tag: tag, Err: err}
}
