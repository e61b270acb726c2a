package evalclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a request exceeds the client's time bound.
	ErrTimeout = errors.New("evaluation service request timed out")
	// ErrInvalidResponseShape is returned when the service answers 2xx with a
	// body that does not match the expected structure.
	ErrInvalidResponseShape = errors.New("evaluation service returned an unexpected response")
)

// TransportError is a network failure or a non-2xx status.
type TransportError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("evaluation service returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("evaluation service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Failure kinds, used as stable log and API values.
const (
	KindTimeout      = "timeout"
	KindInvalidShape = "invalid_response_shape"
	KindTransport    = "transport"
	KindUnclassified = "unclassified"
)

// Kind classifies err into one of the failure kinds.
func Kind(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrInvalidResponseShape):
		return KindInvalidShape
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindUnclassified
	}
}

const (
	timeoutMessage = "The evaluation took too long to respond. The selected model may be slow, " +
		"the evaluation server may be under heavy load, or your network connection may be unstable. " +
		"Please try again."
	transportMessage = "Could not reach the evaluation service. Please try again later."
)

// UserMessage returns the text shown to users for a request failure. An
// unexpected response body is reported the same way as a timeout.
func UserMessage(err error) string {
	switch Kind(err) {
	case KindTimeout, KindInvalidShape:
		return timeoutMessage
	default:
		return transportMessage
	}
}
