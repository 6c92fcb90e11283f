package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a RecordRepository when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrMalformedPayload means the event's "other" payload could not be decoded.
	ErrMalformedPayload = errors.New("malformed event payload")
	// ErrUnsupportedEvent means no transform rule exists for the event.
	ErrUnsupportedEvent = errors.New("unsupported event")
)

// TransformError records which event a transform failed on.
type TransformError struct {
	EventName string
	EventID   int64
	Err       error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s (id %d): %v", e.EventName, e.EventID, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether retrying the event can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrUnsupportedEvent)
}
