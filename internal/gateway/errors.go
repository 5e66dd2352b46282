package gateway

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the backing store has no record for the id.
var ErrNotFound = errors.New("record not found")

// TransportError wraps a network or backend failure. The gateway performs no
// retries; callers decide how to react.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a payload the backend rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}
