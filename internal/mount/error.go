package mount

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by links that have no open device handle
var ErrNotConnected = errors.New("mount not connected")

// TransportError is a failure talking to the mount, e.g. a timeout, a broken
// connection or a reply that could not be parsed.
type TransportError struct {
	Op  string // Operation that failed, e.g. "position ra/dec"
	Err error
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mount: %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a *TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
