package session

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrNotConnected      = errors.New("session is not connected")
	ErrSessionTerminated = errors.New("session is closed or faulted and must be reconstructed")
	ErrDeviceNotFound    = errors.New("serial device not found")
	ErrInvalidBaudRate   = errors.New("invalid baud rate")
	ErrInvalidConfig     = errors.New("invalid session configuration")
	ErrUnknownEncoding   = errors.New("unknown payload encoding")
	ErrTransportClosed   = errors.New("transport is closed")
	ErrClosedBeforeOpen  = errors.New("transport closed before open completed")
)

// Kind classifies which operation phase a session failure surfaced from.
type Kind int

const (
	// KindOpenFailed covers transport construction and open-phase failures.
	KindOpenFailed Kind = iota
	// KindNotConnected marks an operation attempted outside the Connected state.
	KindNotConnected
	// KindWriteFailed covers payload encoding, write and drain failures.
	KindWriteFailed
)

func (k Kind) String() string {
	switch k {
	case KindOpenFailed:
		return "open failed"
	case KindNotConnected:
		return "not connected"
	case KindWriteFailed:
		return "write failed"
	default:
		return "unknown"
	}
}

// Error carries the failure kind together with the underlying transport
// or encoding error detail.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a session Error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

func openFailed(err error) error  { return &Error{Kind: KindOpenFailed, Err: err} }
func notConnected() error         { return &Error{Kind: KindNotConnected, Err: ErrNotConnected} }
func writeFailed(err error) error { return &Error{Kind: KindWriteFailed, Err: err} }
