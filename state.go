package session

// State identifies where a Session is in its open-to-close lifecycle.
// The Session is the single source of truth for its State; all operation
// permission checks go through it.
type State int

const (
	// StateIdle is the initial state before the first Open.
	StateIdle State = iota
	// StateConnecting means a transport open is in flight.
	StateConnecting
	// StateConnected means the transport is open and Send is permitted.
	StateConnected
	// StateClosing means a consumer-requested close is in flight.
	StateClosing
	// StateClosed is terminal; the transport handle has been released.
	StateClosed
	// StateFaulted is terminal; the transport reported an error.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the session must be reconstructed to make
// further progress. There is no auto-reconnect.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFaulted
}
