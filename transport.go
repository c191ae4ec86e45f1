package session

// Events carries one callback per transport event class. The Session
// assigns all four closures at handle-creation time; implementations must
// treat a nil entry as a no-op.
type Events struct {
	// Opened fires once the port is open and ready for traffic.
	Opened func()
	// Data fires for each chunk of received bytes, in arrival order.
	// The slice is owned by the receiver after the call.
	Data func(b []byte)
	// Err fires on a transport-level failure. It is a terminal
	// notification for the link, not a recoverable condition.
	Err func(err error)
	// Closed fires when the port is no longer usable, whether the close
	// was requested or the device went away.
	Closed func()
}

// Transport is the physical serial link a Session drives. Open is
// asynchronous: its outcome arrives through the Opened or Err event.
// Write, Drain and Close block until the operation completes.
//
// Drain returns once every byte accepted by Write has left the local
// output buffer, which is what makes back-to-back writes safe on
// hardware flow-controlled links.
type Transport interface {
	Open()
	Write(p []byte) error
	Drain() error
	Close() error
}

// Factory constructs a Transport bound to a device and link settings with
// the event callbacks wired in. Construction may fail synchronously, e.g.
// for a device node that does not exist.
type Factory func(device string, cfg Config, ev Events) (Transport, error)
