package session

import (
	"context"
	"sync"
)

// Session manages one open-to-close lifecycle over a serial Transport.
// It owns the connection state machine, serializes open/close/send against
// that state, and translates transport events into the consumer callback
// contract. The transport handle is exclusively owned by the Session: it
// is created lazily on Open and released on close or fault.
//
// A Session whose state has reached Closed or Faulted cannot be reopened;
// construct a fresh Session to reconnect.
type Session struct {
	device  string
	cfg     Config
	factory Factory

	mu        sync.Mutex
	state     State
	transport Transport
	openDone  chan error // single-slot completion for the pending Open

	// sendMu serializes Send so that one write+drain cycle is in flight
	// at a time; overlapping callers queue here instead of interleaving.
	sendMu sync.Mutex

	onData   func(text string, raw []byte)
	onError  func(err error)
	onClosed func()
}

// New builds a Session for the given device using the default termios
// transport. Link settings are fixed at construction.
func New(device string, opts ...Option) (*Session, error) {
	return NewWithFactory(device, OpenTermios, opts...)
}

// NewWithFactory builds a Session whose transport comes from the given
// factory. Useful for non-tty links and for tests.
func NewWithFactory(device string, factory Factory, opts ...Option) (*Session, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Session{
		device:  device,
		cfg:     cfg,
		factory: factory,
		state:   StateIdle,
	}, nil
}

// Device returns the link address the session was built for.
func (s *Session) Device() string { return s.device }

// Config returns the immutable link settings.
func (s *Session) Config() Config { return s.cfg }

// State returns a snapshot of the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is currently Connected.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// SetOnData registers the receive callback, replacing any prior one.
// It is invoked once per transport data event with the bytes decoded
// best-effort as UTF-8 text alongside the raw bytes.
func (s *Session) SetOnData(fn func(text string, raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onData = fn
}

// SetOnError registers the error callback, replacing any prior one.
func (s *Session) SetOnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// SetOnClosed registers the close callback, replacing any prior one.
func (s *Session) SetOnClosed(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClosed = fn
}

// Open brings the session to Connected. It is idempotent while a
// connection attempt is in flight or established. The call suspends until
// the transport reports the port opened or failed; ctx bounds only the
// caller's wait, not the transport attempt itself.
//
// A synchronous transport construction failure is surfaced immediately
// without the session entering Connecting, so Open may be retried.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateConnecting, StateConnected:
		s.mu.Unlock()
		return nil
	case StateClosing, StateClosed, StateFaulted:
		s.mu.Unlock()
		return openFailed(ErrSessionTerminated)
	}

	// One distinct closure per event class, bound at handle creation.
	t, err := s.factory(s.device, s.cfg, Events{
		Opened: s.handleOpened,
		Data:   s.handleData,
		Err:    s.handleError,
		Closed: s.handleClosed,
	})
	if err != nil {
		s.mu.Unlock()
		return openFailed(err)
	}

	done := make(chan error, 1)
	s.state = StateConnecting
	s.transport = t
	s.openDone = done
	s.mu.Unlock()

	t.Open()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return openFailed(ctx.Err())
	}
}

// Send encodes the payload, writes it in a single transport write and
// suspends until the transport confirms the bytes have drained from the
// local output buffer. Outside Connected it fails immediately without
// touching the transport. A write failure does not change session state.
func (s *Session) Send(ctx context.Context, p Payload) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return notConnected()
	}
	t := s.transport
	s.mu.Unlock()

	data, err := p.Encode()
	if err != nil {
		return writeFailed(err)
	}

	done := make(chan error, 1)
	go func() {
		if err := t.Write(data); err != nil {
			done <- err
			return
		}
		done <- t.Drain()
	}()

	select {
	case err := <-done:
		if err != nil {
			return writeFailed(err)
		}
		return nil
	case <-ctx.Done():
		return writeFailed(ctx.Err())
	}
}

// SendText sends a UTF-8 text payload.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.Send(ctx, Text(text))
}

// SendBytes sends a raw byte payload.
func (s *Session) SendBytes(ctx context.Context, b []byte) error {
	return s.Send(ctx, Bytes(b))
}

// Close is best-effort and always succeeds from the caller's perspective:
// a transport close failure is delivered through the error callback, never
// as Close's own result. Outside Connected it is a no-op. ctx bounds the
// wait for the transport's close completion.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosing
	t := s.transport
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- t.Close() }()

	select {
	case err := <-done:
		if err != nil {
			s.notifyError(err)
		}
	case <-ctx.Done():
	}

	s.handleClosed()
	return nil
}

// handleOpened resolves the pending Open. Duplicate opened events and
// events arriving after a fault are ignored.
func (s *Session) handleOpened() {
	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = StateConnected
	done := s.openDone
	s.openDone = nil
	s.mu.Unlock()

	if done != nil {
		done <- nil
	}
}

// handleData forwards received bytes in transport emission order, once per
// event. No buffering, reordering or framing happens here.
func (s *Session) handleData(b []byte) {
	s.mu.Lock()
	cb := s.onData
	s.mu.Unlock()

	if cb != nil {
		cb(string(b), b)
	}
}

// handleError is a terminal notification: the session faults and must be
// reconstructed. While Connecting it settles the pending Open instead of
// invoking the error callback; while Closing it is reported but the close
// still completes.
func (s *Session) handleError(err error) {
	s.mu.Lock()
	switch s.state {
	case StateConnecting:
		s.state = StateFaulted
		t := s.transport
		s.transport = nil
		done := s.openDone
		s.openDone = nil
		s.mu.Unlock()

		s.release(t)
		if done != nil {
			done <- openFailed(err)
		}
	case StateClosing:
		s.mu.Unlock()
		s.notifyError(err)
	case StateClosed, StateFaulted:
		s.mu.Unlock()
	default:
		s.state = StateFaulted
		t := s.transport
		s.transport = nil
		s.mu.Unlock()

		s.release(t)
		s.notifyError(err)
	}
}

// handleClosed moves any state to Closed, at most once, and settles a
// still-pending Open as failed.
func (s *Session) handleClosed() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasConnecting := s.state == StateConnecting
	s.state = StateClosed
	t := s.transport
	s.transport = nil
	done := s.openDone
	s.openDone = nil
	cb := s.onClosed
	s.mu.Unlock()

	s.release(t)
	if wasConnecting && done != nil {
		done <- openFailed(ErrClosedBeforeOpen)
	}
	if cb != nil {
		cb()
	}
}

func (s *Session) notifyError(err error) {
	s.mu.Lock()
	cb := s.onError
	s.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// release lets go of a transport handle dropped on fault or unsolicited
// close. The close runs off the event goroutine because transport Close
// implementations may wait for their own event pump to exit.
func (s *Session) release(t Transport) {
	if t == nil {
		return
	}
	go t.Close() //nolint:errcheck // best-effort resource release
}
