package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport scripts transport behavior for state machine tests. Events
// are emitted synchronously from the test goroutine unless noted.
type fakeTransport struct {
	mu  sync.Mutex
	ev  Events
	ops []string // "open", "write:<data>", "drain", "close"

	stallOpen bool  // Open emits nothing; test fires events manually
	openErr   error // Open emits Err instead of Opened
	writeErr  error
	drainErr  error
	closeErr  error
}

func (f *fakeTransport) factory(constructed *int) Factory {
	return func(device string, cfg Config, ev Events) (Transport, error) {
		if constructed != nil {
			*constructed++
		}
		f.ev = ev
		return f, nil
	}
}

func (f *fakeTransport) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeTransport) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeTransport) Open() {
	f.record("open")
	if f.stallOpen {
		return
	}
	if f.openErr != nil {
		f.ev.Err(f.openErr)
		return
	}
	f.ev.Opened()
}

func (f *fakeTransport) Write(p []byte) error {
	f.record("write:" + string(p))
	return f.writeErr
}

func (f *fakeTransport) Drain() error {
	f.record("drain")
	return f.drainErr
}

func (f *fakeTransport) Close() error {
	f.record("close")
	return f.closeErr
}

func openedSession(t *testing.T, ft *fakeTransport) *Session {
	t.Helper()
	s, err := NewWithFactory("sim0", ft.factory(nil))
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	require.Equal(t, StateConnected, s.State())
	return s
}

func TestSendOutsideConnected(t *testing.T) {
	ft := &fakeTransport{stallOpen: true}
	s, err := NewWithFactory("sim0", ft.factory(nil))
	require.NoError(t, err)

	err = s.SendText(context.Background(), "nope")
	require.True(t, IsKind(err, KindNotConnected))
	require.ErrorIs(t, err, ErrNotConnected)
	require.Empty(t, ft.recorded(), "no transport operation before Open")
	require.Equal(t, StateIdle, s.State())
}

func TestOpenIdempotentWhileConnecting(t *testing.T) {
	ft := &fakeTransport{stallOpen: true}
	constructed := 0
	s, err := NewWithFactory("sim0", ft.factory(&constructed))
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.Open(context.Background()) }()

	require.Eventually(t, func() bool {
		return s.State() == StateConnecting
	}, time.Second, time.Millisecond)

	// Second open while connecting resolves immediately without a second
	// transport instance.
	require.NoError(t, s.Open(context.Background()))
	require.Equal(t, 1, constructed)

	ft.ev.Opened()
	require.NoError(t, <-firstDone)
	require.Equal(t, StateConnected, s.State())

	// And again once connected.
	require.NoError(t, s.Open(context.Background()))
	require.Equal(t, 1, constructed)
}

func TestSendWritesThenDrains(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	require.NoError(t, s.SendText(context.Background(), "PING"))
	require.Equal(t, []string{"open", "write:PING", "drain"}, ft.recorded())
}

func TestSendEncodesPayload(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	require.NoError(t, s.Send(context.Background(), TextEncoding("héllo", "ISO-8859-1")))
	ops := ft.recorded()
	require.Equal(t, "write:h\xe9llo", ops[1])
}

func TestSendEncodingFailureIssuesNoWrite(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	err := s.Send(context.Background(), TextEncoding("x", "no-such-charset"))
	require.True(t, IsKind(err, KindWriteFailed))
	require.ErrorIs(t, err, ErrUnknownEncoding)
	require.Equal(t, []string{"open"}, ft.recorded())
	require.Equal(t, StateConnected, s.State())
}

func TestSendWriteFailureKeepsState(t *testing.T) {
	ft := &fakeTransport{writeErr: errors.New("EIO")}
	s := openedSession(t, ft)

	err := s.SendText(context.Background(), "x")
	require.True(t, IsKind(err, KindWriteFailed))
	require.Equal(t, StateConnected, s.State())
	require.NotContains(t, ft.recorded(), "drain")
}

func TestDataDispatch(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	// No callback registered: the event is dropped and state is unchanged.
	ft.ev.Data([]byte{0x4F, 0x4B})
	require.Equal(t, StateConnected, s.State())

	type rx struct {
		text string
		raw  []byte
	}
	got := make(chan rx, 2)
	s.SetOnData(func(text string, raw []byte) {
		got <- rx{text, raw}
	})

	ft.ev.Data([]byte{0x4F, 0x4B})
	select {
	case r := <-got:
		require.Equal(t, "OK", r.text)
		require.Equal(t, []byte{0x4F, 0x4B}, r.raw)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for data callback")
	}
	require.Len(t, got, 0, "delivered exactly once")
}

func TestErrorEventFaultsSession(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	errs := make(chan error, 1)
	s.SetOnError(func(err error) { errs <- err })

	cause := errors.New("device unplugged")
	ft.ev.Err(cause)

	require.Equal(t, StateFaulted, s.State())
	require.ErrorIs(t, <-errs, cause)

	err := s.SendText(context.Background(), "x")
	require.True(t, IsKind(err, KindNotConnected))

	// Faulted is terminal: no reconnect on the same instance.
	err = s.Open(context.Background())
	require.True(t, IsKind(err, KindOpenFailed))
	require.ErrorIs(t, err, ErrSessionTerminated)
}

func TestOpenConstructionFailure(t *testing.T) {
	cause := errors.New("no such device")
	factory := func(device string, cfg Config, ev Events) (Transport, error) {
		return nil, cause
	}
	s, err := NewWithFactory("bogus", factory)
	require.NoError(t, err)

	err = s.Open(context.Background())
	require.True(t, IsKind(err, KindOpenFailed))
	require.ErrorIs(t, err, cause)

	// Construction failure never enters Connecting, so Open may be retried.
	require.Equal(t, StateIdle, s.State())
}

func TestOpenPhaseErrorFaults(t *testing.T) {
	cause := errors.New("EBUSY")
	ft := &fakeTransport{openErr: cause}
	s, err := NewWithFactory("sim0", ft.factory(nil))
	require.NoError(t, err)

	err = s.Open(context.Background())
	require.True(t, IsKind(err, KindOpenFailed))
	require.ErrorIs(t, err, cause)
	require.Equal(t, StateFaulted, s.State())
}

func TestCloseOnIdleSession(t *testing.T) {
	constructed := 0
	ft := &fakeTransport{}
	s, err := NewWithFactory("sim0", ft.factory(&constructed))
	require.NoError(t, err)

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 0, constructed)
	require.Empty(t, ft.recorded())
}

func TestCloseIsBestEffort(t *testing.T) {
	ft := &fakeTransport{closeErr: errors.New("flush failed")}
	s := openedSession(t, ft)

	errs := make(chan error, 1)
	s.SetOnError(func(err error) { errs <- err })
	closed := make(chan struct{}, 1)
	s.SetOnClosed(func() { closed <- struct{}{} })

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, StateClosed, s.State())
	require.ErrorIs(t, <-errs, ft.closeErr)
	<-closed

	// Idempotent once closed.
	require.NoError(t, s.Close(context.Background()))
}

func TestUnsolicitedCloseEvent(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	closed := make(chan struct{}, 2)
	s.SetOnClosed(func() { closed <- struct{}{} })

	ft.ev.Closed()
	require.Equal(t, StateClosed, s.State())
	<-closed

	// Duplicate closed events fire the callback once.
	ft.ev.Closed()
	require.Len(t, closed, 0)
}

func TestCallbackLastWriteWins(t *testing.T) {
	ft := &fakeTransport{}
	s := openedSession(t, ft)

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	s.SetOnData(func(string, []byte) { first <- struct{}{} })
	s.SetOnData(func(string, []byte) { second <- struct{}{} })

	ft.ev.Data([]byte("x"))
	require.Len(t, first, 0)
	require.Len(t, second, 1)
}

// Full lifecycle per the session contract: open, drain-confirmed send,
// inbound data dispatch, clean close.
func TestSessionScenario(t *testing.T) {
	ft := &fakeTransport{}
	s, err := NewWithFactory("sim0", ft.factory(nil), WithBaudRate(115200))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.True(t, s.IsConnected())

	require.NoError(t, s.SendText(ctx, "PING"))
	ops := ft.recorded()
	require.Equal(t, "write:\x50\x49\x4E\x47", ops[1])
	require.Equal(t, "drain", ops[2])

	type rx struct {
		text string
		raw  []byte
	}
	got := make(chan rx, 1)
	s.SetOnData(func(text string, raw []byte) { got <- rx{text, raw} })

	ft.ev.Data([]byte{0x4F, 0x4B})
	r := <-got
	require.Equal(t, "OK", r.text)
	require.Equal(t, []byte{0x4F, 0x4B}, r.raw)

	require.NoError(t, s.Close(ctx))
	require.Equal(t, StateClosed, s.State())
	require.False(t, s.IsConnected())
}
