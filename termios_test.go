package session

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// openPtySession opens a session against the slave side of a fresh pty
// pair. The master side plays the remote end of the link.
func openPtySession(t *testing.T, opts ...Option) (*Session, *os.File) {
	t.Helper()

	master, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		tty.Close()
	})

	s, err := New(tty.Name(), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Open(ctx))
	require.Equal(t, StateConnected, s.State())

	t.Cleanup(func() { s.Close(context.Background()) })
	return s, master
}

func TestTermiosSendReachesRemote(t *testing.T) {
	s, master := openPtySession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.SendText(ctx, "PING"))

	buf := make([]byte, 4)
	_, err := io.ReadFull(master, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x50, 0x49, 0x4E, 0x47}, buf)
}

func TestTermiosReceiveDispatches(t *testing.T) {
	s, master := openPtySession(t)

	got := make(chan []byte, 1)
	s.SetOnData(func(text string, raw []byte) { got <- raw })

	_, err := master.Write([]byte("OK"))
	require.NoError(t, err)

	select {
	case raw := <-got:
		require.Equal(t, []byte{0x4F, 0x4B}, raw)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for data event")
	}
}

func TestTermiosCleanClose(t *testing.T) {
	s, _ := openPtySession(t)

	closed := make(chan struct{}, 1)
	s.SetOnClosed(func() { closed <- struct{}{} })

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, StateClosed, s.State())

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for closed event")
	}

	err := s.SendText(context.Background(), "late")
	require.True(t, IsKind(err, KindNotConnected))
}

func TestTermiosRemoteHangup(t *testing.T) {
	s, master := openPtySession(t)

	require.NoError(t, master.Close())

	require.Eventually(t, func() bool {
		return s.State().Terminal()
	}, 5*time.Second, 10*time.Millisecond,
		"session should reach a terminal state after hangup")
}

func TestTermiosDeviceNotFound(t *testing.T) {
	s, err := New("/dev/nonexistent-serial-device")
	require.NoError(t, err)

	err = s.Open(context.Background())
	require.True(t, IsKind(err, KindOpenFailed))
	require.ErrorIs(t, err, ErrDeviceNotFound)
	require.Equal(t, StateIdle, s.State())
}

func TestOpenTermiosValidatesConfig(t *testing.T) {
	_, err := OpenTermios("/dev/null", Config{BaudRate: 12345, DataBits: 8, StopBits: 1}, Events{})
	require.ErrorIs(t, err, ErrInvalidBaudRate)

	_, err = OpenTermios("/dev/null", Config{BaudRate: 9600, DataBits: 9, StopBits: 1}, Events{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = OpenTermios("/dev/null", Config{BaudRate: 9600, DataBits: 8, StopBits: 3}, Events{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBaudRateConst(t *testing.T) {
	for _, rate := range []int{50, 9600, 115200, 4000000} {
		if _, err := baudRateConst(rate); err != nil {
			t.Errorf("rate %d: unexpected error: %v", rate, err)
		}
	}
	if _, err := baudRateConst(12345); err == nil {
		t.Error("expected error for nonstandard rate")
	}
}
