package session

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// termiosTransport drives a Linux serial device through a raw termios fd.
// A single pump goroutine owns all reads and translates readable data and
// hangups into events; a self-pipe wakes the pump when a close is
// requested.
type termiosTransport struct {
	device string
	cfg    Config
	ev     Events

	mu     sync.RWMutex
	fd     int
	pipeR  int
	pipeW  int
	closed bool

	closeOnce sync.Once
	pumpDone  chan struct{}
}

// Ensure termiosTransport implements Transport at compile time
var _ Transport = (*termiosTransport)(nil)

// OpenTermios is the Factory for the default Linux transport. It validates
// the link settings and device node synchronously; the fd work happens in
// Open and is reported through the Opened or Err event.
func OpenTermios(device string, cfg Config, ev Events) (Transport, error) {
	if _, err := baudRateConst(cfg.BaudRate); err != nil {
		return nil, err
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return nil, ErrInvalidConfig
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return nil, ErrInvalidConfig
	}
	if _, err := os.Stat(device); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	}
	return &termiosTransport{
		device:   device,
		cfg:      cfg,
		ev:       ev,
		fd:       -1,
		pipeR:    -1,
		pipeW:    -1,
		pumpDone: make(chan struct{}),
	}, nil
}

// Open configures the port off the caller's goroutine and starts the
// event pump.
func (t *termiosTransport) Open() {
	go func() {
		if err := t.open(); err != nil {
			close(t.pumpDone)
			t.emitErr(err)
			return
		}
		t.emitOpened()
		t.pump()
	}()
}

func (t *termiosTransport) open() error {
	fd, err := unix.Open(t.device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", t.device, err)
	}

	if err := configureTermios(fd, t.cfg); err != nil {
		unix.Close(fd)
		return err
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		unix.Close(fd)
		return fmt.Errorf("pipe: %v", err)
	}

	t.mu.Lock()
	t.fd = fd
	t.pipeR = pipeFds[0]
	t.pipeW = pipeFds[1]
	t.mu.Unlock()
	return nil
}

// pump polls the port fd and the self-pipe. Data chunks are copied before
// dispatch; a hangup emits Closed and a read failure emits Err, after
// which the pump exits and the fds are torn down by Close.
func (t *termiosTransport) pump() {
	defer close(t.pumpDone)

	buf := make([]byte, 4096)
	for {
		pfd := []unix.PollFd{
			{Fd: int32(t.fd), Events: unix.POLLIN},
			{Fd: int32(t.pipeR), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			t.emitErr(err)
			return
		}

		if pfd[1].Revents != 0 {
			// Close requested
			return
		}

		if pfd[0].Revents&unix.POLLIN != 0 {
			n, err := unix.Read(t.fd, buf)
			switch {
			case err == unix.EINTR:
				continue
			case err != nil:
				if err == unix.EIO {
					// tty went away underneath us
					t.emitClosed()
					return
				}
				t.emitErr(err)
				return
			case n == 0:
				t.emitClosed()
				return
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			t.emitData(data)
			continue
		}

		if pfd[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			t.emitClosed()
			return
		}
	}
}

// Write pushes the whole buffer into the kernel's output queue. Completion
// of physical transmission is Drain's job.
func (t *termiosTransport) Write(p []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed || t.fd < 0 {
		return ErrTransportClosed
	}

	for len(p) > 0 {
		n, err := unix.Write(t.fd, p)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

// Drain blocks until all output written to the port has been transmitted.
func (t *termiosTransport) Drain() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed || t.fd < 0 {
		return ErrTransportClosed
	}

	return unix.IoctlSetInt(t.fd, unix.TCSBRK, 1)
}

// Close wakes the pump, waits for it to exit, releases the fds and emits
// Closed. Safe to call multiple times; later calls are no-ops.
func (t *termiosTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.RLock()
		pipeW := t.pipeW
		t.mu.RUnlock()

		if pipeW >= 0 {
			unix.Write(pipeW, []byte{0})
		}
		<-t.pumpDone

		t.mu.Lock()
		t.closed = true
		if t.fd >= 0 {
			err = unix.Close(t.fd)
			t.fd = -1
		}
		if t.pipeR >= 0 {
			unix.Close(t.pipeR)
			t.pipeR = -1
		}
		if t.pipeW >= 0 {
			unix.Close(t.pipeW)
			t.pipeW = -1
		}
		t.mu.Unlock()

		t.emitClosed()
	})
	return err
}

func (t *termiosTransport) emitOpened() {
	if t.ev.Opened != nil {
		t.ev.Opened()
	}
}

func (t *termiosTransport) emitData(b []byte) {
	if t.ev.Data != nil {
		t.ev.Data(b)
	}
}

func (t *termiosTransport) emitErr(err error) {
	if t.ev.Err != nil {
		t.ev.Err(err)
	}
}

func (t *termiosTransport) emitClosed() {
	if t.ev.Closed != nil {
		t.ev.Closed()
	}
}

// configureTermios puts the fd into raw mode with the configured framing.
func configureTermios(fd int, cfg Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	// Raw mode: no input, output or line processing
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Cflag = unix.CREAD | unix.CLOCAL

	// Data bits
	switch cfg.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	// Stop bits
	if cfg.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	// Parity
	switch cfg.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	case ParityMark:
		termios.Cflag |= unix.PARENB | unix.CMSPAR | unix.PARODD
	case ParitySpace:
		termios.Cflag |= unix.PARENB | unix.CMSPAR
	}

	baud, err := baudRateConst(cfg.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	// The pump blocks in poll, so reads deliver whatever is available
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}
	return nil
}

var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// baudRateConst converts an integer baud rate to the unix constant
func baudRateConst(rate int) (uint32, error) {
	c, ok := baudRates[rate]
	if !ok {
		return 0, ErrInvalidBaudRate
	}
	return c, nil
}
