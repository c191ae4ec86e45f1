// Package session manages a single logical session over a byte-oriented
// serial link: opening and closing the underlying port, sequencing writes
// with drain-confirmed completion, and dispatching received bytes and
// lifecycle events to consumer callbacks.
//
// A Session owns exactly one connection lifecycle. Its state machine moves
// Idle → Connecting → Connected → Closing → Closed, with Faulted as the
// terminal error state; once Closed or Faulted a fresh Session must be
// constructed to reconnect.
//
// # Basic Usage
//
// Open a session with default link settings (115200 8N1):
//
//	sess, err := session.New("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess.SetOnData(func(text string, raw []byte) {
//	    fmt.Printf("rx: %q\n", text)
//	})
//
//	ctx := context.Background()
//	if err := sess.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close(ctx)
//
//	// Send resolves only after the bytes have drained from the local
//	// output buffer, so back-to-back sends are safe on flow-controlled
//	// links.
//	if err := sess.SendText(ctx, "AT+GMR\r\n"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
// Link settings are fixed at construction via functional options:
//
//	sess, err := session.New("/dev/ttyUSB0",
//	    session.WithBaudRate(9600),
//	    session.WithDataBits(7),
//	    session.WithParity(session.ParityEven),
//	    session.WithStopBits(2),
//	)
//
// # Payloads
//
// Send accepts text in a chosen character encoding or raw bytes:
//
//	sess.Send(ctx, session.Text("PING"))
//	sess.Send(ctx, session.TextEncoding("héllo", "ISO-8859-1"))
//	sess.Send(ctx, session.Bytes([]byte{0x02, 0x06, 0x00}))
//
// # Lifecycle Events
//
// Transport events surface through optional callbacks; registering a
// callback replaces any prior one:
//
//	sess.SetOnError(func(err error) { log.Printf("link fault: %v", err) })
//	sess.SetOnClosed(func() { log.Println("link closed") })
//
// Post-open transport errors never fail a pending call: they fault the
// session and arrive through the error callback. Close is best-effort and
// always succeeds from the caller's perspective.
//
// # Error Handling
//
// Failures carry one of three kinds: OpenFailed, NotConnected and
// WriteFailed. Use errors.Is / errors.As or IsKind:
//
//	if session.IsKind(err, session.KindNotConnected) {
//	    // reconnect with a fresh Session
//	}
//
// # Transports
//
// The default transport drives a Linux tty through raw termios. Custom
// links implement the Transport interface and are installed per session
// with NewWithFactory.
package session
