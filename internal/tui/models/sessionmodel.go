package models

import (
	"context"
	"sync"

	session "github.com/allbin/go-serial-session"
	"github.com/allbin/go-serial-session/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// StateMsg reports a session lifecycle transition to the TUI.
type StateMsg struct {
	State session.State
	Error error
}

// SendResultMsg settles the status of the TX event at Index once its
// write+drain cycle completes.
type SendResultMsg struct {
	Index int
	Err   error
}

// SessionModel is the shared state behind the listen and connect views:
// the session handle, its observed lifecycle state and the raw event log.
type SessionModel struct {
	sess   *session.Session
	device string

	state  session.State
	events []components.EventMsg
	err    error
	ready  bool

	// Input mode (vim-like)
	inputMode InputMode

	// Cancellation and synchronization
	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewSessionModel(device string) *SessionModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &SessionModel{
		device:    device,
		state:     session.StateIdle,
		events:    make([]components.EventMsg, 0),
		inputMode: InputModeNormal, // Start in normal mode
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *SessionModel) GetSession() *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess
}

func (m *SessionModel) SetSession(sess *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = sess
}

func (m *SessionModel) GetDevice() string {
	return m.device
}

func (m *SessionModel) GetState() session.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *SessionModel) SetState(state session.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func (m *SessionModel) GetError() error {
	return m.err
}

func (m *SessionModel) SetError(err error) {
	m.err = err
}

func (m *SessionModel) IsReady() bool {
	return m.ready
}

func (m *SessionModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *SessionModel) GetEvents() []components.EventMsg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events
}

// AddEvent appends an event to the raw log and returns its index, so a TX
// entry's status can be settled later.
func (m *SessionModel) AddEvent(msg components.EventMsg) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, msg)
	return len(m.events) - 1
}

// SetEventStatus updates the send status of the TX event at index.
func (m *SessionModel) SetEventStatus(index int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= 0 && index < len(m.events) {
		m.events[index].Status = status
	}
}

func (m *SessionModel) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]components.EventMsg, 0)
}

func (m *SessionModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SessionModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *SessionModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

func (m *SessionModel) GetContext() context.Context {
	return m.ctx
}

func (m *SessionModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *SessionModel) Cleanup() {
	// Cancel context to stop goroutines
	if m.cancel != nil {
		m.cancel()
	}

	// Close the session safely; close failures surface through the error
	// callback, not here
	m.mu.Lock()
	sess := m.sess
	m.sess = nil
	m.mu.Unlock()

	if sess != nil {
		sess.Close(context.Background())
	}
}
