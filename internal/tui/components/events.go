package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serial-session/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Send statuses as a TX entry moves through write and drain.
const (
	SendStatusPending = "PENDING"
	SendStatusDrained = "DRAINED"
	SendStatusFailed  = "FAILED"
)

// EventMsg is one entry in the session event log: received bytes, a sent
// payload with its drain status, or a session-level note (fault, close).
type EventMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
	Status    string // TX entries only: PENDING, DRAINED or FAILED
	Note      string // Session note; when set, Data is ignored
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	HideTimestamps bool
	HideIndicators bool
}

type EventFormatter struct {
	mode DisplayMode
}

func NewEventFormatter(showHex, showASCII bool) *EventFormatter {
	return &EventFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (f *EventFormatter) GetDisplayMode() DisplayMode {
	return f.mode
}

func (f *EventFormatter) SetFormatOptions(hideTimestamps, hideIndicators bool) {
	f.mode.HideTimestamps = hideTimestamps
	f.mode.HideIndicators = hideIndicators
}

func (f *EventFormatter) FormatMessage(msg EventMsg) string {
	var parts []string

	if !f.mode.HideTimestamps {
		timestamp := lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))
		parts = append(parts, timestamp)
	}

	if msg.Note != "" {
		note := lipgloss.NewStyle().
			Foreground(colors.Mauve).
			Bold(true).
			Render("· " + msg.Note)
		parts = append(parts, note)
		return strings.Join(parts, " ")
	}

	if !f.mode.HideIndicators {
		parts = append(parts, f.indicator(msg))
	}

	parts = append(parts, f.body(msg.Data))
	return strings.Join(parts, " ")
}

// indicator renders the styled RX/TX marker. TX entries carry the drain
// status of the send they belong to.
func (f *EventFormatter) indicator(msg EventMsg) string {
	if !msg.IsTX {
		return lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	}

	var txColor lipgloss.Color
	var statusText string
	switch msg.Status {
	case SendStatusPending:
		txColor = colors.Yellow
		statusText = "TX ○"
	case SendStatusDrained:
		txColor = colors.Green
		statusText = "TX ✓"
	case SendStatusFailed:
		txColor = colors.Red
		statusText = "TX ✗"
	default:
		txColor = colors.Peach
		statusText = "TX"
	}

	return lipgloss.NewStyle().
		Foreground(txColor).
		Bold(true).
		Render("↗ " + statusText)
}

func (f *EventFormatter) body(data []byte) string {
	var parts []string

	if f.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}

	if f.mode.ShowASCII {
		ascii := strings.Map(func(r rune) rune {
			if r < 32 || r > 126 {
				return '.'
			}
			return r
		}, string(data))
		parts = append(parts, fmt.Sprintf("ASCII: %s", ascii))
	}

	if !f.mode.ShowHex && !f.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}

	return strings.Join(parts, "  ")
}

func (f *EventFormatter) FormatMessages(messages []EventMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = f.FormatMessage(msg)
	}
	return formatted
}

func (f *EventFormatter) ToggleHex() {
	f.mode.ShowHex = !f.mode.ShowHex
}

func (f *EventFormatter) ToggleASCII() {
	f.mode.ShowASCII = !f.mode.ShowASCII
}

func (f *EventFormatter) ToggleTimestamps() {
	f.mode.HideTimestamps = !f.mode.HideTimestamps
}

func (f *EventFormatter) ToggleIndicators() {
	f.mode.HideIndicators = !f.mode.HideIndicators
}
