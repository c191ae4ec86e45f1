/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	session "github.com/allbin/go-serial-session"
	"github.com/allbin/go-serial-session/internal/tui/components"
	"github.com/allbin/go-serial-session/internal/tui/keys"
	"github.com/allbin/go-serial-session/internal/tui/models"
	"github.com/allbin/go-serial-session/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <device>",
	Short: "Connect to a serial session with bidirectional communication",
	Long: `Open a session on the device with an interactive bidirectional terminal.

Features include:
- Real-time data streaming with timestamps
- Input field for sending data
- ASCII and hex input modes
- Drain-confirmed sends: each TX entry shows PENDING until the bytes
  have actually left the local output buffer
- Session state shown live in the status bar

Example usage:
  serial-session connect /dev/ttyUSB0
  serial-session connect /dev/ttyUSB0 --baud 9600
  serial-session connect /dev/ttyUSB0 --parity even --stop-bits 2`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := args[0]

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Start the TUI
		if err := runConnectTUI(device, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.SessionModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys
}

func runConnectTUI(device string, opts ...session.Option) error {
	sess, err := session.New(device, opts...)
	if err != nil {
		return err
	}

	// Create initial model with minimal dimensions - WindowSizeMsg sets
	// the proper size
	sessionModel := models.NewSessionModel(device)
	m := connectModel{
		SessionModel: sessionModel,
		terminal:     components.NewTerminal(0, 0),
		statusBar:    components.NewStatusBar("Serial Connect", device),
		input:        components.NewInput("Type message and press Enter to send..."),
		help:         help.New(),
		keys:         keys.NewConnectKeys(),
	}
	m.statusBar.SetConfig(sess.Config())
	m.statusBar.SetState(session.StateConnecting)
	m.SetSession(sess)

	// Start the TUI with alt screen and input handling
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	wireSession(sess, sessionModel, p)

	// Open the session in the background; the outcome arrives as a StateMsg
	go func() {
		if err := sess.Open(m.GetContext()); err != nil {
			p.Send(models.StateMsg{State: sess.State(), Error: err})
			return
		}
		p.Send(models.StateMsg{State: session.StateConnected})
	}()

	_, err = p.Run()

	// Ensure cleanup
	m.Cancel()
	m.Cleanup()
	return err
}

func (m *connectModel) Init() tea.Cmd {
	return nil
}

// parseHexInput converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F"
// - Continuous: "48656C6C6F"
func parseHexInput(hexStr string) ([]byte, error) {
	cleanHex := strings.ReplaceAll(strings.TrimSpace(hexStr), " ", "")
	cleanHex = strings.TrimPrefix(cleanHex, "0x")
	cleanHex = strings.TrimPrefix(cleanHex, "0X")
	if len(cleanHex) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	// Must be even number of hex digits to form complete bytes
	if len(cleanHex)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(cleanHex))
	}

	bytes := make([]byte, 0, len(cleanHex)/2)
	for i := 0; i < len(cleanHex); i += 2 {
		b, err := strconv.ParseUint(cleanHex[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s': %v", cleanHex[i:i+2], err)
		}
		bytes = append(bytes, byte(b))
	}
	return bytes, nil
}

// sendInput builds the payload from the input field, appends a PENDING TX
// entry and returns the command that settles its status once the session
// confirms the bytes drained.
func (m *connectModel) sendInput() tea.Cmd {
	sess := m.GetSession()
	inputStr := m.input.Value()
	if inputStr == "" || sess == nil {
		return nil
	}

	var payload session.Payload
	var displayData []byte

	switch m.input.GetSendingMode() {
	case components.SendingModeHex:
		raw, err := parseHexInput(inputStr)
		if err != nil {
			// Show the error in the event log but don't send anything
			m.AddEvent(components.EventMsg{
				Timestamp: time.Now(),
				Note:      fmt.Sprintf("invalid hex input: %v", err),
			})
			m.terminal.RefreshDisplay(m.GetEvents())
			return nil
		}
		payload = session.Bytes(raw)
		displayData = raw
	default:
		payload = session.Text(inputStr + "\n")
		displayData = []byte(inputStr)
	}

	// Add to display as PENDING; the index lets the completion command
	// settle the same entry
	index := m.AddEvent(components.EventMsg{
		Timestamp: time.Now(),
		Data:      displayData,
		IsTX:      true,
		Status:    components.SendStatusPending,
	})
	m.terminal.RefreshDisplay(m.GetEvents())

	// Add to history before clearing
	m.input.AddToHistory(inputStr)
	m.input.SetValue("")

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return models.SendResultMsg{Index: index, Err: sess.Send(ctx, payload)}
	}
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area height (includes border)
		inputHeight := 3
		// Status bar is single line
		statusBarHeight := 1
		verticalMarginHeight := inputHeight + statusBarHeight

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.StateMsg:
		m.SetState(msg.State)
		m.statusBar.SetState(msg.State)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetError(msg.Error)
			m.AddEvent(components.EventMsg{
				Timestamp: time.Now(),
				Note:      fmt.Sprintf("link fault: %v", msg.Error),
			})
			m.terminal.RefreshDisplay(m.GetEvents())
		} else if msg.State == session.StateConnected {
			m.input.Focus()
		} else if msg.State == session.StateClosed {
			m.AddEvent(components.EventMsg{
				Timestamp: time.Now(),
				Note:      "session closed",
			})
			m.terminal.RefreshDisplay(m.GetEvents())
		}

	case models.SendResultMsg:
		status := components.SendStatusDrained
		if msg.Err != nil {
			status = components.SendStatusFailed
			m.AddEvent(components.EventMsg{
				Timestamp: time.Now(),
				Note:      fmt.Sprintf("send failed: %v", msg.Err),
			})
		}
		m.SetEventStatus(msg.Index, status)
		m.terminal.RefreshDisplay(m.GetEvents())

	case components.EventMsg:
		if !m.IsReady() {
			m.terminal.SetSize(80, 20)
			m.SetReady(true)
		}

		m.AddEvent(msg)
		m.terminal.AddMessage(msg)

	case tea.KeyMsg:
		// Handle mode-specific keys
		if m.IsInInsertMode() {
			// Insert mode - handle input and escape
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Enter):
				if cmd := m.sendInput(); cmd != nil {
					cmds = append(cmds, cmd)
				}
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, tea.Batch(cmds...)
			}
		} else {
			// Normal mode - handle navigation and mode switching
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Cleanup()
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, tea.Batch(cmds...)

			case key.Matches(msg, m.keys.Clear):
				m.ClearEvents()
				m.terminal.Clear()

			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll

			case key.Matches(msg, m.keys.ToggleHex):
				m.terminal.ToggleHex()
				m.terminal.RefreshDisplay(m.GetEvents())

			case key.Matches(msg, m.keys.ToggleASCII):
				m.terminal.ToggleASCII()
				m.terminal.RefreshDisplay(m.GetEvents())

			case key.Matches(msg, m.keys.ToggleTimestamps):
				m.terminal.ToggleTimestamps()
				m.terminal.RefreshDisplay(m.GetEvents())

			case key.Matches(msg, m.keys.ToggleIndicators):
				m.terminal.ToggleIndicators()
				m.terminal.RefreshDisplay(m.GetEvents())

			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
			}
		}
	}

	// Update components (only update input in insert mode)
	var cmd tea.Cmd
	if m.IsInInsertMode() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update terminal viewport for window resize messages
	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *connectModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	// Input area
	inputMode := m.GetInputMode().String()
	isInsertMode := m.IsInInsertMode()
	input := m.input.ViewWithMode(inputMode, isInsertMode)

	// Comprehensive status bar with all info
	sendingMode := m.input.GetSendingMode().String()
	timestamp := time.Now().Format("15:04:05")

	terminalWidth := 80
	if m.IsReady() {
		terminalWidth = m.terminal.GetViewport().Width
	}
	m.statusBar.SetWidth(terminalWidth)

	statusBar := m.statusBar.ComprehensiveStatusBar(inputMode, sendingMode, timestamp)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		input,
		statusBar,
	)
}
