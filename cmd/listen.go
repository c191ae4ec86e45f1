/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
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

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <device>",
	Short: "Listen for data on a serial session with real-time display",
	Long: `Open a session on the device and display incoming data in real-time.

Features include:
- Real-time data streaming with timestamps
- ASCII and hex display modes
- Session state shown live in the status bar
- Link faults and remote hangups reported in the event log

Example usage:
  serial-session listen /dev/ttyUSB0
  serial-session listen /dev/ttyUSB0 --baud 9600
  serial-session listen /dev/ttyUSB0 --raw`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := args[0]

		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")
		showIndicators, _ := cmd.Flags().GetBool("show-indicators")
		rawMode, _ := cmd.Flags().GetBool("raw")

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Start the TUI
		if err := runListenTUI(device, noTimestamps, showIndicators, rawMode, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	// Add flags for display formatting
	listenCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
	listenCmd.Flags().Bool("show-indicators", false, "Show RX/TX indicators (off by default)")
	listenCmd.Flags().Bool("raw", false, "Raw output mode: no timestamps, no indicators")
}

// listenModel represents the Bubble Tea model for the listen command
type listenModel struct {
	*models.SessionModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.TerminalKeys
}

// wireSession registers the session callbacks that feed the TUI message
// loop. Shared by the listen and connect commands.
func wireSession(sess *session.Session, m *models.SessionModel, p *tea.Program) {
	sess.SetOnData(func(text string, raw []byte) {
		p.Send(components.EventMsg{
			Timestamp: time.Now(),
			Data:      raw,
		})
	})
	sess.SetOnError(func(err error) {
		p.Send(models.StateMsg{State: sess.State(), Error: err})
	})
	sess.SetOnClosed(func() {
		p.Send(models.StateMsg{State: session.StateClosed})
	})
}

func runListenTUI(device string, noTimestamps, showIndicators, rawMode bool, opts ...session.Option) error {
	sess, err := session.New(device, opts...)
	if err != nil {
		return err
	}

	// Create initial model
	sessionModel := models.NewSessionModel(device)
	terminal := components.NewTerminal(80, 20)

	// Configure formatting options
	// Default: no indicators, show timestamps
	if rawMode {
		terminal.SetFormatOptions(true, true)
	} else {
		terminal.SetFormatOptions(noTimestamps, !showIndicators)
	}

	m := listenModel{
		SessionModel: sessionModel,
		terminal:     terminal,
		statusBar:    components.NewStatusBar("Serial Listen", device),
		help:         help.New(),
		keys:         keys.NewTerminalKeys(),
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

func (m *listenModel) Init() tea.Cmd {
	return nil
}

func (m *listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is single line
		statusBarHeight := 1
		m.terminal.SetSize(msg.Width, msg.Height-statusBarHeight)
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
		} else if msg.State == session.StateClosed {
			m.AddEvent(components.EventMsg{
				Timestamp: time.Now(),
				Note:      "session closed",
			})
			m.terminal.RefreshDisplay(m.GetEvents())
		}

	case components.EventMsg:
		// Ensure we're ready to display data - if window size hasn't been
		// set yet, use reasonable defaults
		if !m.IsReady() {
			m.terminal.SetSize(80, 20)
			m.SetReady(true)
		}

		m.AddEvent(msg)
		m.terminal.AddMessage(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit

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
		}
	}

	// Update terminal viewport for window resize messages
	var cmd tea.Cmd
	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *listenModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	// Listen mode is always NORMAL, no sending mode
	timestamp := time.Now().Format("15:04:05")

	terminalWidth := 80
	if m.IsReady() {
		terminalWidth = m.terminal.GetViewport().Width
	}
	m.statusBar.SetWidth(terminalWidth)

	statusBar := m.statusBar.ComprehensiveStatusBar("NORMAL", "LISTEN", timestamp)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

	// Show help if requested
	if m.help.ShowAll {
		helpStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Margin(1, 0)
		helpView := helpStyle.Render(m.help.View(m.keys))

		return lipgloss.JoinVertical(
			lipgloss.Left,
			contentWithBorder,
			helpView,
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		statusBar,
	)
}
