package components

import (
	"fmt"

	session "github.com/allbin/go-serial-session"
	"github.com/allbin/go-serial-session/internal/tui/colors"
	"github.com/allbin/go-serial-session/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar renders the bottom bar: input mode, device, session state and
// the configured link framing.
type StatusBar struct {
	title  string
	device string
	state  session.State
	err    error
	width  int
	cfg    *session.Config
}

func NewStatusBar(title, device string) *StatusBar {
	return &StatusBar{
		title:  title,
		device: device,
		state:  session.StateIdle,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConfig(cfg session.Config) {
	sb.cfg = &cfg
}

func (sb *StatusBar) SetState(state session.State) {
	sb.state = state
	if state != session.StateFaulted {
		sb.err = nil
	}
}

func (sb *StatusBar) SetError(err error) {
	sb.err = err
}

func (sb *StatusBar) ViewAsHeader() string {
	title := styles.TitleStyle.Render(sb.device)

	var linkInfo string
	if sb.cfg != nil {
		linkInfo = fmt.Sprintf(" | %d baud, %s", sb.cfg.BaudRate, sb.cfg.Frame())
	}

	connInfoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Faint(true)

	return lipgloss.JoinHorizontal(lipgloss.Left, title, connInfoStyle.Render(linkInfo))
}

// stateIndicator returns the single-character link indicator for the
// current session state.
func (sb *StatusBar) stateIndicator() string {
	switch sb.state {
	case session.StateConnected:
		return lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case session.StateConnecting:
		return lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	case session.StateFaulted:
		return lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	default:
		return lipgloss.NewStyle().Foreground(colors.Red).Render("○")
	}
}

// ComprehensiveStatusBar renders the full-width bar with all session info
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: Mode indicator (like NORMAL in nvim)
	var modeStyle lipgloss.Style
	if inputMode == "INSERT" {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Green).
			Bold(true).
			Padding(0, 1)
	} else {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Blue).
			Bold(true).
			Padding(0, 1)
	}
	mode := modeStyle.Render(inputMode)

	// Section 2: Device path
	deviceStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	device := deviceStyle.Render(sb.device)

	// Section 3: Session state with indicator
	stateText := styles.StateStyle(sb.state).Render(sb.state.String())
	stateSection := lipgloss.JoinHorizontal(lipgloss.Left, sb.stateIndicator(), " ", stateText)

	// Section 4: Link settings
	var linkInfo string
	if sb.cfg != nil {
		linkInfo = fmt.Sprintf("⚡ %d baud %s", sb.cfg.BaudRate, sb.cfg.Frame())
	} else {
		linkInfo = "⚡ serial"
	}
	linkDetails := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(linkInfo)

	// Section 5: Timestamp
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	// Sending mode indicator with Tab hint (only shown in INSERT mode)
	var sendingModeInfo string
	if inputMode == "INSERT" {
		sendingModeInfo = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode))
	}

	var leftSide string
	if sendingModeInfo != "" {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, device, stateSection, sendingModeInfo, divider)
	} else {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, device, stateSection, divider)
	}

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, linkDetails, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	statusBarStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	return statusBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
