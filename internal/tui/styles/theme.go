package styles

import (
	session "github.com/allbin/go-serial-session"
	"github.com/allbin/go-serial-session/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Align(lipgloss.Center)

	// Info styles
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Align(lipgloss.Center)
)

// StateStyle maps a session lifecycle state to its display style.
func StateStyle(s session.State) lipgloss.Style {
	switch s {
	case session.StateConnected:
		return lipgloss.NewStyle().Foreground(colors.Green).Bold(true)
	case session.StateConnecting:
		return lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true)
	case session.StateClosing:
		return lipgloss.NewStyle().Foreground(colors.Peach).Bold(true)
	case session.StateFaulted:
		return lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colors.Overlay0).Bold(true)
	}
}
