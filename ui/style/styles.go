package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/wsecho/ui"
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Layout
	Header     lipgloss.Style
	Scrollback lipgloss.Style
	InputArea  lipgloss.Style

	// Status indicators
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusConnecting   lipgloss.Style
	StatusLive         lipgloss.Style
	StatusScrolled     lipgloss.Style

	// Controls row
	ControlEnabled  lipgloss.Style
	ControlDisabled lipgloss.Style

	// Input
	InputPrompt lipgloss.Style

	// Log lines
	Outgoing lipgloss.Style
	Info     lipgloss.Style

	// Misc
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		// Layout - minimal borders, let content breathe
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Scrollback: lipgloss.NewStyle().
			Padding(0),
		InputArea: lipgloss.NewStyle(),

		// Status indicators - subtle colors
		StatusConnected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StatusDisconnected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray (subtle)
		StatusConnecting: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		StatusLive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		StatusScrolled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")),

		ControlEnabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		ControlDisabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true).
			Padding(0, 1),

		InputPrompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		Outgoing: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
	}
}

// Status returns the style for a connection state.
func (s Styles) Status(state ui.ConnectionState) lipgloss.Style {
	switch state {
	case ui.StateConnected:
		return s.StatusConnected
	case ui.StateConnecting:
		return s.StatusConnecting
	default:
		return s.StatusDisconnected
	}
}

// Control renders a control label, dimmed when it is unavailable.
func (s Styles) Control(label string, enabled bool) string {
	if enabled {
		return s.ControlEnabled.Render(label)
	}
	return s.ControlDisabled.Render(label)
}
