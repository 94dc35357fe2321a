package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorArmed    = lipgloss.Color("2")  // green
	colorDisarmed = lipgloss.Color("8")  // dim gray
	colorRinging  = lipgloss.Color("1")  // red
	colorHeader   = lipgloss.Color("12") // bright blue
	colorMuted    = lipgloss.Color("8")  // dim
	colorCursor   = lipgloss.Color("6")  // cyan

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	subheaderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	clockStyle = lipgloss.NewStyle().
			Bold(true)

	fieldStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedFieldStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(colorCursor).
				Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	notificationBarStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	ringingStyle = lipgloss.NewStyle().
			Foreground(colorRinging).
			Bold(true).
			Blink(true)
)

// armedStyle returns the badge style for the armed state.
func armedStyle(armed bool) lipgloss.Style {
	if armed {
		return lipgloss.NewStyle().Foreground(colorArmed).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colorDisarmed)
}

// armedLabel returns the text on the arm toggle.
func armedLabel(armed bool) string {
	if armed {
		return "ALARM ON (space to stop)"
	}
	return "START ALARM (space)"
}
