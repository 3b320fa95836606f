// Package styles contains the Lip Gloss colors and styles shared by navsim's
// terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor = lipgloss.AdaptiveColor{Light: "#212121", Dark: "#CCCCCC"}
	TextMutedColor   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}
	TitleColor       = lipgloss.AdaptiveColor{Light: "#5E35B1", Dark: "#B39DDB"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#42A5F5"}

	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(TitleColor)
	MutedStyle  = lipgloss.NewStyle().Foreground(TextMutedColor)
	ActiveStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(StatusErrorColor)
)
