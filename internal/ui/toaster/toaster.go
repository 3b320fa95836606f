// Package toaster renders the toast indicators flows submit.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/ui/styles"
)

// Style determines the visual appearance of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
)

// Model holds the toast being shown.
type Model struct {
	id      string
	message string
	style   Style
	visible bool
}

func New() Model {
	return Model{}
}

// Show displays a toast with the given message and style.
func (m Model) Show(message string, style Style) Model {
	m.id = ""
	m.message = message
	m.style = style
	m.visible = true
	return m
}

// ShowIndicator displays a toast indicator, styled by its icon.
func (m Model) ShowIndicator(ind indicator.Indicator) Model {
	style := StyleInfo
	switch {
	case ind.Icon == "xmark":
		style = StyleError
	case ind.Icon == "checkmark":
		style = StyleSuccess
	}
	message := ind.Title
	if message == "" {
		message = ind.ID
	}
	m = m.Show(message, style)
	m.id = ind.ID
	return m
}

// Retract hides the toast if it shows indicator id.
func (m Model) Retract(id string) Model {
	if m.id != id {
		return m
	}
	return m.Hide()
}

// Hide dismisses the toast.
func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	m.id = ""
	return m
}

func (m Model) Visible() bool {
	return m.visible
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var content string
	switch m.style {
	case StyleError:
		style = style.BorderForeground(styles.StatusErrorColor)
		content = "✗ " + m.message
	case StyleInfo:
		style = style.BorderForeground(styles.StatusInfoColor)
		content = "i " + m.message
	default:
		style = style.BorderForeground(styles.StatusSuccessColor)
		content = "✓ " + m.message
	}
	return style.Render(content)
}

// Overlay appends the toast, centred in width, below bg.
func (m Model) Overlay(bg string, width int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		bg,
		lipgloss.PlaceHorizontal(width, lipgloss.Center, m.View()),
	)
}

// DismissMsg signals that the toast should be dismissed.
type DismissMsg struct{}

// ScheduleDismiss returns a command that dismisses the toast after d.
func ScheduleDismiss(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{}
	})
}
