package inspector

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/ui/styles"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')

	half := max(m.width/2, 24)
	left := lipgloss.JoinVertical(lipgloss.Left,
		styles.Panel("Navigation", strings.TrimRight(m.tree, "\n"), half, 0, !m.prompting),
		styles.Panel("Flows", renderSnapshots(m.snapshots), half, 0, false))
	right := styles.Panel("Events", m.events.View(), half, max(lipgloss.Height(left), m.events.Height+2), false)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteByte('\n')

	if m.showLogs {
		b.WriteString(styles.Panel("Log", strings.Join(m.logLines, "\n"), max(m.width, 24), 0, false))
		b.WriteByte('\n')
	}
	if m.prompting {
		b.WriteString(m.prompt.View())
		b.WriteByte('\n')
	}
	b.WriteString(m.footer())
	return m.toaster.Overlay(b.String(), m.width)
}

func (m Model) header() string {
	tabs := make([]string, 0, 2)
	for _, name := range []string{"chats", "spaces"} {
		if name == m.tab.String() {
			tabs = append(tabs, styles.ActiveStyle.Render(name))
		} else {
			tabs = append(tabs, styles.MutedStyle.Render(name))
		}
	}
	line := styles.TitleStyle.Render("navsim") + "  " + strings.Join(tabs, " | ")
	if idx := int(m.tab); idx < len(m.snapshots) {
		line += "  " + m.snapshots[idx].State
	}
	if len(m.loadingIDs()) > 0 {
		line += "  " + m.spinner.View() + " " + strings.Join(m.loadingIDs(), ", ")
	}
	return line
}

func (m Model) footer() string {
	bindings := m.keys.browsing()
	if m.prompting {
		bindings = m.keys.prompting()
	}
	parts := make([]string, 0, len(bindings))
	for _, bind := range bindings {
		parts = append(parts, helpText(bind))
	}
	if m.lastRoute != "" {
		parts = append(parts, "last route: "+m.lastRoute)
	}
	return styles.MutedStyle.Render(strings.Join(parts, " • "))
}

func (m Model) loadingIDs() []string {
	var ids []string
	for id, on := range m.loading {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func helpText(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s %s", h.Key, h.Desc)
}

func renderSnapshots(snaps []flow.Snapshot) string {
	var b strings.Builder
	var walk func(s flow.Snapshot, depth int)
	walk = func(s flow.Snapshot, depth int) {
		fmt.Fprintf(&b, "%s%s %s\n", strings.Repeat("  ", depth), s.Flow, styles.MutedStyle.Render(s.State))
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	for _, s := range snaps {
		walk(s, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}
