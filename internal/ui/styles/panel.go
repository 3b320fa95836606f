package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rounded border pieces.
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// Panel renders content inside a rounded border with the title embedded in
// the top edge:
//
//	╭─ Title ─────╮
//	│ content     │
//	╰─────────────╯
//
// width includes the border. A height of zero or less fits the content;
// otherwise content beyond height-2 lines is cut.
func Panel(title, content string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderFocusColor
	}
	border := lipgloss.NewStyle().Foreground(borderColor)

	inner := max(width-2, 1)
	body := strings.Split(lipgloss.NewStyle().Width(inner).Render(content), "\n")
	if height > 0 {
		rows := max(height-2, 1)
		for len(body) < rows {
			body = append(body, "")
		}
		body = body[:rows]
	}

	var b strings.Builder
	b.WriteString(topBorder(title, inner, border))
	for _, line := range body {
		b.WriteByte('\n')
		if pad := inner - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		b.WriteString(border.Render(borderVertical) + line + border.Render(borderVertical))
	}
	b.WriteByte('\n')
	b.WriteString(border.Render(borderBottomLeft + strings.Repeat(borderHorizontal, inner) + borderBottomRight))
	return b.String()
}

func topBorder(title string, inner int, border lipgloss.Style) string {
	// "─ " + title + " " needs at least four cells around the title.
	if title == "" || inner < 5 {
		return border.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	}
	title = Truncate(title, inner-4)
	rest := max(inner-3-lipgloss.Width(title), 0)
	return border.Render(borderTopLeft+borderHorizontal+" ") +
		TitleStyle.Render(title) +
		border.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}

// Truncate shortens s to maxWidth cells, ending it with "..." when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > maxWidth-3 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "..."
}
