package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestPanel_EmbedsTitleInTopBorder(t *testing.T) {
	out := Panel("Events", "hello", 20, 0, false)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Events")
	require.Contains(t, lines[1], "hello")
	for _, line := range lines {
		require.Equal(t, 20, lipgloss.Width(line), "line %q", line)
	}
}

func TestPanel_FixedHeightPadsAndCuts(t *testing.T) {
	padded := strings.Split(Panel("", "one", 12, 5, true), "\n")
	require.Len(t, padded, 5)

	cut := strings.Split(Panel("", "a\nb\nc\nd\ne", 12, 4, false), "\n")
	require.Len(t, cut, 4)
	require.Contains(t, cut[2], "b")
	require.NotContains(t, strings.Join(cut, "\n"), "c")
}

func TestPanel_NarrowWidthDropsTitle(t *testing.T) {
	out := Panel("Navigation", "x", 5, 0, false)
	require.NotContains(t, out, "Nav")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated title", 10, "truncat..."},
		{"abc", 2, ".."},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Truncate(tt.in, tt.width), "%q@%d", tt.in, tt.width)
	}
}
