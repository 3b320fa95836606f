package toaster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zjrosen/roomflow/internal/indicator"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow_ReplacesExisting(t *testing.T) {
	m := New().
		Show("First", StyleSuccess).
		Show("Second", StyleError)

	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Second")
	assert.NotContains(t, m.View(), "First")
}

func TestHide(t *testing.T) {
	m := New().Show("Hello", StyleSuccess).Hide()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShowIndicator_Failure(t *testing.T) {
	m := New().ShowIndicator(indicator.Failure("RoomFlow-Failure"))
	view := m.View()

	assert.Contains(t, view, "✗")
	assert.Contains(t, view, "Sorry, an error occurred")
	assert.Contains(t, view, "╭")
}

func TestShowIndicator_Success(t *testing.T) {
	m := New().ShowIndicator(indicator.Success("Room created"))

	assert.Contains(t, m.View(), "✓ Room created")
}

func TestShowIndicator_FallsBackToID(t *testing.T) {
	m := New().ShowIndicator(indicator.Indicator{ID: "Custom", Type: indicator.Toast})

	assert.Contains(t, m.View(), "i Custom")
}

func TestRetract_OnlyMatchingIndicator(t *testing.T) {
	m := New().ShowIndicator(indicator.Failure("A-Failure"))

	assert.True(t, m.Retract("B-Failure").Visible())
	assert.False(t, m.Retract("A-Failure").Visible())
}

func TestOverlay(t *testing.T) {
	bg := "background"

	assert.Equal(t, bg, New().Overlay(bg, 40))

	out := New().Show("Saved", StyleSuccess).Overlay(bg, 40)
	assert.Contains(t, out, bg)
	assert.Contains(t, out, "Saved")
}

func TestScheduleDismiss(t *testing.T) {
	cmd := ScheduleDismiss(0)

	assert.NotNil(t, cmd)
	assert.Equal(t, DismissMsg{}, cmd())
}
