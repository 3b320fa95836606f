package inspector

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/app"
	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Defaults()
	cfg.Delays = config.DelaysConfig{}
	a, err := app.New(cfg, testutil.StandardSession().Build())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestInspector_RouteSelectsRoom(t *testing.T) {
	a := newApp(t)
	tm := teatest.NewTestModel(t, New(a), teatest.WithInitialTermSize(160, 48))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("HomeScreen"))
	}, teatest.WithDuration(5*time.Second))

	tm.Type("r")
	tm.Type(testutil.RoomABC)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("last route: room")) && bytes.Contains(out, []byte("RoomScreen"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	assert.Equal(t, "room", final.lastRoute)
}

func TestInspector_TabSwitchesSplit(t *testing.T) {
	a := newApp(t)
	tm := teatest.NewTestModel(t, New(a), teatest.WithInitialTermSize(160, 48))

	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("SpaceListScreen"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	assert.Equal(t, app.TabSpaces, a.Tab())
}

func TestUpdate_IndicatorEvents(t *testing.T) {
	a := newApp(t)
	m := New(a)

	loading := pubsub.Event[any]{Type: pubsub.IndicatorEvent, Payload: indicator.Event{Op: indicator.OpShown, Indicator: indicator.Loading("RoomFlow-Loading")}}
	next, _ := m.Update(loading)
	m = next.(Model)
	assert.Equal(t, []string{"RoomFlow-Loading"}, m.loadingIDs())

	failure := pubsub.Event[any]{Type: pubsub.IndicatorEvent, Payload: indicator.Event{Op: indicator.OpShown, Indicator: indicator.Failure("RoomFlow-Failure")}}
	next, _ = m.Update(failure)
	m = next.(Model)
	assert.True(t, m.toaster.Visible())
	assert.Contains(t, m.View(), "Sorry, an error occurred")

	retracted := pubsub.Event[any]{Type: pubsub.IndicatorEvent, Payload: indicator.Event{Op: indicator.OpRetracted, Indicator: indicator.Indicator{ID: "RoomFlow-Failure"}}}
	next, _ = m.Update(retracted)
	m = next.(Model)
	assert.False(t, m.toaster.Visible())
	assert.Len(t, m.lines, 3)
}

func TestUpdate_RouteErrorShowsToast(t *testing.T) {
	m := New(newApp(t))

	next, cmd := m.Update(routeMsg{err: errors.New("parse \"x\": unsupported route")})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "unsupported route")
}

func TestRenderSnapshots(t *testing.T) {
	out := renderSnapshots([]flow.Snapshot{{
		Flow:  "ChatsFlow",
		State: "roomList",
		Children: []flow.Snapshot{
			{Flow: "RoomFlow[!abc:example.org]", State: "room"},
		},
	}})

	assert.Contains(t, out, "ChatsFlow")
	assert.Contains(t, out, "\n  RoomFlow[!abc:example.org]")
}
