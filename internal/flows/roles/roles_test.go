package roles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func setup(t *testing.T) (*testutil.Harness, *navigation.Stack, *Flow, *[]Action) {
	h := testutil.NewHarness(t)
	stack := navigation.NewStack("room")
	f := New(h.Params, testutil.RoomABC, stack)
	var got []Action
	h.Do(func() {
		stack.SetRoot(navigation.NewScreen("RoomDetailsScreen", nil), false, nil)
		f.Actions().Subscribe(func(a Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, stack, f, &got
}

func topScreen(stack *navigation.Stack) *navigation.Screen {
	s, _ := stack.Top().(*navigation.Screen)
	return s
}

func TestFlow_ChangeRolesCarriesMode(t *testing.T) {
	h, stack, f, _ := setup(t)
	require.Equal(t, State{Kind: RolesScreen}, f.State())

	h.Do(func() { topScreen(stack).Send(EditRoles{Role: Moderators}) })
	require.Equal(t, State{Kind: ChangingRoles, Mode: Moderators}, f.State())
	require.Equal(t, "moderators", topScreen(stack).Attr("mode"))

	h.Do(func() { topScreen(stack).Send(EditorDone{}) })
	require.Equal(t, State{Kind: RolesScreen}, f.State())
}

func TestFlow_ClearRouteFromEditorCompletes(t *testing.T) {
	h, stack, f, got := setup(t)

	h.Do(func() { topScreen(stack).Send(EditPermissions{Group: "messages"}) })
	require.Equal(t, ChangingPermissions, f.State().Kind)

	h.Do(func() { f.ClearRoute(false) })
	require.Equal(t, 0, stack.Count())
	require.Equal(t, []Action{Complete}, *got)
}

func TestFlow_UnexpectedEventPanics(t *testing.T) {
	_, _, f, _ := setup(t)
	require.Panics(t, func() {
		f.machine.TryEvent(Event{Kind: EventFinishedChangingRoles}, flow.EventInfo{})
	})
	require.Equal(t, State{Kind: RolesScreen}, f.State())
}
