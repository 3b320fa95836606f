package space

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func setup(t *testing.T, spaceID string, opts ...testutil.HarnessOption) (*testutil.Harness, *navigation.Stack, *Flow, *[]flow.Action) {
	t.Helper()
	h := testutil.NewHarness(t, opts...)
	stack := h.NewDetailStack()
	f := New(h.Params, spaceID, stack)
	var got []flow.Action
	h.Do(func() {
		f.Actions().Subscribe(func(a flow.Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, stack, f, &got
}

func top(stack *navigation.Stack) *navigation.Screen {
	screen, _ := stack.Top().(*navigation.Screen)
	return screen
}

func root(stack *navigation.Stack) *navigation.Screen {
	screen, _ := stack.Root().(*navigation.Screen)
	return screen
}

func TestFlow_PresentsJoinedSpace(t *testing.T) {
	_, stack, f, got := setup(t, testutil.SpaceHQ)

	require.Equal(t, State{Kind: Space}, f.State())
	require.Equal(t, "SpaceScreen", root(stack).Kind)
	assert.Equal(t, "HQ", root(stack).Attr("name"))
	assert.Equal(t, testutil.SpaceChild, root(stack).Attr("children"))
	assert.Empty(t, *got)
}

func TestFlow_SelectRoomRoundTrip(t *testing.T) {
	h, stack, f, got := setup(t, testutil.SpaceHQ)

	h.Do(func() { root(stack).Send(SelectRoom{RoomID: testutil.SpaceChild}) })
	require.Equal(t, State{Kind: RoomFlow, RoomID: testutil.SpaceChild}, f.State())
	require.Equal(t, "RoomScreen", top(stack).Kind)
	assert.Equal(t, testutil.SpaceChild, root(stack).Attr("selected"))

	h.Do(func() { top(stack).Send(room.Back) })
	require.Equal(t, State{Kind: Space}, f.State())
	assert.Equal(t, 0, stack.Count())
	assert.Equal(t, "", root(stack).Attr("selected"))
	assert.Nil(t, f.room)
	assert.Empty(t, *got)
}

func TestFlow_RoomThatIsASpaceBecomesChildSpace(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.SpaceHQ)

	h.Do(func() { root(stack).Send(SelectRoom{RoomID: testutil.SpaceHQ}) })

	require.Equal(t, State{Kind: PresentingChild, SpaceID: testutil.SpaceHQ}, f.State())
	if diff := cmp.Diff([]State{{Kind: Space}, {Kind: PresentingChild, SpaceID: testutil.SpaceHQ}}, f.machine.Chain()); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, f.room)
	require.Equal(t, 1, stack.Count())
	assert.Equal(t, "SpaceScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: Space}, f.State())
	assert.Equal(t, 0, stack.Count())
	assert.Nil(t, f.child)
}

func TestFlow_UnjoinedSpaceShowsJoinScreen(t *testing.T) {
	h, stack, f, got := setup(t, testutil.SpaceInvite)

	require.Equal(t, State{Kind: JoinSpace}, f.State())
	require.Equal(t, "JoinRoomScreen", root(stack).Kind)
	assert.Equal(t, "invited", root(stack).Attr("membership"))

	h.Do(func() { root(stack).Send(Join) })
	require.Equal(t, State{Kind: Space}, f.State())
	assert.Equal(t, "SpaceScreen", root(stack).Kind)
	assert.Equal(t, 1, h.Client.Calls("JoinRoom"))
	assert.Empty(t, *got)
}

func TestFlow_JoinScreenBackFinishes(t *testing.T) {
	h, stack, _, got := setup(t, testutil.SpaceInvite)

	h.Do(func() { root(stack).Send(Back) })
	assert.Nil(t, stack.Root())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_UnknownSpaceFinishes(t *testing.T) {
	h, stack, f, got := setup(t, "!missing:example.org")

	assert.Equal(t, State{Kind: Initial}, f.State())
	assert.Nil(t, stack.Root())
	assert.True(t, h.Indicators.WasShown(f.FailureID()))
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_ClearRouteStopsNestedFlowsFirst(t *testing.T) {
	h, stack, f, got := setup(t, testutil.SpaceHQ)
	h.Do(func() { root(stack).Send(SelectSpace{SpaceID: testutil.SpaceHQ}) })
	require.Equal(t, State{Kind: PresentingChild, SpaceID: testutil.SpaceHQ}, f.State())
	child := f.child
	require.NotNil(t, child)

	h.Do(func() { f.ClearRoute(false) })

	assert.Equal(t, State{Kind: Space}, f.State())
	assert.Nil(t, f.child)
	assert.False(t, child.Life.Alive())
	assert.Nil(t, stack.Root())
	assert.Equal(t, 0, stack.Count())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)

	h.Do(func() { f.ClearRoute(false) })
	assert.Len(t, *got, 1)
}

func TestFlow_SettingsRoundTrip(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.SpaceHQ)

	h.Do(func() { root(stack).Send(ShowSettings) })
	require.Equal(t, State{Kind: SettingsFlow}, f.State())
	require.Equal(t, "SpaceSettingsScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	assert.Equal(t, State{Kind: Space}, f.State())
	assert.Equal(t, 0, stack.Count())
}

func TestFlow_SettingsDisabled(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.SpaceHQ, testutil.WithFlags(map[string]bool{}))

	h.Do(func() { root(stack).Send(ShowSettings) })
	assert.Equal(t, State{Kind: Space}, f.State())
	assert.Equal(t, 0, stack.Count())
}

func TestFlow_LeavingFromSettingsFinishes(t *testing.T) {
	h, stack, f, got := setup(t, testutil.SpaceHQ)
	h.Do(func() { root(stack).Send(ShowSettings) })

	h.Do(func() { top(stack).Send(Left) })

	assert.Equal(t, State{Kind: LeftSpace}, f.State())
	assert.Nil(t, stack.Root())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_MembersRoundTrip(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.SpaceHQ)

	h.Do(func() { root(stack).Send(ShowMembers) })
	require.Equal(t, State{Kind: MembersFlow}, f.State())
	require.Equal(t, "RoomMembersListScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(room.Back) })
	assert.Equal(t, State{Kind: Space}, f.State())
	assert.Nil(t, f.members)
	assert.Equal(t, 0, stack.Count())
}

func TestFactory_CreatesChildFlows(t *testing.T) {
	h := testutil.NewHarness(t)
	stack := h.NewDetailStack()
	h.Do(func() { stack.SetRoot(navigation.NewScreen("RoomScreen", nil), false, nil) })

	child := Factory(h.Params)(testutil.SpaceHQ, stack)
	h.Do(func() { child.Start(false) })

	assert.Equal(t, "RoomScreen", root(stack).Kind)
	require.Equal(t, 1, stack.Count())
	assert.Equal(t, "SpaceScreen", top(stack).Kind)
}
