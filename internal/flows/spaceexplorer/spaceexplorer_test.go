package spaceexplorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/space"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func setup(t *testing.T) (*testutil.Harness, *Flow, *[]flow.Action) {
	t.Helper()
	h := testutil.NewHarness(t)
	f := New(h.Params, h.Split)
	var got []flow.Action
	h.Do(func() {
		f.Actions().Subscribe(func(a flow.Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, f, &got
}

func rootOf(stack *navigation.Stack) *navigation.Screen {
	screen, _ := stack.Root().(*navigation.Screen)
	return screen
}

func TestFlow_StartShowsSpaceList(t *testing.T) {
	h, f, _ := setup(t)

	assert.Equal(t, State{Kind: SpaceList}, f.State())
	assert.Equal(t, navigation.Module(f.Sidebar()), h.Split.Sidebar())
	assert.Equal(t, "SpaceListScreen", rootOf(f.Sidebar()).Kind)
	assert.Nil(t, h.Split.Detail())
}

func TestFlow_SelectAndDeselectSpace(t *testing.T) {
	h, f, got := setup(t)

	h.Do(func() { rootOf(f.Sidebar()).Send(SelectSpace{SpaceID: testutil.SpaceHQ}) })
	require.Equal(t, State{Kind: SpaceList, Selected: testutil.SpaceHQ}, f.State())
	assert.Equal(t, navigation.Module(f.Detail()), h.Split.Detail())
	assert.Equal(t, "SpaceScreen", rootOf(f.Detail()).Kind)
	assert.Equal(t, testutil.SpaceHQ, rootOf(f.Sidebar()).Attr("selected"))

	h.Do(func() { rootOf(f.Detail()).Send(space.Back) })
	assert.Equal(t, State{Kind: SpaceList}, f.State())
	assert.Nil(t, h.Split.Detail())
	assert.Equal(t, "", rootOf(f.Sidebar()).Attr("selected"))
	assert.Empty(t, *got)
}

func TestFlow_SelectingAnotherSpaceReplacesTheFirst(t *testing.T) {
	h, f, _ := setup(t)
	h.Do(func() { rootOf(f.Sidebar()).Send(SelectSpace{SpaceID: testutil.SpaceHQ}) })
	first := f.space

	h.Do(func() { rootOf(f.Sidebar()).Send(SelectSpace{SpaceID: testutil.SpaceInvite}) })

	assert.Equal(t, State{Kind: SpaceList, Selected: testutil.SpaceInvite}, f.State())
	assert.False(t, first.Life.Alive())
	assert.Equal(t, "JoinRoomScreen", rootOf(f.Detail()).Kind)
}

func TestFlow_ShowSettingsIsForwarded(t *testing.T) {
	h, f, got := setup(t)

	h.Do(func() { rootOf(f.Sidebar()).Send(ShowSettings{}) })
	assert.Equal(t, []flow.Action{flow.ShowSettings()}, *got)
}
