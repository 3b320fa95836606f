package startchat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func newFlow(t *testing.T, entry EntryPoint) (*testutil.Harness, *navigation.Stack, *Flow, *[]Action) {
	h := testutil.NewHarness(t)
	stack := navigation.NewStack("startChat")
	f := New(h.Params, entry, MemoryCreator{Client: h.Client, Domain: "example.org"}, stack)
	var got []Action
	h.Do(func() {
		f.Actions().Subscribe(func(a Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, stack, f, &got
}

func send(h *testutil.Harness, m navigation.Module, action any) {
	h.Do(func() { m.(*navigation.Screen).Send(action) })
}

func TestFlow_StartChatScreenActions(t *testing.T) {
	h, stack, f, got := newFlow(t, StartChat())
	require.Equal(t, StartChatScreen, f.State())
	require.Equal(t, "StartChatScreen", navigation.KindOf(stack.Root()))

	send(h, stack.Root(), StartChatRoomDirectory)
	send(h, stack.Root(), OpenRoom{RoomID: testutil.RoomDEF})
	send(h, stack.Root(), StartChatClose)

	require.Equal(t, []Action{
		{Kind: ActionShowRoomDirectory},
		{Kind: ActionFinished, Result: ResultRoom, RoomID: testutil.RoomDEF},
		{Kind: ActionFinished, Result: ResultCancelled},
	}, *got)
}

func TestFlow_CreateRoomWithAvatarAndInvites(t *testing.T) {
	h, stack, f, got := newFlow(t, StartChat())
	h.Client.FailInvite("@mallory:example.org", errors.New("forbidden"))

	send(h, stack.Root(), StartChatCreateRoom)
	require.Equal(t, CreateRoomScreen, f.State())
	require.Equal(t, 1, stack.Count())
	create := stack.Top().(*navigation.Screen)

	send(h, create, CreatePickAvatar)
	require.Equal(t, RoomAvatarPicker, f.State())
	send(h, stack.Sheet().(*navigation.Stack).Root(), AvatarSelected{Path: "/tmp/cat.png"})
	require.Equal(t, CreateRoomScreen, f.State())
	require.Nil(t, stack.Sheet())
	require.Equal(t, "/tmp/cat.png", create.Attr("avatar"))

	send(h, create, CreateRoom{Name: "Lounge"})
	require.Equal(t, InviteUsers, f.State())
	invite := stack.Top().(*navigation.Screen)
	require.Equal(t, "InviteUsersScreen", navigation.KindOf(invite))
	roomID := invite.Attr("room")
	require.NotEmpty(t, roomID)

	info, err := h.Client.RoomSummary(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, "Lounge", info.Name)

	send(h, invite, SendInvites{UserIDs: []string{"@bob:example.org", "@mallory:example.org"}})
	require.True(t, h.Indicators.WasShown(f.FailureID()))
	require.Equal(t, []session.Invite{{RoomID: roomID, UserID: "@bob:example.org"}}, h.Client.Invites())
	require.Equal(t, []Action{{Kind: ActionFinished, Result: ResultRoom, RoomID: roomID}}, *got)
}

func TestFlow_CreateRoomFailureStaysOnScreen(t *testing.T) {
	h, stack, f, got := newFlow(t, StartChat())
	send(h, stack.Root(), StartChatCreateRoom)

	send(h, stack.Top(), CreateRoom{Name: "  "})
	require.Equal(t, CreateRoomScreen, f.State())
	require.True(t, h.Indicators.WasShown(f.FailureID()))
	require.False(t, h.Indicators.IsShowing(f.LoadingID()))
	require.Empty(t, *got)

	h.Do(func() { stack.Pop(true) })
	require.Equal(t, StartChatScreen, f.State())
}

func TestFlow_CreateSpace(t *testing.T) {
	h, stack, f, got := newFlow(t, CreateSpace())
	require.Equal(t, CreateRoomScreen, f.State())
	root := stack.Root().(*navigation.Screen)
	require.Equal(t, "space", root.Attr("kind"))
	require.Equal(t, "true", root.Attr("cancellable"))

	send(h, root, CreateRoom{Name: "Guild"})
	send(h, stack.Top(), SkipInvites{})
	require.Len(t, *got, 1)
	require.Equal(t, ResultSpace, (*got)[0].Result)
}

func TestFlow_CreateRoomInSpace(t *testing.T) {
	h, stack, _, got := newFlow(t, CreateRoomInSpace(testutil.SpaceHQ))
	require.Equal(t, testutil.SpaceHQ, stack.Root().(*navigation.Screen).Attr("space"))

	send(h, stack.Root(), CreateRoom{Name: "Ops"})
	send(h, stack.Top(), SkipInvites{})
	require.Len(t, *got, 1)

	space, err := h.Client.RoomSummary(context.Background(), testutil.SpaceHQ)
	require.NoError(t, err)
	require.Contains(t, space.Children, (*got)[0].RoomID)
}

func TestFlow_ClearRoute(t *testing.T) {
	h, stack, f, _ := newFlow(t, StartChat())
	send(h, stack.Root(), StartChatCreateRoom)
	send(h, stack.Top(), CreateRoom{Name: "Lounge"})
	require.Equal(t, InviteUsers, f.State())

	h.Do(func() { f.ClearRoute(false) })
	require.Nil(t, stack.Root())
	require.Equal(t, 0, stack.Count())
}
