package room

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func setup(t *testing.T, roomID string, opts ...testutil.HarnessOption) (*testutil.Harness, *navigation.Stack, *Flow, *[]flow.Action) {
	t.Helper()
	h := testutil.NewHarness(t, opts...)
	stack := h.NewDetailStack()
	f := New(h.Params, roomID, stack)
	var got []flow.Action
	h.Do(func() { f.Actions().Subscribe(func(a flow.Action) { got = append(got, a) }) })
	return h, stack, f, &got
}

func presentedRoom(t *testing.T, opts ...testutil.HarnessOption) (*testutil.Harness, *navigation.Stack, *Flow, *[]flow.Action) {
	t.Helper()
	h, stack, f, got := setup(t, testutil.RoomABC, opts...)
	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomABC), false) })
	require.Equal(t, State{Kind: Room}, f.State())
	return h, stack, f, got
}

func top(stack *navigation.Stack) *navigation.Screen {
	s, _ := stack.Top().(*navigation.Screen)
	return s
}

func sheet(stack *navigation.Stack) *navigation.Screen {
	s, _ := stack.Sheet().(*navigation.Screen)
	return s
}

func chain(t *testing.T, f *Flow, want ...State) {
	t.Helper()
	if diff := cmp.Diff(want, f.machine.Chain()); diff != "" {
		t.Fatalf("state chain mismatch (-want +got):\n%s", diff)
	}
}

func TestFlow_PresentsJoinedRoom(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	require.Equal(t, "RoomScreen", navigation.KindOf(stack.Root()))
	assert.Equal(t, 0, stack.Count())
	assert.Equal(t, "General", top(stack).Attr("name"))
	assert.Equal(t, 1, h.Timelines.Count(session.TimelineLive, testutil.RoomABC))
	assert.True(t, f.IsDisplayingRoomScreen())
}

func TestFlow_ReselectingRoomReusesTimeline(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)
	root := stack.Root()

	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomABC), false) })
	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomABC), true) })

	require.Equal(t, State{Kind: Room}, f.State())
	assert.Same(t, root, stack.Root())
	assert.Equal(t, 1, h.Timelines.Count(session.TimelineLive, testutil.RoomABC))
	assert.Equal(t, 1, h.Client.Calls("RoomSummary"))
}

func TestFlow_EventRouteFocusesExistingTimeline(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() { f.HandleAppRoute(route.Event(testutil.PlainEvent, testutil.RoomABC), false) })

	require.Equal(t, State{Kind: Room}, f.State())
	assert.Equal(t, testutil.PlainEvent, top(stack).Attr("focus"))
	assert.Equal(t, 1, h.Timelines.Count(session.TimelineLive, testutil.RoomABC))
}

func TestFlow_ThreadedEventOpensThread(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.RoomABC)

	h.Do(func() { f.HandleAppRoute(route.Event(testutil.ThreadReply, testutil.RoomABC), false) })

	chain(t, f, State{Kind: Room}, State{Kind: Thread, ThreadRootID: testutil.ThreadRoot})
	require.Equal(t, 1, stack.Count())
	assert.Equal(t, "ThreadTimelineScreen", top(stack).Kind)
	assert.Equal(t, testutil.ThreadReply, top(stack).Attr("focus"))
	assert.Equal(t, testutil.ThreadRoot, stack.Root().(*navigation.Screen).Attr("focus"))
	assert.Equal(t, 1, h.Timelines.Count(session.TimelineThread, testutil.RoomABC))
}

func TestFlow_ThreadedEventWithoutThreadsFocusesRoom(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.RoomABC, testutil.WithFlags(map[string]bool{}))

	h.Do(func() { f.HandleAppRoute(route.Event(testutil.ThreadReply, testutil.RoomABC), false) })

	require.Equal(t, State{Kind: Room}, f.State())
	assert.Equal(t, 0, stack.Count())
	assert.Equal(t, testutil.ThreadReply, top(stack).Attr("focus"))
	assert.Zero(t, h.Client.Calls("EventDetails"))
}

func TestFlow_InvitedRoomShowsJoinScreen(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.RoomInvite)

	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomInvite), false) })
	require.Equal(t, State{Kind: JoinRoomScreen}, f.State())
	require.Equal(t, "JoinRoomScreen", navigation.KindOf(stack.Root()))
	assert.Equal(t, "invited", top(stack).Attr("membership"))

	h.Do(func() { top(stack).Send(DeclineAndBlock{UserID: "@spam:example.org"}) })
	require.Equal(t, State{Kind: DeclineAndBlockScreen, UserID: "@spam:example.org"}, f.State())
	require.Equal(t, "DeclineAndBlockScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: JoinRoomScreen}, f.State())
	assert.Equal(t, 0, stack.Count())
}

func TestFlow_JoiningPresentsRoom(t *testing.T) {
	h, stack, f, _ := setup(t, testutil.RoomInvite)
	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomInvite), false) })

	h.Do(func() { top(stack).Send(Join) })

	require.Equal(t, State{Kind: Room}, f.State())
	assert.Equal(t, "RoomScreen", navigation.KindOf(stack.Root()))
	assert.Equal(t, 1, h.Client.Calls("JoinRoom"))
	assert.False(t, h.Indicators.IsShowing(f.LoadingID()))
}

func TestFlow_DecliningInviteFinishes(t *testing.T) {
	h, stack, f, got := setup(t, testutil.RoomInvite)
	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomInvite), false) })
	h.Do(func() { top(stack).Send(DeclineAndBlock{UserID: "@spam:example.org"}) })

	h.Do(func() { top(stack).Send(Declined) })

	require.Equal(t, State{Kind: Complete}, f.State())
	assert.Nil(t, stack.Root())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_SpaceContinuesWithSpaceFlow(t *testing.T) {
	h, stack, f, got := setup(t, testutil.SpaceHQ)

	h.Do(func() { f.HandleAppRoute(route.Room(testutil.SpaceHQ), false) })

	require.Equal(t, []flow.Action{flow.ContinueWithSpaceFlow(testutil.SpaceHQ)}, *got)
	assert.Equal(t, State{Kind: Initial}, f.State())
	assert.Nil(t, stack.Root())
}

func TestFlow_UnknownRoomSummaryFailureShowsJoinScreen(t *testing.T) {
	h, stack, f, _ := setup(t, "!missing:example.org")

	h.Do(func() { f.HandleAppRoute(route.Room("!missing:example.org", "example.org"), false) })

	require.Equal(t, State{Kind: JoinRoomScreen}, f.State())
	assert.Equal(t, "example.org", top(stack).Attr("via"))
}

func TestFlow_PollsHistoryReturnsToDetails(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() { top(stack).Send(ShowDetails) })
	require.Equal(t, State{Kind: RoomDetails}, f.State())

	h.Do(func() { top(stack).Send(DetailsPollsHistory) })
	require.Equal(t, State{Kind: PollsHistory}, f.State())
	require.Equal(t, "RoomPollsHistoryScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: RoomDetails}, f.State())
	assert.Equal(t, "RoomDetailsScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: Room}, f.State())
	assert.Equal(t, 0, stack.Count())
}

func TestFlow_DetailsEntryIsRoot(t *testing.T) {
	h, stack, f, got := setup(t, testutil.RoomABC)

	h.Do(func() { f.HandleAppRoute(route.RoomDetails(testutil.RoomABC), false) })
	require.Equal(t, State{Kind: RoomDetails, IsRoot: true}, f.State())
	require.Equal(t, "RoomDetailsScreen", navigation.KindOf(stack.Root()))

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: Complete}, f.State())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_RootDetailsSubScreenRestoresRootFlag(t *testing.T) {
	h, stack, f, got := setup(t, testutil.RoomABC)
	h.Do(func() { f.HandleAppRoute(route.RoomDetails(testutil.RoomABC), false) })

	h.Do(func() { top(stack).Send(DetailsNotifications) })
	require.Equal(t, State{Kind: NotificationSettings}, f.State())
	require.Equal(t, "RoomNotificationSettingsScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: RoomDetails, IsRoot: true}, f.State())
	assert.Equal(t, 0, stack.Count())

	h.Do(func() { top(stack).Send(Back) })
	require.Equal(t, State{Kind: Complete}, f.State())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_MediaPreviewReplacesPicker(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() { top(stack).Send(PickMedia{Mode: "photoLibrary"}) })
	chain(t, f, State{Kind: Room}, State{Kind: MediaUploadPicker})
	require.Equal(t, "MediaPickerScreen", sheet(stack).Kind)

	h.Do(func() { sheet(stack).Send(MediaSelected{Files: []string{"a.png", "b.png"}}) })
	chain(t, f, State{Kind: Room}, State{Kind: MediaUploadPreview})
	require.Equal(t, "a.png,b.png", sheet(stack).Attr("files"))

	h.Do(func() { sheet(stack).Send(Back) })
	chain(t, f, State{Kind: Room})
	assert.Nil(t, stack.Sheet())
}

func TestFlow_ShareTextFillsComposer(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() {
		f.HandleAppRoute(route.Share(route.SharePayload{RoomID: testutil.RoomABC, Text: "hello"}), false)
	})

	require.Equal(t, State{Kind: Room}, f.State())
	assert.Equal(t, "hello", top(stack).Attr("composer"))
}

func TestFlow_ChildRoundTrip(t *testing.T) {
	h, stack, f, got := presentedRoom(t)

	h.Do(func() { f.HandleAppRoute(route.ChildRoom(testutil.RoomDEF), true) })
	chain(t, f, State{Kind: Room}, State{Kind: PresentingChild, ChildRoomID: testutil.RoomDEF})
	require.Equal(t, 1, stack.Count())
	require.Equal(t, testutil.RoomDEF, top(stack).Attr("room"))

	h.Do(func() { top(stack).Send(Back) })
	chain(t, f, State{Kind: Room})
	assert.Equal(t, 0, stack.Count())
	assert.Nil(t, f.child)
	assert.Empty(t, *got)
}

func TestFlow_ChildRefusesThreadRoute(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)
	h.Do(func() { f.HandleAppRoute(route.ChildRoom(testutil.RoomDEF), false) })

	h.Do(func() { f.HandleAppRoute(route.Thread(testutil.RoomDEF, "$root-def", ""), false) })

	require.Equal(t, State{Kind: Room}, f.child.State())
	assert.Equal(t, 1, stack.Count())
	assert.Zero(t, h.Timelines.Count(session.TimelineThread, testutil.RoomDEF))
}

func TestFlow_ClearRouteTearsDownChildFirst(t *testing.T) {
	h, stack, f, got := presentedRoom(t)
	h.Do(func() { f.HandleAppRoute(route.ChildRoom(testutil.RoomDEF), false) })
	child := f.child

	h.Do(func() { f.ClearRoute(false) })

	require.Equal(t, State{Kind: Complete}, f.State())
	assert.Equal(t, State{Kind: Complete}, child.State())
	assert.Nil(t, stack.Root())
	assert.Equal(t, 0, stack.Count())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)

	h.Do(func() { f.ClearRoute(false) })
	assert.Len(t, *got, 1)
}

func TestFlow_PinnedUserOpensMembersAfterTimelineCloses(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() { top(stack).Send(ShowPinnedEvents) })
	require.Equal(t, State{Kind: PinnedEventsTimelineFlow}, f.State())
	pinned, ok := stack.Sheet().(*navigation.Stack)
	require.True(t, ok)
	require.Equal(t, "PinnedEventsTimelineScreen", navigation.KindOf(pinned.Root()))

	h.Do(func() { pinned.Root().(*navigation.Screen).Send(OpenUser{UserID: "@bob:example.org"}) })

	chain(t, f, State{Kind: Room}, State{Kind: MembersFlowState})
	assert.Nil(t, stack.Sheet())
	require.Equal(t, "RoomMemberDetailsScreen", top(stack).Kind)
	assert.Equal(t, "@bob:example.org", top(stack).Attr("user"))

	h.Do(func() { top(stack).Send(Back) })
	chain(t, f, State{Kind: Room})
	assert.Nil(t, f.members)
}

func TestFlow_MediaForwardingStartsChild(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)
	h.Do(func() { top(stack).Send(ShowDetails) })
	h.Do(func() { top(stack).Send(DetailsMediaEvents) })
	require.Equal(t, "MediaEventsTimelineScreen", top(stack).Kind)

	h.Do(func() { top(stack).Send(Forward{EventID: testutil.PlainEvent}) })
	require.Equal(t, State{Kind: MessageForwarding, EventID: testutil.PlainEvent}, f.State())
	require.Equal(t, "MessageForwardingScreen", sheet(stack).Kind)

	h.Do(func() { sheet(stack).Send(ForwardTo{RoomID: testutil.RoomDEF}) })

	chain(t, f,
		State{Kind: Room},
		State{Kind: RoomDetails},
		State{Kind: MediaEventsTimelineFlow},
		State{Kind: PresentingChild, ChildRoomID: testutil.RoomDEF},
	)
	assert.Equal(t, 3, stack.Count())
	assert.Equal(t, testutil.RoomDEF, top(stack).Attr("room"))
}

func TestFlow_InviteUsersFromDetails(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)
	h.Do(func() { top(stack).Send(ShowDetails) })
	h.Do(func() { top(stack).Send(DetailsInvite) })
	require.Equal(t, "InviteUsersScreen", sheet(stack).Kind)

	h.Do(func() { sheet(stack).Send(InviteUsers{UserIDs: []string{"@a:example.org", "@b:example.org"}}) })

	require.Equal(t, State{Kind: RoomDetails}, f.State())
	assert.Nil(t, stack.Sheet())
	assert.ElementsMatch(t, []session.Invite{
		{RoomID: testutil.RoomABC, UserID: "@a:example.org"},
		{RoomID: testutil.RoomABC, UserID: "@b:example.org"},
	}, h.Client.Invites())
}

func TestFlow_TimelineFailureFinishes(t *testing.T) {
	h, stack, f, got := setup(t, testutil.RoomABC)
	h.Timelines.FailFor(testutil.RoomABC, errors.New("store closed"))

	h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomABC), false) })

	require.Equal(t, State{Kind: Complete}, f.State())
	assert.True(t, h.Indicators.WasShown(f.FailureID()))
	assert.Nil(t, stack.Root())
	assert.Equal(t, []flow.Action{flow.Finished()}, *got)
}

func TestFlow_MemberRouteStartsMembersFlow(t *testing.T) {
	h, stack, f, _ := presentedRoom(t)

	h.Do(func() { f.HandleAppRoute(route.RoomMemberDetails("@carol:example.org"), false) })

	require.Equal(t, State{Kind: MembersFlowState}, f.State())
	assert.Equal(t, "@carol:example.org", top(stack).Attr("user"))
	snap := f.Snapshot()
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "roomMemberDetails(@carol:example.org)", snap.Children[0].State)
}

func TestFlow_StartCallIsForwarded(t *testing.T) {
	h, stack, _, got := presentedRoom(t)

	h.Do(func() { top(stack).Send(StartCall) })

	assert.Equal(t, []flow.Action{flow.PresentCallScreen(testutil.RoomABC)}, *got)
}

func TestFlow_UnexpectedEventPanics(t *testing.T) {
	_, _, f, _ := presentedRoom(t)
	require.Panics(t, func() {
		f.machine.TryEvent(Event{Kind: EventDismissThread}, flow.EventInfo{})
	})
	require.Equal(t, State{Kind: Room}, f.State())
}

func TestFlow_ReselectingRoomReleasesNestedFlows(t *testing.T) {
	tests := []struct {
		name  string
		enter func(f *Flow, stack *navigation.Stack)
		want  State
	}{
		{
			name:  "pinned sheet",
			enter: func(_ *Flow, stack *navigation.Stack) { top(stack).Send(ShowPinnedEvents) },
			want:  State{Kind: PinnedEventsTimelineFlow},
		},
		{
			name: "media timeline",
			enter: func(_ *Flow, stack *navigation.Stack) {
				top(stack).Send(ShowDetails)
				top(stack).Send(DetailsMediaEvents)
			},
			want: State{Kind: MediaEventsTimelineFlow},
		},
		{
			name: "child room",
			enter: func(f *Flow, _ *navigation.Stack) {
				f.HandleAppRoute(route.ChildRoom(testutil.RoomDEF), false)
			},
			want: State{Kind: PresentingChild, ChildRoomID: testutil.RoomDEF},
		},
		{
			name: "member details",
			enter: func(f *Flow, _ *navigation.Stack) {
				f.HandleAppRoute(route.RoomMemberDetails("@carol:example.org"), false)
			},
			want: State{Kind: MembersFlowState},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, stack, f, got := presentedRoom(t)
			h.Do(func() { tt.enter(f, stack) })
			require.Equal(t, tt.want, f.State())
			require.NotEmpty(t, f.Snapshot().Children)

			h.Do(func() { f.HandleAppRoute(route.Room(testutil.RoomABC), false) })

			require.Equal(t, State{Kind: Room}, f.State())
			assert.Nil(t, stack.Sheet())
			assert.Equal(t, 0, stack.Count())
			assert.Equal(t, "RoomScreen", top(stack).Kind)
			assert.Nil(t, f.child)
			assert.Nil(t, f.members)
			assert.Nil(t, f.pinned)
			assert.Nil(t, f.media)
			assert.Empty(t, f.Snapshot().Children)
			assert.Equal(t, 1, h.Timelines.Count(session.TimelineLive, testutil.RoomABC))
			assert.Empty(t, *got)
		})
	}
}
