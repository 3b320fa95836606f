package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/pubsub"
)

func screen(kind string) *Screen {
	return NewScreen(kind, nil)
}

func TestStack_PushPopCallbacksTopToBottom(t *testing.T) {
	s := NewStack("detail")
	var popped []string

	s.SetRoot(screen("Room"), false, nil)
	for _, kind := range []string{"Details", "Members", "Member"} {
		s.Push(screen(kind), false, func() { popped = append(popped, kind) })
	}
	require.Equal(t, 3, s.Count())
	require.Equal(t, "Member", KindOf(s.Top()))

	s.PopToRoot(false)
	require.Equal(t, []string{"Member", "Members", "Details"}, popped)
	require.Equal(t, 0, s.Count())
	require.Equal(t, "Room", KindOf(s.Top()))
}

func TestStack_CallbackSeesFinalShape(t *testing.T) {
	s := NewStack("detail")
	s.SetRoot(screen("Room"), false, nil)

	var countInCallback int
	s.Push(screen("Thread"), false, func() { countInCallback = s.Count() })
	s.Pop(false)

	require.Equal(t, 0, countInCallback)
}

func TestStack_SetRootPopsAndDismissesOldRoot(t *testing.T) {
	s := NewStack("detail")
	var events []string
	s.SetRoot(screen("Join"), false, func() { events = append(events, "root dismissed") })
	s.Push(screen("DeclineAndBlock"), false, func() { events = append(events, "pushed popped") })

	room := screen("Room")
	s.SetRoot(room, false, nil)

	require.Equal(t, []string{"pushed popped", "root dismissed"}, events)
	require.Same(t, room, s.Root())

	// Setting the same root again is a no-op.
	s.SetRoot(room, false, func() { events = append(events, "unexpected") })
	require.Len(t, events, 2)

	s.SetRoot(nil, false, nil)
	require.Nil(t, s.Root())
	require.Nil(t, s.Top())
}

func TestStack_PopToModuleAndRemove(t *testing.T) {
	s := NewStack("detail")
	s.SetRoot(screen("Room"), false, nil)
	details := screen("Details")
	s.Push(details, false, nil)
	s.Push(screen("Polls"), false, nil)
	s.Push(screen("PollForm"), false, nil)

	s.PopToModule(details, false)
	require.Equal(t, 1, s.Count())
	require.Same(t, details, s.Top())

	s.Remove(details, false)
	require.Equal(t, 0, s.Count())
	require.True(t, s.Contains(s.Root()))
	require.False(t, s.Contains(details))
}

func TestStack_SheetWithoutSplit(t *testing.T) {
	s := NewStack("standalone")
	dismissed := 0
	s.SetSheet(screen("EmojiPicker"), false, func() { dismissed++ })
	require.Equal(t, "EmojiPicker", KindOf(s.Sheet()))

	s.SetSheet(nil, false, nil)
	require.Nil(t, s.Sheet())
	require.Equal(t, 1, dismissed)
}

func TestSplit_StackSheetsProxyToSplit(t *testing.T) {
	split := NewSplit("main", nil)
	detail := split.NewStack("detail")
	split.SetDetail(detail, false, nil)

	dismissed := 0
	detail.SetSheet(screen("ReportContent"), false, func() { dismissed++ })
	require.Equal(t, "ReportContent", KindOf(split.Sheet()))
	require.Equal(t, "ReportContent", KindOf(detail.Sheet()))

	split.SetSheet(nil, false, nil)
	require.Equal(t, 1, dismissed)
	require.Nil(t, detail.Sheet())
}

func TestSplit_ReplacingSlotDismissesPrevious(t *testing.T) {
	split := NewSplit("main", nil)
	var dismissed []string
	split.SetFullScreenCover(screen("RoomDirectory"), false, func() { dismissed = append(dismissed, "directory") })
	split.SetFullScreenCover(screen("Call"), false, func() { dismissed = append(dismissed, "call") })
	require.Equal(t, []string{"directory"}, dismissed)

	split.SetFullScreenCover(nil, false, nil)
	require.Equal(t, []string{"directory", "call"}, dismissed)
	require.Contains(t, split.Tree(), "cover: <nil>")
}

func TestSplit_PublishesChanges(t *testing.T) {
	bus := pubsub.NewBroker[any]()
	defer bus.Close()
	ch := bus.Subscribe(context.Background())

	split := NewSplit("main", bus)
	split.SetSidebar(screen("Home"), true, nil)

	event := <-ch
	require.Equal(t, pubsub.PresentedEvent, event.Type)
	change, ok := event.Payload.(Change)
	require.True(t, ok)
	require.Equal(t, Change{Surface: "main", Slot: "sidebar", Op: "presented", Module: "Home", Animated: true}, change)
}

func TestScreen_SendAndAttributes(t *testing.T) {
	var got []any
	s := NewScreen("Room", func(a any) { got = append(got, a) }).With("room", "!abc")
	s.Set("focus", "$event")

	require.True(t, s.Send("presentRoomDetails"))
	require.Equal(t, []any{"presentRoomDetails"}, got)
	require.Equal(t, "!abc", s.Attr("room"))
	require.Equal(t, "Room{focus=$event room=!abc}", s.Describe())
	require.NotEmpty(t, s.ID)

	var nilScreen *Screen
	require.False(t, nilScreen.Send("anything"))
}

func TestSplit_FindReturnsTopMostScreen(t *testing.T) {
	split := NewSplit("main", nil)
	sidebar := split.NewStack("sidebar")
	split.SetSidebar(sidebar, false, nil)
	sidebar.SetRoot(NewScreen("HomeScreen", nil), false, nil)

	detail := split.NewStack("detail")
	split.SetDetail(detail, false, nil)
	first := NewScreen("RoomScreen", nil).With("room", "a")
	second := NewScreen("RoomScreen", nil).With("room", "b")
	detail.SetRoot(first, false, nil)
	detail.Push(second, false, nil)
	split.SetSheet(NewScreen("SettingsScreen", nil), false, nil)

	kinds := make([]string, 0, 4)
	for _, s := range split.Screens() {
		kinds = append(kinds, s.Kind)
	}
	require.Equal(t, []string{"HomeScreen", "RoomScreen", "RoomScreen", "SettingsScreen"}, kinds)
	require.Equal(t, "b", split.Find("RoomScreen").Attr("room"))
	require.Nil(t, split.Find("CallScreen"))
}

func TestSplit_ScreensIncludesDetachedStackSheet(t *testing.T) {
	split := NewSplit("main", nil)
	stack := NewStack("loose")
	stack.SetRoot(NewScreen("RootScreen", nil), false, nil)
	stack.SetSheet(NewScreen("SheetScreen", nil), false, nil)
	split.SetOverlay(stack, false, nil)

	require.Equal(t, "SheetScreen", split.Screens()[1].Kind)
}
