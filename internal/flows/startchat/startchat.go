// Package startchat is the flow behind the compose button: starting a
// direct chat, creating a room or space and inviting people to it.
package startchat

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// EntryKind is where the flow starts.
type EntryKind int

const (
	EntryStartChat EntryKind = iota
	EntryCreateSpace
	EntryCreateRoomInSpace
)

// EntryPoint selects the first screen. SpaceID is set for
// EntryCreateRoomInSpace.
type EntryPoint struct {
	Kind    EntryKind
	SpaceID string
}

func StartChat() EntryPoint { return EntryPoint{Kind: EntryStartChat} }

func CreateSpace() EntryPoint { return EntryPoint{Kind: EntryCreateSpace} }

func CreateRoomInSpace(spaceID string) EntryPoint {
	return EntryPoint{Kind: EntryCreateRoomInSpace, SpaceID: spaceID}
}

type State int

const (
	Initial State = iota
	StartChatScreen
	CreateRoomScreen
	RoomAvatarPicker
	InviteUsers
)

func (s State) String() string {
	return [...]string{"initial", "startChat", "createRoom", "roomAvatarPicker", "inviteUsers"}[s]
}

type Event int

const (
	EventStart Event = iota
	EventCreateRoom
	EventDismissedCreateRoom
	EventPresentAvatarPicker
	EventDismissedAvatarPicker
	EventCreatedRoom
)

func (e Event) String() string {
	return [...]string{"start", "createRoom", "dismissedCreateRoom", "presentRoomAvatarPicker",
		"dismissedRoomAvatarPicker", "createdRoom"}[e]
}

// ActionKind tells the parent what to do next.
type ActionKind int

const (
	ActionFinished ActionKind = iota
	ActionShowRoomDirectory
)

// Result is how a finished flow ended.
type Result int

const (
	ResultCancelled Result = iota
	ResultRoom
	ResultSpace
)

type Action struct {
	Kind   ActionKind
	Result Result
	RoomID string
}

func (a Action) String() string {
	if a.Kind == ActionShowRoomDirectory {
		return "showRoomDirectory"
	}
	switch a.Result {
	case ResultRoom:
		return fmt.Sprintf("finished(room %s)", a.RoomID)
	case ResultSpace:
		return fmt.Sprintf("finished(space %s)", a.RoomID)
	}
	return "finished(cancelled)"
}

// Screen actions.
type (
	StartChatAction int
	OpenRoom        struct{ RoomID string }
	CreateRoom      struct{ Name string }
	CreateAction    int
	AvatarSelected  struct{ Path string }
	AvatarCancelled struct{}
	SendInvites     struct{ UserIDs []string }
	SkipInvites     struct{}
)

const (
	StartChatClose StartChatAction = iota
	StartChatCreateRoom
	StartChatRoomDirectory
)

const (
	CreatePickAvatar CreateAction = iota
	CreateDismiss
)

// Flow runs the start chat screens on stack.
type Flow struct {
	flow.Base[Action]
	entry   EntryPoint
	creator RoomCreator
	stack   *navigation.Stack
	machine *statemachine.Machine[State, Event, flow.EventInfo]

	isSpace      bool
	avatarPath   string
	createScreen *navigation.Screen
	created      string
}

func New(params *flow.Parameters, entry EntryPoint, creator RoomCreator, stack *navigation.Stack) *Flow {
	f := &Flow{
		Base:    flow.NewBase[Action]("StartChatFlow", params),
		entry:   entry,
		creator: creator,
		stack:   stack,
		machine: flow.NewMachine[State, Event](params, "StartChatFlow", Initial),
	}
	// Pop callbacks of screens unwound by ClearRoute arrive late.
	f.machine.SetErrorHandler(statemachine.LogSameState[State, Event, flow.EventInfo]())
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

func (f *Flow) Start(animated bool) {
	info := flow.EventInfo{Animated: animated}
	switch f.entry.Kind {
	case EntryCreateSpace:
		f.isSpace = true
		f.machine.TryEvent(EventCreateRoom, info)
	case EntryCreateRoomInSpace:
		f.machine.TryEvent(EventCreateRoom, info)
	default:
		f.machine.TryEvent(EventStart, info)
	}
}

// HandleAppRoute clears the flow: no route targets it.
func (f *Flow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

func (f *Flow) ClearRoute(animated bool) {
	switch f.machine.State() {
	case StartChatScreen:
		f.stack.SetRoot(nil, animated, nil)
	case CreateRoomScreen:
		if f.createdAsRoot() {
			f.stack.SetRoot(nil, animated, nil)
			return
		}
		f.stack.Pop(animated)
		f.stack.SetRoot(nil, animated, nil)
	case RoomAvatarPicker:
		f.stack.SetSheet(nil, animated, nil)
		f.ClearRoute(animated)
	case InviteUsers:
		f.stack.PopToRoot(animated)
		f.stack.SetRoot(nil, animated, nil)
	}
}

func (f *Flow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *Flow) createdAsRoot() bool { return f.entry.Kind != EntryStartChat }

func (f *Flow) configure() {
	type transition = statemachine.Transition[State, Event, flow.EventInfo]

	f.machine.AddRoute(flow.On(Initial, EventStart, statemachine.Set(StartChatScreen)),
		func(t transition) { f.presentStartChat(t.Payload.Animated) })
	f.machine.AddRoute(flow.On(Initial, EventCreateRoom, statemachine.Set(CreateRoomScreen)),
		func(t transition) { f.presentCreateRoom(true, t.Payload.Animated) })
	f.machine.AddRoute(flow.On(StartChatScreen, EventCreateRoom, statemachine.Push(CreateRoomScreen)),
		func(t transition) { f.presentCreateRoom(false, t.Payload.Animated) })
	f.machine.AddRoute(flow.On(CreateRoomScreen, EventDismissedCreateRoom, statemachine.Restore[State]()),
		func(transition) { f.createScreen = nil })
	f.machine.AddRoute(flow.On(CreateRoomScreen, EventPresentAvatarPicker, statemachine.Push(RoomAvatarPicker)),
		func(t transition) { f.presentAvatarPicker(t.Payload.Animated) })
	f.machine.AddRule(flow.On(RoomAvatarPicker, EventDismissedAvatarPicker, statemachine.Restore[State]()))
	f.machine.AddRoute(flow.On(CreateRoomScreen, EventCreatedRoom, statemachine.Replace(InviteUsers)),
		func(t transition) { f.presentInviteUsers(t.Payload.Animated) })
}

func (f *Flow) presentStartChat(animated bool) {
	screen := navigation.NewScreen("StartChatScreen", func(action any) {
		switch a := action.(type) {
		case StartChatAction:
			switch a {
			case StartChatClose:
				f.Emit(Action{Kind: ActionFinished, Result: ResultCancelled})
			case StartChatCreateRoom:
				f.machine.TryEvent(EventCreateRoom, flow.EventInfo{Animated: true})
			case StartChatRoomDirectory:
				f.Emit(Action{Kind: ActionShowRoomDirectory})
			}
		case OpenRoom:
			f.Emit(Action{Kind: ActionFinished, Result: ResultRoom, RoomID: a.RoomID})
		}
	})
	f.stack.SetRoot(screen, animated, nil)
}

func (f *Flow) presentCreateRoom(isRoot, animated bool) {
	screen := navigation.NewScreen("CreateRoomScreen", func(action any) {
		switch a := action.(type) {
		case CreateRoom:
			f.create(a.Name)
		case CreateAction:
			switch a {
			case CreatePickAvatar:
				f.machine.TryEvent(EventPresentAvatarPicker, flow.EventInfo{Animated: true})
			case CreateDismiss:
				// Only offered when the screen is the root.
				f.Emit(Action{Kind: ActionFinished, Result: ResultCancelled})
			}
		}
	})
	if f.isSpace {
		screen.Set("kind", "space")
	}
	if f.entry.SpaceID != "" {
		screen.Set("space", f.entry.SpaceID)
	}
	f.createScreen = screen

	if isRoot {
		screen.Set("cancellable", "true")
		f.stack.SetRoot(screen, animated, nil)
		return
	}
	f.stack.Push(screen, animated, func() {
		f.machine.TryEvent(EventDismissedCreateRoom, flow.EventInfo{Animated: true})
	})
}

func (f *Flow) presentAvatarPicker(animated bool) {
	picker := navigation.NewStack("RoomAvatarPicker")
	picker.SetRoot(navigation.NewScreen("MediaPickerScreen", func(action any) {
		switch a := action.(type) {
		case AvatarSelected:
			f.stack.SetSheet(nil, true, nil)
			f.avatarPath = a.Path
			if f.createScreen != nil {
				f.createScreen.Set("avatar", a.Path)
			}
		case AvatarCancelled:
			f.stack.SetSheet(nil, true, nil)
		}
	}), false, nil)
	f.stack.SetSheet(picker, animated, func() {
		f.machine.TryEvent(EventDismissedAvatarPicker, flow.EventInfo{Animated: true})
	})
}

func (f *Flow) create(name string) {
	req := RoomRequest{Name: name, IsSpace: f.isSpace, ParentSpaceID: f.entry.SpaceID, AvatarPath: f.avatarPath}
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "startchat.create", func(ctx context.Context) func() {
		roomID, err := f.creator.CreateRoom(ctx, req)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				log.ErrorErr(log.CatFlow, "room creation failed", err, "name", name)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				return
			}
			f.created = roomID
			f.machine.TryEvent(EventCreatedRoom, flow.EventInfo{Animated: true})
		}
	})
}

func (f *Flow) presentInviteUsers(animated bool) {
	screen := navigation.NewScreen("InviteUsersScreen", func(action any) {
		switch a := action.(type) {
		case SendInvites:
			f.invite(a.UserIDs)
		case SkipInvites:
			f.finishCreated()
		}
	}).With("room", f.created).With("skippable", "true")
	f.stack.Push(screen, animated, nil)
}

func (f *Flow) invite(userIDs []string) {
	roomID := f.created
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "startchat.invite", func(ctx context.Context) func() {
		err := session.InviteAll(ctx, f.Params.Client(), roomID, userIDs)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			var inviteErr *session.InviteError
			if errors.As(err, &inviteErr) {
				log.ErrorErr(log.CatFlow, "some invites failed", err)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
			}
			f.finishCreated()
		}
	})
}

func (f *Flow) finishCreated() {
	result := ResultRoom
	if f.isSpace {
		result = ResultSpace
	}
	f.Emit(Action{Kind: ActionFinished, Result: result, RoomID: f.created})
}
