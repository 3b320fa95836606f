// Package space coordinates a space: its room list, the join screen for
// spaces the user has not joined yet, and the room, members, settings and
// nested space flows started from it.
package space

import (
	"context"
	"strings"

	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type (
	flowInfo   = flow.EventInfo
	transition = statemachine.Transition[State, Event, flowInfo]
)

// Space screen actions.
type (
	SelectRoom  struct{ RoomID string }
	SelectSpace struct{ SpaceID string }
)

// ScreenAction is a payload-free action sent to the space, join or
// settings screen.
type ScreenAction int

const (
	Back ScreenAction = iota
	Join
	ShowMembers
	ShowSettings
	Left
)

// Option configures New.
type Option func(*Flow)

// AsChild makes the flow push onto the stack instead of owning its root.
func AsChild() Option {
	return func(f *Flow) { f.isChild = true }
}

// WithSpaceInfo seeds the flow with a known summary. Without it Start
// fetches one to decide between the space and the join screen.
func WithSpaceInfo(info session.RoomInfo) Option {
	return func(f *Flow) { f.info = info }
}

// Factory returns the constructor room flows use to hand over to a space.
func Factory(params *flow.Parameters) room.SpaceFlowFactory {
	return func(spaceID string, stack *navigation.Stack) flow.Child[flow.Action] {
		return New(params, spaceID, stack, AsChild())
	}
}

// Flow is the space flow coordinator. All methods run on the coordination
// loop.
type Flow struct {
	flow.Base[flow.Action]
	spaceID string
	isChild bool
	stack   *navigation.Stack
	machine *statemachine.Machine[State, Event, flowInfo]
	info    session.RoomInfo

	base        *navigation.Screen
	spaceScreen *navigation.Screen
	settings    *navigation.Screen
	finished    bool

	child   *Flow
	room    *room.Flow
	members *room.MembersFlow
}

func New(params *flow.Parameters, spaceID string, stack *navigation.Stack, opts ...Option) *Flow {
	name := "SpaceFlow[" + spaceID + "]"
	f := &Flow{
		Base:    flow.NewBase[flow.Action](name, params),
		spaceID: spaceID,
		stack:   stack,
		machine: flow.NewMachine[State, Event](params, name, State{Kind: Initial}),
	}
	for _, opt := range opts {
		opt(f)
	}
	addRules(f.machine)
	f.machine.AddHandler(f.handle)
	return f
}

func (f *Flow) SpaceID() string { return f.spaceID }

func (f *Flow) State() State { return f.machine.State() }

// Start presents the space, or its join screen when the user is not a
// member.
func (f *Flow) Start(animated bool) {
	if f.machine.State().Kind != Initial {
		return
	}
	if f.info.ID != "" {
		f.startWith(animated)
		return
	}
	spaceID := f.spaceID
	resolver := f.Params.Resolver
	f.Params.Go(f.Life, "space.resolve", func(ctx context.Context) func() {
		info, err := resolver.RoomSummary(ctx, spaceID)
		return func() {
			if err != nil {
				log.ErrorErr(log.CatFlow, "space summary unavailable", err, "space", spaceID)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				f.finish()
				return
			}
			f.info = info
			f.startWith(animated)
		}
	})
}

func (f *Flow) startWith(animated bool) {
	if f.info.Membership == session.MembershipJoined {
		f.raise(Event{Kind: EventStart}, animated)
		return
	}
	f.raise(Event{Kind: EventStartUnjoined}, animated)
}

// HandleAppRoute clears the flow; no route targets a space's screens.
func (f *Flow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

// ClearRoute stops the active nested flow, then dismisses the space and
// reports finished.
func (f *Flow) ClearRoute(animated bool) {
	switch f.machine.State().Kind {
	case Initial:
		return
	case JoinSpace, Space, LeftSpace:
		f.dismiss(animated)
	case PresentingChild:
		f.raise(Event{Kind: EventStopChildFlow}, animated)
		f.ClearRoute(animated)
	case RoomFlow:
		f.raise(Event{Kind: EventStopRoomFlow}, animated)
		f.ClearRoute(animated)
	case MembersFlow:
		f.raise(Event{Kind: EventStopMembersFlow}, animated)
		f.ClearRoute(animated)
	case SettingsFlow:
		f.raise(Event{Kind: EventStopSettingsFlow}, animated)
		f.ClearRoute(animated)
	}
}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.child != nil {
		s.Children = append(s.Children, f.child.Snapshot())
	}
	if f.room != nil {
		s.Children = append(s.Children, f.room.Snapshot())
	}
	if f.members != nil {
		s.Children = append(s.Children, f.members.Snapshot())
	}
	return s
}

func (f *Flow) raise(e Event, animated bool) bool {
	return f.machine.TryEvent(e, flowInfo{Animated: animated})
}

func (f *Flow) handle(t transition) {
	animated := t.Payload.Animated
	switch t.Event.Kind {
	case EventStart, EventJoinedSpace:
		f.presentSpace(animated)
	case EventStartUnjoined:
		f.presentJoinSpace(animated)
	case EventLeftSpace:
		f.ClearRoute(animated)
	case EventStartChildFlow:
		if t.From.Kind == RoomFlow {
			f.stopRoom()
		}
		f.startChild(t.Event.SpaceID, animated)
		f.selected(t.Event.SpaceID)
	case EventStopChildFlow:
		if f.child != nil {
			f.child.ClearRoute(false)
			f.child.Detach()
			f.child = nil
		}
		f.selected("")
	case EventStartRoomFlow:
		f.startRoom(t.Event.RoomID, animated)
		f.selected(t.Event.RoomID)
	case EventStopRoomFlow:
		f.stopRoom()
		f.selected("")
	case EventStartMembersFlow:
		f.startMembers(animated)
	case EventStopMembersFlow:
		if f.members != nil {
			f.members.ClearRoute(false)
			f.members.Detach()
			f.members = nil
		}
	case EventStartSettingsFlow:
		f.presentSettings(t.To, animated)
	case EventStopSettingsFlow:
		if f.settings != nil && f.stack.Contains(f.settings) {
			f.stack.Remove(f.settings, animated)
		}
		f.settings = nil
	}
}

// selected marks the room or space opened from the space screen.
func (f *Flow) selected(id string) {
	if f.spaceScreen != nil {
		f.spaceScreen.Set("selected", id)
	}
}

func (f *Flow) finish() {
	if f.finished {
		return
	}
	f.finished = true
	f.Emit(flow.Finished())
}

// presentBase anchors the flow on screen, replacing the previous base.
func (f *Flow) presentBase(screen *navigation.Screen, animated bool) {
	prev := f.base
	f.base = screen
	onDismiss := func() {
		if f.base == screen {
			f.base = nil
			f.finish()
		}
	}
	if !f.isChild {
		f.stack.SetRoot(screen, animated, onDismiss)
		return
	}
	if prev != nil && f.stack.Contains(prev) {
		f.stack.Remove(prev, false)
	}
	f.stack.Push(screen, animated, onDismiss)
}

func (f *Flow) dismiss(animated bool) {
	base := f.base
	f.base, f.spaceScreen = nil, nil
	if base != nil {
		if !f.isChild {
			if f.stack.Root() == base {
				f.stack.SetRoot(nil, animated, nil)
			}
		} else if f.stack.Contains(base) {
			f.stack.Remove(base, animated)
		}
	}
	f.finish()
}

func (f *Flow) presentSpace(animated bool) {
	screen := navigation.NewScreen("SpaceScreen", f.handleSpaceAction).
		With("space", f.spaceID).
		With("name", f.info.Name).
		With("children", strings.Join(f.info.Children, ","))
	f.spaceScreen = screen
	f.presentBase(screen, animated)
}

func (f *Flow) presentJoinSpace(animated bool) {
	screen := navigation.NewScreen("JoinRoomScreen", func(action any) {
		switch action {
		case Join:
			f.join()
		case Back:
			f.ClearRoute(true)
		}
	}).With("room", f.spaceID).With("membership", f.info.Membership.String())
	f.presentBase(screen, animated)
}

func (f *Flow) join() {
	spaceID := f.spaceID
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "space.join", func(ctx context.Context) func() {
		info, err := f.Params.Client().JoinRoom(ctx, spaceID, nil)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				log.ErrorErr(log.CatFlow, "join failed", err, "space", spaceID)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				return
			}
			if !info.IsSpace {
				log.Warn(log.CatFlow, "joined room is not a space", "space", spaceID)
			}
			f.info = info
			f.raise(Event{Kind: EventJoinedSpace}, true)
		}
	})
}

func (f *Flow) handleSpaceAction(action any) {
	switch a := action.(type) {
	case SelectRoom:
		f.raise(Event{Kind: EventStartRoomFlow, RoomID: a.RoomID}, true)
	case SelectSpace:
		f.raise(Event{Kind: EventStartChildFlow, SpaceID: a.SpaceID}, true)
	case ScreenAction:
		switch a {
		case Back:
			f.ClearRoute(true)
		case ShowMembers:
			f.raise(Event{Kind: EventStartMembersFlow}, true)
		case ShowSettings:
			if !f.Params.Flags.Enabled(flags.FlagSpaceSettings) {
				log.Debug(log.CatFlow, "space settings disabled", "space", f.spaceID)
				return
			}
			f.raise(Event{Kind: EventStartSettingsFlow}, true)
		case Left:
			f.raise(Event{Kind: EventLeftSpace}, true)
		}
	}
}

func (f *Flow) presentSettings(s State, animated bool) {
	screen := navigation.NewScreen("SpaceSettingsScreen", func(action any) {
		switch action {
		case Back:
			f.raise(Event{Kind: EventStopSettingsFlow}, true)
		case ShowMembers:
			// Members open from the space screen; settings close first.
			f.raise(Event{Kind: EventStopSettingsFlow}, true)
			f.raise(Event{Kind: EventStartMembersFlow}, true)
		case Left:
			f.raise(Event{Kind: EventStopSettingsFlow}, true)
			f.raise(Event{Kind: EventLeftSpace}, true)
		}
	}).With("space", f.spaceID)
	f.settings = screen
	f.stack.Push(screen, animated, func() {
		if f.settings == screen && f.machine.State() == s {
			f.settings = nil
			f.raise(Event{Kind: EventStopSettingsFlow}, true)
		}
	})
}

// forward passes the actions a nested flow cannot handle itself on to the
// parent.
func (f *Flow) forward(a flow.Action) {
	switch a.Kind {
	case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
		f.Emit(a)
	}
}

func (f *Flow) startChild(spaceID string, animated bool) {
	child := New(f.Params, spaceID, f.stack, AsChild())
	child.Actions().Subscribe(func(a flow.Action) {
		if f.child != child {
			return
		}
		if a.Kind == flow.ActionFinished {
			if f.machine.State() == (State{Kind: PresentingChild, SpaceID: spaceID}) {
				f.raise(Event{Kind: EventStopChildFlow}, true)
			}
			return
		}
		f.forward(a)
	})
	f.child = child
	child.Start(animated)
}

func (f *Flow) startRoom(roomID string, animated bool) {
	rf := room.New(f.Params, roomID, f.stack, room.AsChild(), room.WithSpaceFlows(Factory(f.Params)))
	rf.Actions().Subscribe(func(a flow.Action) {
		if f.room != rf {
			return
		}
		switch a.Kind {
		case flow.ActionFinished:
			if f.machine.State() == (State{Kind: RoomFlow, RoomID: roomID}) {
				f.raise(Event{Kind: EventStopRoomFlow}, true)
			}
		case flow.ActionContinueWithSpaceFlow:
			f.raise(Event{Kind: EventStartChildFlow, SpaceID: a.RoomID}, true)
		default:
			f.forward(a)
		}
	})
	f.room = rf
	rf.Start(animated)
}

func (f *Flow) stopRoom() {
	if f.room == nil {
		return
	}
	f.room.ClearRoute(false)
	f.room.Detach()
	f.room = nil
}

func (f *Flow) startMembers(animated bool) {
	members := room.NewMembersFlow(f.Params, f.spaceID, f.stack, room.WithMemberSpaceFlows(Factory(f.Params)))
	members.Actions().Subscribe(func(a flow.Action) {
		if f.members != members {
			return
		}
		if a.Kind == flow.ActionFinished {
			if f.machine.State().Kind == MembersFlow {
				f.raise(Event{Kind: EventStopMembersFlow}, true)
			}
			return
		}
		f.forward(a)
	})
	f.members = members
	members.Start(animated)
}
