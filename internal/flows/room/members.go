package room

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// MembersEntry selects the first screen of a members flow: the member list
// or the details of one member.
type MembersEntry struct {
	UserID string
}

func MembersList() MembersEntry { return MembersEntry{} }

func RoomMember(userID string) MembersEntry { return MembersEntry{UserID: userID} }

func (e MembersEntry) String() string {
	if e.UserID == "" {
		return "roomMembersList"
	}
	return "roomMember(" + e.UserID + ")"
}

type MembersStateKind int

const (
	MembersInitial MembersStateKind = iota
	MembersListScreen
	MemberDetailsScreen
	MemberUserProfile
	MembersInviteScreen
	MembersRoomFlow
)

type MembersState struct {
	Kind   MembersStateKind
	UserID string
	RoomID string
}

func (s MembersState) String() string {
	switch s.Kind {
	case MembersListScreen:
		return "roomMembersList"
	case MemberDetailsScreen:
		return fmt.Sprintf("roomMemberDetails(%s)", s.UserID)
	case MemberUserProfile:
		return fmt.Sprintf("userProfile(%s)", s.UserID)
	case MembersInviteScreen:
		return "inviteUsersScreen"
	case MembersRoomFlow:
		return fmt.Sprintf("roomFlow(%s)", s.RoomID)
	}
	return "initial"
}

type MembersEventKind int

const (
	MembersPresentList MembersEventKind = iota
	MembersPresentDetails
	MembersDismissedDetails
	MembersPresentProfile
	MembersDismissedProfile
	MembersPresentInvite
	MembersDismissedInvite
	MembersStartRoomFlow
	MembersStopRoomFlow
)

type MembersEvent struct {
	Kind   MembersEventKind
	UserID string
	RoomID string
}

func (e MembersEvent) String() string {
	names := [...]string{
		"presentRoomMembersList", "presentRoomMemberDetails", "dismissedRoomMemberDetails",
		"presentUserProfile", "dismissedUserProfile", "presentInviteUsersScreen",
		"dismissedInviteUsersScreen", "startRoomFlow", "stopRoomFlow",
	}
	switch {
	case e.UserID != "":
		return names[e.Kind] + "(" + e.UserID + ")"
	case e.RoomID != "":
		return names[e.Kind] + "(" + e.RoomID + ")"
	}
	return names[e.Kind]
}

// Members screen actions.
type (
	ShowMember     struct{ UserID string }
	OpenDirectChat struct{ RoomID string }
	ShowProfile    struct{ UserID string }
	InviteMembers  struct{}
)

// MembersOption configures NewMembersFlow.
type MembersOption func(*MembersFlow)

// WithMemberSpaceFlows is passed on to the room flows opened from a
// member's details.
func WithMemberSpaceFlows(factory SpaceFlowFactory) MembersOption {
	return func(f *MembersFlow) { f.newSpaceFlow = factory }
}

type membersTransition = statemachine.Transition[MembersState, MembersEvent, flow.EventInfo]

// MembersFlow shows a room's member list and member details on the room's
// stack. Dismissing the screen it was entered on finishes it.
type MembersFlow struct {
	flow.Base[flow.Action]
	roomID       string
	stack        *navigation.Stack
	machine      *statemachine.Machine[MembersState, MembersEvent, flow.EventInfo]
	newSpaceFlow SpaceFlowFactory

	baseDepth int
	details   *navigation.Screen
	sheet     *navigation.Screen
	room      *Flow
	finished  bool
}

func NewMembersFlow(params *flow.Parameters, roomID string, stack *navigation.Stack, opts ...MembersOption) *MembersFlow {
	name := "RoomMembersFlow[" + roomID + "]"
	f := &MembersFlow{
		Base:    flow.NewBase[flow.Action](name, params),
		roomID:  roomID,
		stack:   stack,
		machine: flow.NewMachine[MembersState, MembersEvent](params, name, MembersState{Kind: MembersInitial}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.configure()
	return f
}

func (f *MembersFlow) State() MembersState { return f.machine.State() }

// Start presents the member list.
func (f *MembersFlow) Start(animated bool) {
	f.Present(MembersList(), animated)
}

// Present enters the flow on entry.
func (f *MembersFlow) Present(entry MembersEntry, animated bool) {
	f.baseDepth = f.stack.Count()
	if entry.UserID == "" {
		f.raise(MembersEvent{Kind: MembersPresentList}, animated)
		return
	}
	f.raise(MembersEvent{Kind: MembersPresentDetails, UserID: entry.UserID}, animated)
}

// HandleAppRoute shows the member a member details route names.
func (f *MembersFlow) HandleAppRoute(r route.Route, animated bool) {
	if r.Kind != route.KindRoomMemberDetails {
		log.Debug(log.CatFlow, "route not handled by members flow", "flow", f.Name, "route", r.String())
		return
	}
	if f.machine.State().Kind == MembersRoomFlow {
		f.raise(MembersEvent{Kind: MembersStopRoomFlow}, false)
	}
	f.raise(MembersEvent{Kind: MembersPresentDetails, UserID: r.UserID}, animated)
}

// ClearRoute pops every screen the flow pushed and reports finished.
func (f *MembersFlow) ClearRoute(animated bool) {
	if f.finished || f.machine.State().Kind == MembersInitial {
		return
	}
	f.finished = true
	if f.room != nil {
		f.room.ClearRoute(false)
		f.room.Detach()
		f.room = nil
	}
	if f.sheet != nil && f.stack.Sheet() == f.sheet {
		f.stack.SetSheet(nil, animated, nil)
	}
	f.stack.PopTo(f.baseDepth, animated)
	f.Emit(flow.Finished())
}

func (f *MembersFlow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.room != nil {
		s.Children = append(s.Children, f.room.Snapshot())
	}
	return s
}

func (f *MembersFlow) raise(e MembersEvent, animated bool) bool {
	return f.machine.TryEvent(e, flow.EventInfo{Animated: animated})
}

func membersOn(ev MembersEventKind, from []MembersStateKind, to func(MembersState, MembersEvent) statemachine.Target[MembersState]) statemachine.Rule[MembersState, MembersEvent] {
	return func(s MembersState, e MembersEvent) (statemachine.Target[MembersState], bool) {
		if e.Kind != ev || (len(from) > 0 && !slices.Contains(from, s.Kind)) {
			return statemachine.Target[MembersState]{}, false
		}
		return to(s, e), true
	}
}

func (f *MembersFlow) configure() {
	type target = statemachine.Target[MembersState]
	restore := func(MembersState, MembersEvent) target { return statemachine.Restore[MembersState]() }

	f.machine.AddRoute(membersOn(MembersPresentList, []MembersStateKind{MembersInitial}, func(MembersState, MembersEvent) target {
		return statemachine.Set(MembersState{Kind: MembersListScreen})
	}), func(t membersTransition) { f.presentList(t.Payload.Animated) })

	f.machine.AddRoute(membersOn(MembersPresentDetails, []MembersStateKind{MembersInitial, MembersListScreen, MemberDetailsScreen, MemberUserProfile},
		func(_ MembersState, e MembersEvent) target {
			return statemachine.Push(MembersState{Kind: MemberDetailsScreen, UserID: e.UserID})
		}), func(t membersTransition) { f.presentDetails(t.To, t.Payload.Animated) })
	f.machine.AddRule(membersOn(MembersDismissedDetails, []MembersStateKind{MemberDetailsScreen}, restore))

	f.machine.AddRoute(membersOn(MembersPresentProfile, []MembersStateKind{MemberDetailsScreen}, func(_ MembersState, e MembersEvent) target {
		return statemachine.Replace(MembersState{Kind: MemberUserProfile, UserID: e.UserID})
	}), func(t membersTransition) { f.replaceWithProfile(t.To, t.Payload.Animated) })
	f.machine.AddRule(membersOn(MembersDismissedProfile, []MembersStateKind{MemberUserProfile}, restore))

	f.machine.AddRoute(membersOn(MembersPresentInvite, []MembersStateKind{MembersListScreen}, func(MembersState, MembersEvent) target {
		return statemachine.Push(MembersState{Kind: MembersInviteScreen})
	}), func(t membersTransition) { f.presentInvite(t.To, t.Payload.Animated) })
	f.machine.AddRule(membersOn(MembersDismissedInvite, []MembersStateKind{MembersInviteScreen}, restore))

	f.machine.AddRoute(membersOn(MembersStartRoomFlow, nil, func(_ MembersState, e MembersEvent) target {
		return statemachine.Push(MembersState{Kind: MembersRoomFlow, RoomID: e.RoomID})
	}), func(t membersTransition) { f.startRoomFlow(t.To.RoomID, t.Payload.Animated) })
	f.machine.AddRoute(membersOn(MembersStopRoomFlow, []MembersStateKind{MembersRoomFlow}, restore),
		func(membersTransition) {
			if f.room != nil {
				f.room.ClearRoute(false)
				f.room.Detach()
				f.room = nil
			}
		})
}

// popped handles the user dismissing the screen for s. Leaving the entry
// screen finishes the flow.
func (f *MembersFlow) popped(s MembersState, dismissed MembersEventKind) func() {
	return func() {
		if f.finished || f.machine.State() != s {
			return
		}
		if prev, ok := f.machine.Previous(); !ok || prev.Kind == MembersInitial {
			f.finished = true
			f.Emit(flow.Finished())
			return
		}
		f.raise(MembersEvent{Kind: dismissed}, true)
	}
}

func (f *MembersFlow) presentList(animated bool) {
	screen := navigation.NewScreen("RoomMembersListScreen", f.handleAction).With("room", f.roomID)
	f.stack.Push(screen, animated, func() {
		if !f.finished {
			f.finished = true
			f.Emit(flow.Finished())
		}
	})
}

func (f *MembersFlow) presentDetails(s MembersState, animated bool) {
	screen := navigation.NewScreen("RoomMemberDetailsScreen", f.handleAction).
		With("room", f.roomID).With("user", s.UserID)
	f.details = screen
	f.stack.Push(screen, animated, f.popped(s, MembersDismissedDetails))
}

// replaceWithProfile swaps the member details for the user's profile once
// the details screen has had time to settle.
func (f *MembersFlow) replaceWithProfile(s MembersState, animated bool) {
	details := f.details
	f.Params.After(f.Life, "members.profile", f.Params.Delays.MemberProfileReplace, func() {
		if f.machine.State() != s {
			return
		}
		if details != nil {
			f.stack.Remove(details, false)
		}
		screen := navigation.NewScreen("UserProfileScreen", f.handleAction).With("user", s.UserID)
		f.stack.Push(screen, animated, f.popped(s, MembersDismissedProfile))
	})
}

func (f *MembersFlow) presentInvite(s MembersState, animated bool) {
	var screen *navigation.Screen
	screen = navigation.NewScreen("InviteUsersScreen", func(action any) {
		switch a := action.(type) {
		case ScreenAction:
			if a == Back && f.stack.Sheet() == screen {
				f.stack.SetSheet(nil, true, nil)
			}
		case InviteUsers:
			log.Info(log.CatFlow, "inviting users", "room", f.roomID, "count", len(a.UserIDs), "users", strings.Join(a.UserIDs, ","))
			if f.stack.Sheet() == screen {
				f.stack.SetSheet(nil, true, nil)
			}
		}
	}).With("room", f.roomID)
	f.sheet = screen
	f.stack.SetSheet(screen, animated, func() {
		if f.sheet == screen {
			f.sheet = nil
		}
		if f.machine.State() == s {
			f.raise(MembersEvent{Kind: MembersDismissedInvite}, true)
		}
	})
}

func (f *MembersFlow) startRoomFlow(roomID string, animated bool) {
	room := New(f.Params, roomID, f.stack, AsChild(), WithSpaceFlows(f.newSpaceFlow))
	room.Actions().Subscribe(func(a flow.Action) {
		if f.room != room {
			return
		}
		switch a.Kind {
		case flow.ActionFinished:
			if f.machine.State().Kind == MembersRoomFlow {
				f.raise(MembersEvent{Kind: MembersStopRoomFlow}, true)
			}
		case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
			f.Emit(a)
		}
	})
	f.room = room
	room.Start(animated)
}

func (f *MembersFlow) handleAction(action any) {
	switch a := action.(type) {
	case ShowMember:
		f.raise(MembersEvent{Kind: MembersPresentDetails, UserID: a.UserID}, true)
	case ShowProfile:
		f.raise(MembersEvent{Kind: MembersPresentProfile, UserID: a.UserID}, true)
	case InviteMembers:
		f.raise(MembersEvent{Kind: MembersPresentInvite}, true)
	case OpenDirectChat:
		f.raise(MembersEvent{Kind: MembersStartRoomFlow, RoomID: a.RoomID}, true)
	case VerifyUser:
		f.Emit(flow.VerifyUser(a.UserID))
	case ScreenAction:
		switch a {
		case Back:
			f.stack.Pop(true)
		case StartCall:
			f.Emit(flow.PresentCallScreen(f.roomID))
		}
	}
}
