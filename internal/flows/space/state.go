package space

import (
	"fmt"

	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	JoinSpace
	Space
	PresentingChild
	RoomFlow
	MembersFlow
	SettingsFlow
	LeftSpace
)

func (k StateKind) String() string {
	names := [...]string{"initial", "joinSpace", "space", "presentingChild", "roomFlow", "membersFlow", "settingsFlow", "leftSpace"}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// State is the space flow's recorded state. SpaceID is set for
// PresentingChild, RoomID for RoomFlow.
type State struct {
	Kind    StateKind
	SpaceID string
	RoomID  string
}

func (s State) String() string {
	switch s.Kind {
	case PresentingChild:
		return fmt.Sprintf("presentingChild(%s)", s.SpaceID)
	case RoomFlow:
		return fmt.Sprintf("roomFlow(%s)", s.RoomID)
	}
	return s.Kind.String()
}

type EventKind int

const (
	EventStart EventKind = iota
	EventStartUnjoined
	EventJoinedSpace
	EventLeftSpace
	EventStartChildFlow
	EventStopChildFlow
	EventStartRoomFlow
	EventStopRoomFlow
	EventStartMembersFlow
	EventStopMembersFlow
	EventStartSettingsFlow
	EventStopSettingsFlow
)

func (k EventKind) String() string {
	names := [...]string{
		"start", "startUnjoined", "joinedSpace", "leftSpace",
		"startChildFlow", "stopChildFlow", "startRoomFlow", "stopRoomFlow",
		"startMembersFlow", "stopMembersFlow", "startSettingsFlow", "stopSettingsFlow",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

type Event struct {
	Kind    EventKind
	SpaceID string
	RoomID  string
}

func (e Event) String() string {
	switch e.Kind {
	case EventStartChildFlow:
		return fmt.Sprintf("startChildFlow(%s)", e.SpaceID)
	case EventStartRoomFlow:
		return fmt.Sprintf("startRoomFlow(%s)", e.RoomID)
	}
	return e.Kind.String()
}

type (
	rule   = statemachine.Rule[State, Event]
	target = statemachine.Target[State]
)

func on(ev EventKind, from StateKind, to func(Event) target) rule {
	return func(s State, e Event) (target, bool) {
		if e.Kind != ev || s.Kind != from {
			return target{}, false
		}
		return to(e), true
	}
}

func set(kind StateKind) func(Event) target {
	return func(Event) target { return statemachine.Set(State{Kind: kind}) }
}

func push(kind StateKind) func(Event) target {
	return func(Event) target { return statemachine.Push(State{Kind: kind}) }
}

func restore(Event) target { return statemachine.Restore[State]() }

func addRules(m *statemachine.Machine[State, Event, flowInfo]) {
	m.AddRule(on(EventStart, Initial, set(Space)))
	m.AddRule(on(EventStartUnjoined, Initial, set(JoinSpace)))
	m.AddRule(on(EventJoinedSpace, JoinSpace, set(Space)))
	m.AddRule(on(EventLeftSpace, Space, set(LeftSpace)))

	// A room picked from the space can turn out to be a space itself; its
	// flow is then replaced by a child space flow.
	m.AddRule(on(EventStartChildFlow, Space, func(e Event) target {
		return statemachine.Push(State{Kind: PresentingChild, SpaceID: e.SpaceID})
	}))
	m.AddRule(on(EventStartChildFlow, RoomFlow, func(e Event) target {
		return statemachine.Replace(State{Kind: PresentingChild, SpaceID: e.SpaceID})
	}))
	m.AddRule(on(EventStopChildFlow, PresentingChild, restore))

	m.AddRule(on(EventStartRoomFlow, Space, func(e Event) target {
		return statemachine.Push(State{Kind: RoomFlow, RoomID: e.RoomID})
	}))
	m.AddRule(on(EventStopRoomFlow, RoomFlow, restore))

	m.AddRule(on(EventStartMembersFlow, Space, push(MembersFlow)))
	m.AddRule(on(EventStopMembersFlow, MembersFlow, restore))

	m.AddRule(on(EventStartSettingsFlow, Space, push(SettingsFlow)))
	m.AddRule(on(EventStopSettingsFlow, SettingsFlow, restore))
}
