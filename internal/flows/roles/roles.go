// Package roles is the room roles and permissions flow.
package roles

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// Role is the member role being edited.
type Role string

const (
	Administrators Role = "administrators"
	Moderators     Role = "moderators"
)

type StateKind int

const (
	Initial StateKind = iota
	RolesScreen
	ChangingRoles
	ChangingPermissions
)

type State struct {
	Kind StateKind
	Mode Role
}

func (s State) String() string {
	switch s.Kind {
	case RolesScreen:
		return "rolesAndPermissionsScreen"
	case ChangingRoles:
		return "changingRoles(" + string(s.Mode) + ")"
	case ChangingPermissions:
		return "changingPermissions"
	}
	return "initial"
}

type EventKind int

const (
	EventStart EventKind = iota
	EventChangeRoles
	EventFinishedChangingRoles
	EventChangePermissions
	EventFinishedChangingPermissions
)

type Event struct {
	Kind EventKind
	Role Role
}

func (e Event) String() string {
	names := [...]string{"start", "changeRoles", "finishedChangingRoles", "changePermissions", "finishedChangingPermissions"}
	if e.Role != "" {
		return names[e.Kind] + "(" + string(e.Role) + ")"
	}
	return names[e.Kind]
}

// Action is reported when the roles screen is popped.
type Action int

const Complete Action = 0

func (Action) String() string { return "complete" }

// Screen actions.
type (
	EditRoles       struct{ Role Role }
	EditPermissions struct{ Group string }
	EditorDone      struct{}
)

// Flow pushes the roles and permissions screens for one room.
type Flow struct {
	flow.Base[Action]
	roomID  string
	stack   *navigation.Stack
	machine *statemachine.Machine[State, Event, flow.EventInfo]
}

func New(params *flow.Parameters, roomID string, stack *navigation.Stack) *Flow {
	f := &Flow{
		Base:    flow.NewBase[Action]("RolesAndPermissionsFlow", params),
		roomID:  roomID,
		stack:   stack,
		machine: flow.NewMachine[State, Event](params, "RolesAndPermissionsFlow", State{Kind: Initial}),
	}
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(Event{Kind: EventStart}, flow.EventInfo{Animated: animated})
}

// HandleAppRoute clears the flow: no route targets it.
func (f *Flow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

func (f *Flow) ClearRoute(animated bool) {
	switch f.machine.State().Kind {
	case RolesScreen:
		f.stack.Pop(animated)
	case ChangingRoles, ChangingPermissions:
		f.stack.Pop(animated)
		f.stack.Pop(animated)
	}
}

func (f *Flow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func on(from StateKind, ev EventKind, target func(Event) statemachine.Target[State]) statemachine.Rule[State, Event] {
	return func(s State, e Event) (statemachine.Target[State], bool) {
		if s.Kind != from || e.Kind != ev {
			return statemachine.Target[State]{}, false
		}
		return target(e), true
	}
}

func (f *Flow) configure() {
	type transition = statemachine.Transition[State, Event, flow.EventInfo]
	restore := func(Event) statemachine.Target[State] { return statemachine.Restore[State]() }

	f.machine.AddRoute(on(Initial, EventStart, func(Event) statemachine.Target[State] {
		return statemachine.Set(State{Kind: RolesScreen})
	}), func(t transition) { f.presentRolesScreen(t.Payload.Animated) })

	f.machine.AddRoute(on(RolesScreen, EventChangeRoles, func(e Event) statemachine.Target[State] {
		return statemachine.Push(State{Kind: ChangingRoles, Mode: e.Role})
	}), func(t transition) { f.presentEditor("ChangeRolesScreen", string(t.To.Mode), EventFinishedChangingRoles) })
	f.machine.AddRule(on(ChangingRoles, EventFinishedChangingRoles, restore))

	f.machine.AddRoute(on(RolesScreen, EventChangePermissions, func(Event) statemachine.Target[State] {
		return statemachine.Push(State{Kind: ChangingPermissions})
	}), func(transition) { f.presentEditor("ChangePermissionsScreen", "", EventFinishedChangingPermissions) })
	f.machine.AddRule(on(ChangingPermissions, EventFinishedChangingPermissions, restore))
}

func (f *Flow) presentRolesScreen(animated bool) {
	screen := navigation.NewScreen("RolesAndPermissionsScreen", func(action any) {
		switch a := action.(type) {
		case EditRoles:
			f.machine.TryEvent(Event{Kind: EventChangeRoles, Role: a.Role}, flow.EventInfo{Animated: true})
		case EditPermissions:
			f.machine.TryEvent(Event{Kind: EventChangePermissions}, flow.EventInfo{Animated: true})
		}
	}).With("room", f.roomID)
	f.stack.Push(screen, animated, func() { f.Emit(Complete) })
}

func (f *Flow) presentEditor(kind, mode string, finished EventKind) {
	screen := navigation.NewScreen(kind, func(action any) {
		if _, ok := action.(EditorDone); ok {
			f.stack.Pop(true)
		}
	}).With("room", f.roomID)
	if mode != "" {
		screen.Set("mode", mode)
	}
	f.stack.Push(screen, true, func() {
		f.machine.TryEvent(Event{Kind: finished}, flow.EventInfo{Animated: true})
	})
}
