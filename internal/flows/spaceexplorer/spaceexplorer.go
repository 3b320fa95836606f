// Package spaceexplorer is the spaces tab: a list of the user's spaces in
// the sidebar and the selected space's flow in the detail column.
package spaceexplorer

import (
	"fmt"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/space"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	SpaceList
)

type State struct {
	Kind     StateKind
	Selected string
}

func (s State) String() string {
	if s.Kind == Initial {
		return "initial"
	}
	return fmt.Sprintf("spaceList(%s)", s.Selected)
}

type EventKind int

const (
	EventStart EventKind = iota
	EventSelectSpace
	EventDeselectSpace
)

type Event struct {
	Kind    EventKind
	SpaceID string
}

func (e Event) String() string {
	switch e.Kind {
	case EventStart:
		return "start"
	case EventSelectSpace:
		return "selectSpace(" + e.SpaceID + ")"
	}
	return "deselectSpace"
}

// Space list screen actions.
type (
	SelectSpace  struct{ SpaceID string }
	ShowSettings struct{}
)

type transition = statemachine.Transition[State, Event, flow.EventInfo]

// Flow owns the sidebar and detail stacks of the spaces tab.
type Flow struct {
	flow.Base[flow.Action]
	split   *navigation.Split
	sidebar *navigation.Stack
	detail  *navigation.Stack
	machine *statemachine.Machine[State, Event, flow.EventInfo]
	list    *navigation.Screen
	space   *space.Flow
}

func New(params *flow.Parameters, split *navigation.Split) *Flow {
	f := &Flow{
		Base:    flow.NewBase[flow.Action]("SpaceExplorerFlow", params),
		split:   split,
		sidebar: split.NewStack("SpaceExplorerSidebar"),
		detail:  split.NewStack("SpaceExplorerDetail"),
		machine: flow.NewMachine[State, Event](params, "SpaceExplorerFlow", State{Kind: Initial}),
	}

	f.machine.AddRoute(func(s State, e Event) (statemachine.Target[State], bool) {
		return statemachine.Set(State{Kind: SpaceList}), s.Kind == Initial && e.Kind == EventStart
	}, func(t transition) { f.presentSpaceList(t.Payload.Animated) })

	f.machine.AddRoute(func(s State, e Event) (statemachine.Target[State], bool) {
		if s.Kind != SpaceList || e.Kind != EventSelectSpace {
			return statemachine.Target[State]{}, false
		}
		return statemachine.Set(State{Kind: SpaceList, Selected: e.SpaceID}), true
	}, func(t transition) { f.startSpaceFlow(t.Event.SpaceID, t.Payload.Animated) })

	f.machine.AddRoute(func(s State, e Event) (statemachine.Target[State], bool) {
		return statemachine.Set(State{Kind: SpaceList}), s.Kind == SpaceList && s.Selected != "" && e.Kind == EventDeselectSpace
	}, func(t transition) {
		// The detail column must be emptied or the tab bar stays hidden.
		f.split.SetDetail(nil, t.Payload.Animated, nil)
		f.releaseSpace()
		f.list.Set("selected", "")
	})
	return f
}

func (f *Flow) State() State { return f.machine.State() }

// Sidebar is the stack holding the space list.
func (f *Flow) Sidebar() *navigation.Stack { return f.sidebar }

// Detail is the stack the selected space presents on.
func (f *Flow) Detail() *navigation.Stack { return f.detail }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(Event{Kind: EventStart}, flow.EventInfo{Animated: animated})
}

// HandleAppRoute clears the flow; no route targets the spaces tab yet.
func (f *Flow) HandleAppRoute(r route.Route, animated bool) {
	log.Debug(log.CatFlow, "route not handled by space explorer", "route", r.String())
	f.ClearRoute(animated)
}

// ClearRoute leaves the space list as it is.
func (f *Flow) ClearRoute(bool) {}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.space != nil {
		s.Children = append(s.Children, f.space.Snapshot())
	}
	return s
}

func (f *Flow) presentSpaceList(animated bool) {
	f.list = navigation.NewScreen("SpaceListScreen", func(action any) {
		switch a := action.(type) {
		case SelectSpace:
			f.machine.TryEvent(Event{Kind: EventSelectSpace, SpaceID: a.SpaceID}, flow.EventInfo{Animated: true})
		case ShowSettings:
			f.Emit(flow.ShowSettings())
		}
	})
	f.sidebar.SetRoot(f.list, false, nil)
	f.split.SetSidebar(f.sidebar, animated, nil)
}

func (f *Flow) startSpaceFlow(spaceID string, animated bool) {
	f.releaseSpace()

	sf := space.New(f.Params, spaceID, f.detail)
	sf.Actions().Subscribe(func(a flow.Action) {
		if f.space != sf {
			return
		}
		switch a.Kind {
		case flow.ActionFinished:
			f.machine.TryEvent(Event{Kind: EventDeselectSpace}, flow.EventInfo{Animated: true})
		case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
			f.Emit(a)
		}
	})
	f.space = sf

	if f.split.Detail() != navigation.Module(f.detail) {
		f.split.SetDetail(f.detail, animated, nil)
	}
	sf.Start(animated)
	f.list.Set("selected", spaceID)
}

func (f *Flow) releaseSpace() {
	if f.space == nil {
		return
	}
	f.space.ClearRoute(false)
	f.space.Detach()
	f.space = nil
}
