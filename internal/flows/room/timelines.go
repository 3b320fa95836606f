package room

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type TimelineState int

const (
	TimelineInitial TimelineState = iota
	TimelineShown
	TimelineDismissed
)

func (s TimelineState) String() string {
	return [...]string{"initial", "timeline", "complete"}[s]
}

type TimelineEvent int

const (
	TimelineStart TimelineEvent = iota
	TimelineDismiss
)

func (e TimelineEvent) String() string {
	return [...]string{"start", "dismiss"}[e]
}

// TimelineFlow shows one of a room's secondary timelines. The pinned events
// timeline comes up as a sheet with its own stack, the media gallery is
// pushed.
type TimelineFlow struct {
	flow.Base[flow.Action]
	kind    session.TimelineKind
	roomID  string
	stack   *navigation.Stack
	machine *statemachine.Machine[TimelineState, TimelineEvent, flow.EventInfo]
	screen  *navigation.Screen
	sheet   *navigation.Stack
}

func NewPinnedEventsFlow(params *flow.Parameters, roomID string, stack *navigation.Stack) *TimelineFlow {
	return newTimelineFlow(params, "PinnedEventsTimelineFlow", session.TimelinePinnedEvents, roomID, stack)
}

func NewMediaEventsFlow(params *flow.Parameters, roomID string, stack *navigation.Stack) *TimelineFlow {
	return newTimelineFlow(params, "MediaEventsTimelineFlow", session.TimelineMediaEvents, roomID, stack)
}

func newTimelineFlow(params *flow.Parameters, name string, kind session.TimelineKind, roomID string, stack *navigation.Stack) *TimelineFlow {
	f := &TimelineFlow{
		Base:    flow.NewBase[flow.Action](name, params),
		kind:    kind,
		roomID:  roomID,
		stack:   stack,
		machine: flow.NewMachine[TimelineState, TimelineEvent](params, name, TimelineInitial),
	}
	f.machine.AddRoute(flow.On(TimelineInitial, TimelineStart, statemachine.Set(TimelineShown)),
		func(t statemachine.Transition[TimelineState, TimelineEvent, flow.EventInfo]) {
			f.present(t.Payload.Animated)
		})
	f.machine.AddRoute(flow.On(TimelineShown, TimelineDismiss, statemachine.Set(TimelineDismissed)),
		func(statemachine.Transition[TimelineState, TimelineEvent, flow.EventInfo]) {
			f.screen, f.sheet = nil, nil
			f.Emit(flow.Finished())
		})
	return f
}

func (f *TimelineFlow) State() TimelineState { return f.machine.State() }

func (f *TimelineFlow) Start(animated bool) {
	f.machine.TryEvent(TimelineStart, flow.EventInfo{Animated: animated})
}

// HandleAppRoute dismisses the timeline; no route targets it.
func (f *TimelineFlow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

// ClearRoute dismisses the timeline. Finished is reported once the surface
// is gone.
func (f *TimelineFlow) ClearRoute(animated bool) {
	if f.machine.State() != TimelineShown {
		return
	}
	f.dismissSurface(animated)
}

func (f *TimelineFlow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *TimelineFlow) build() (*session.Timeline, error) {
	if f.kind == session.TimelinePinnedEvents {
		return f.Params.Timelines.PinnedEventsTimeline(f.roomID)
	}
	return f.Params.Timelines.MediaEventsTimeline(f.roomID)
}

func (f *TimelineFlow) present(animated bool) {
	tl, err := f.build()
	if err != nil {
		log.ErrorErr(log.CatFlow, "timeline could not be built", err, "flow", f.Name, "room", f.roomID)
		f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
		f.machine.TryEvent(TimelineDismiss, flow.EventInfo{Animated: animated})
		return
	}

	kind := "PinnedEventsTimelineScreen"
	if f.kind == session.TimelineMediaEvents {
		kind = "MediaEventsTimelineScreen"
	}
	screen := navigation.NewScreen(kind, f.handleAction).With("room", f.roomID).With("timeline", tl.ID)
	f.screen = screen

	onDismiss := func() {
		if f.screen == screen && f.machine.State() == TimelineShown {
			f.machine.TryEvent(TimelineDismiss, flow.EventInfo{Animated: true})
		}
	}
	if f.kind == session.TimelinePinnedEvents {
		f.sheet = navigation.NewStack(f.Name)
		f.sheet.SetRoot(screen, false, nil)
		f.stack.SetSheet(f.sheet, animated, onDismiss)
		return
	}
	f.stack.Push(screen, animated, onDismiss)
}

func (f *TimelineFlow) dismissSurface(animated bool) {
	if f.sheet != nil {
		if f.stack.Sheet() == f.sheet {
			f.stack.SetSheet(nil, animated, nil)
		}
		return
	}
	if f.screen != nil && f.stack.Contains(f.screen) {
		f.stack.Remove(f.screen, animated)
	}
}

func (f *TimelineFlow) handleAction(action any) {
	switch a := action.(type) {
	case ScreenAction:
		if a == Back {
			f.dismissSurface(true)
		}
	case OpenUser:
		f.Emit(flow.DisplayUser(a.UserID))
	case Forward:
		f.Emit(flow.ForwardMessage(a.EventID))
	}
}
