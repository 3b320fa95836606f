// Package bugreport is the flow that collects and submits a bug report,
// presented either as a sheet or pushed on an existing stack.
package bugreport

import (
	"context"
	"fmt"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// Report is what the user filled in.
type Report struct {
	Text           string
	IncludeLogs    bool
	CanContact     bool
	ScreenshotPath string
}

// Reporter submits reports.
type Reporter interface {
	Submit(ctx context.Context, report Report) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, report Report) error

func (fn ReporterFunc) Submit(ctx context.Context, report Report) error { return fn(ctx, report) }

// Mode selects how the flow is presented.
type Mode int

const (
	Sheet Mode = iota
	Push
)

type State int

const (
	Initial State = iota
	BugReportScreen
	Submitting
	Done
)

func (s State) String() string {
	return [...]string{"initial", "bugReport", "submitting", "done"}[s]
}

type EventKind int

const (
	EventStart EventKind = iota
	EventSubmit
	EventSubmitted
	EventSubmitFailed
	EventCancel
)

func (e EventKind) String() string {
	return [...]string{"start", "submit", "submitted", "submitFailed", "cancel"}[e]
}

// Outcome tells the presenting flow how the flow ended.
type Outcome int

const (
	Submitted Outcome = iota
	Cancelled
)

// Action is reported when the flow completes.
type Action struct {
	Outcome Outcome
}

func (a Action) String() string {
	if a.Outcome == Cancelled {
		return "complete(cancelled)"
	}
	return "complete(submitted)"
}

// Screen actions.
type (
	SubmitReport struct{ Report Report }
	CancelReport struct{}
)

// Flow presents the bug report screen and submits the report.
type Flow struct {
	flow.Base[Action]
	mode     Mode
	stack    *navigation.Stack
	reporter Reporter
	machine  *statemachine.Machine[State, EventKind, flow.EventInfo]
	screen   *navigation.Screen
	sheet    *navigation.Stack
}

func New(params *flow.Parameters, mode Mode, stack *navigation.Stack, reporter Reporter) *Flow {
	f := &Flow{
		Base:     flow.NewBase[Action]("BugReportFlow", params),
		mode:     mode,
		stack:    stack,
		reporter: reporter,
		machine:  flow.NewMachine[State, EventKind](params, "BugReportFlow", Initial),
	}
	// Dismissal callbacks race with completion.
	f.machine.SetErrorHandler(statemachine.LogSameState[State, EventKind, flow.EventInfo]())
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(EventStart, flow.EventInfo{Animated: animated})
}

func (f *Flow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

// ClearRoute dismisses the report screen, which cancels the flow.
func (f *Flow) ClearRoute(animated bool) {
	switch f.machine.State() {
	case Initial, Done:
		return
	}
	f.dismiss(animated)
}

func (f *Flow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *Flow) configure() {
	type transition = statemachine.Transition[State, EventKind, flow.EventInfo]

	f.machine.AddRoute(flow.On(Initial, EventStart, statemachine.Set(BugReportScreen)),
		func(t transition) { f.present(t.Payload.Animated) })
	f.machine.AddRule(flow.On(BugReportScreen, EventSubmit, statemachine.Push(Submitting)))
	f.machine.AddRoute(flow.On(Submitting, EventSubmitFailed, statemachine.Restore[State]()),
		func(transition) {
			f.Params.Indicators.Retract(f.LoadingID())
			f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
		})
	f.machine.AddRoute(flow.On(Submitting, EventSubmitted, statemachine.Set(Done)),
		func(transition) {
			f.Params.Indicators.Retract(f.LoadingID())
			f.Params.Indicators.Submit(indicator.Success("Report sent"), 0)
			f.dismiss(true)
			f.Emit(Action{Outcome: Submitted})
		})
	f.machine.AddRoute(flow.On(BugReportScreen, EventCancel, statemachine.Set(Done)),
		func(transition) { f.Emit(Action{Outcome: Cancelled}) })
	f.machine.AddRoute(flow.On(Submitting, EventCancel, statemachine.Set(Done)),
		func(transition) {
			f.Params.Indicators.Retract(f.LoadingID())
			f.Emit(Action{Outcome: Cancelled})
		})
}

func (f *Flow) present(animated bool) {
	f.screen = navigation.NewScreen("BugReportScreen", func(action any) {
		switch a := action.(type) {
		case SubmitReport:
			f.submit(a.Report)
		case CancelReport:
			f.dismiss(true)
		}
	})
	onDismiss := func() {
		f.machine.TryEvent(EventCancel, flow.EventInfo{Animated: true})
	}

	if f.mode == Push {
		f.stack.Push(f.screen, animated, onDismiss)
		return
	}
	f.sheet = navigation.NewStack("BugReport")
	f.sheet.SetRoot(f.screen, false, nil)
	f.stack.SetSheet(f.sheet, animated, onDismiss)
}

func (f *Flow) dismiss(animated bool) {
	if f.mode == Push {
		if f.stack.Contains(f.screen) {
			f.stack.Remove(f.screen, animated)
		}
		return
	}
	if f.stack.Sheet() == f.sheet {
		f.stack.SetSheet(nil, animated, nil)
	}
}

func (f *Flow) submit(report Report) {
	if !f.machine.TryEvent(EventSubmit, flow.EventInfo{Animated: true}) {
		return
	}
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)

	f.Params.Go(f.Life, "bugreport.submit", func(ctx context.Context) func() {
		err := f.reporter.Submit(ctx, report)
		return func() {
			if err != nil {
				log.ErrorErr(log.CatFlow, "bug report failed", fmt.Errorf("submit bug report: %w", err))
				f.machine.TryEvent(EventSubmitFailed, flow.EventInfo{Animated: true})
				return
			}
			f.machine.TryEvent(EventSubmitted, flow.EventInfo{Animated: true})
		}
	})
}
