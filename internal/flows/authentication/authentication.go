// Package authentication is the signed-out flow: it configures a homeserver
// and signs the user in with a password or OIDC.
package authentication

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	StartScreen
	ServerConfiguration
	ServerConfirmation
	ServerSelection
	LoginScreen
	OIDC
	ReportingProblem
	Complete
)

var stateNames = [...]string{
	"initial", "startScreen", "serverConfiguration", "serverConfirmation",
	"serverSelection", "loginScreen", "oidc", "reportingProblem", "complete",
}

// State is the flow state. Modal is set for server selection presented as
// a sheet over the confirmation screen.
type State struct {
	Kind  StateKind
	Modal bool
}

func (s State) String() string {
	if s.Kind == ServerSelection && s.Modal {
		return "serverSelection(modal)"
	}
	return stateNames[s.Kind]
}

type Event int

const (
	EventStart Event = iota
	EventConfigure
	EventConfigured
	EventConfigureFailed
	EventContinue
	EventChangeServer
	EventServerUpdated
	EventSelectionClosed
	EventConfirmationClosed
	EventLoginClosed
	EventOIDCFailed
	EventSignedIn
	EventReportProblem
	EventProblemReported
)

var eventNames = [...]string{
	"start", "configure", "configured", "configureFailed", "continue",
	"changeServer", "serverUpdated", "selectionClosed", "confirmationClosed",
	"loginClosed", "oidcFailed", "signedIn", "reportProblem", "problemReported",
}

func (e Event) String() string { return eventNames[e] }

// Action is emitted once the user is signed in.
type Action struct {
	UserID string
}

func (a Action) String() string { return fmt.Sprintf("signedIn(%s)", a.UserID) }

// Screen actions.
type (
	StartAction     int
	ConfirmAction   int
	SelectServer    struct{ Server string }
	CancelSelection struct{}
	SubmitLogin     struct{ Username, Password string }
)

const (
	LoginManually StartAction = iota
	ReportProblem
)

const (
	ContinueLogin ConfirmAction = iota
	ChangeServer
)

// Flow coordinates the signed-out screens on a single stack.
type Flow struct {
	flow.Base[Action]
	service  Service
	reporter bugreport.Reporter
	stack    *navigation.Stack
	machine  *statemachine.Machine[State, Event, flow.EventInfo]

	server string
	mode   LoginMode

	selectionSheet *navigation.Stack
	bugReport      *bugreport.Flow
}

// New creates the flow. defaultServer is configured when the user chooses
// to sign in manually.
func New(params *flow.Parameters, service Service, reporter bugreport.Reporter, stack *navigation.Stack, defaultServer string) *Flow {
	f := &Flow{
		Base:     flow.NewBase[Action]("AuthenticationFlow", params),
		service:  service,
		reporter: reporter,
		stack:    stack,
		server:   defaultServer,
		machine:  flow.NewMachine[State, Event](params, "AuthenticationFlow", State{Kind: Initial}),
	}
	// Screen dismissal callbacks race with programmatic pops.
	f.machine.SetErrorHandler(statemachine.LogSameState[State, Event, flow.EventInfo]())
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

// Server is the configured homeserver.
func (f *Flow) Server() string { return f.server }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(EventStart, flow.EventInfo{Animated: animated})
}

// HandleAppRoute does nothing: signed-out links are not routed.
func (f *Flow) HandleAppRoute(r route.Route, _ bool) {
	log.Debug(log.CatRoute, "ignoring route while signed out", "route", r.String())
}

// ClearRoute does nothing: the flow has no deep links.
func (f *Flow) ClearRoute(bool) {}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.bugReport != nil {
		s.Children = append(s.Children, f.bugReport.Snapshot())
	}
	return s
}

func (f *Flow) configure() {
	type transition = statemachine.Transition[State, Event, flow.EventInfo]
	on := func(from StateKind, ev Event, target func(State) statemachine.Target[State]) statemachine.Rule[State, Event] {
		return func(s State, e Event) (statemachine.Target[State], bool) {
			if s.Kind != from || e != ev {
				return statemachine.Target[State]{}, false
			}
			return target(s), true
		}
	}
	to := func(kind StateKind) func(State) statemachine.Target[State] {
		return func(State) statemachine.Target[State] { return statemachine.Push(State{Kind: kind}) }
	}
	restore := func(State) statemachine.Target[State] { return statemachine.Restore[State]() }

	f.machine.AddRoute(on(Initial, EventStart, func(State) statemachine.Target[State] {
		return statemachine.Set(State{Kind: StartScreen})
	}), func(t transition) { f.showStartScreen(t.Payload.Animated) })

	f.machine.AddRoute(on(StartScreen, EventConfigure, to(ServerConfiguration)),
		func(transition) { f.configureServer(f.server, EventConfigured, EventConfigureFailed) })
	f.machine.AddRoute(on(ServerConfiguration, EventConfigured, func(State) statemachine.Target[State] {
		return statemachine.Replace(State{Kind: ServerConfirmation})
	}), func(t transition) { f.showConfirmation(t.Payload.Animated) })
	f.machine.AddRoute(on(ServerConfiguration, EventConfigureFailed, func(State) statemachine.Target[State] {
		return statemachine.Replace(State{Kind: ServerSelection})
	}), func(t transition) { f.showSelection(false, t.Payload.Animated) })

	f.machine.AddRule(on(ServerConfirmation, EventConfirmationClosed, restore))
	f.machine.AddRoute(on(ServerConfirmation, EventContinue, func(State) statemachine.Target[State] {
		if f.mode == LoginOIDC {
			return statemachine.Push(State{Kind: OIDC})
		}
		return statemachine.Push(State{Kind: LoginScreen})
	}), func(t transition) {
		if t.To.Kind == OIDC {
			f.startOIDC()
			return
		}
		f.showLogin(t.Payload.Animated)
	})
	f.machine.AddRoute(on(ServerConfirmation, EventChangeServer, func(State) statemachine.Target[State] {
		return statemachine.Push(State{Kind: ServerSelection, Modal: true})
	}), func(t transition) { f.showSelection(true, t.Payload.Animated) })

	f.machine.AddRule(on(ServerSelection, EventSelectionClosed, restore))
	f.machine.AddRoute(on(ServerSelection, EventServerUpdated, func(s State) statemachine.Target[State] {
		switch {
		case s.Modal:
			return statemachine.Restore[State]()
		case f.mode == LoginPassword:
			return statemachine.Push(State{Kind: LoginScreen})
		}
		return statemachine.Replace(State{Kind: ServerConfirmation})
	}), f.serverUpdated)

	f.machine.AddRule(on(LoginScreen, EventLoginClosed, restore))
	complete := func(State) statemachine.Target[State] { return statemachine.Set(State{Kind: Complete}) }
	f.machine.AddRule(on(LoginScreen, EventSignedIn, complete))
	f.machine.AddRule(on(OIDC, EventSignedIn, complete))
	f.machine.AddRule(on(OIDC, EventOIDCFailed, restore))

	f.machine.AddRoute(on(StartScreen, EventReportProblem, to(ReportingProblem)),
		func(t transition) { f.startBugReport(t.Payload.Animated) })
	f.machine.AddRule(on(ReportingProblem, EventProblemReported, restore))
}

func (f *Flow) showStartScreen(animated bool) {
	screen := navigation.NewScreen("AuthenticationStartScreen", func(action any) {
		switch action {
		case LoginManually:
			f.machine.TryEvent(EventConfigure, flow.EventInfo{Animated: true})
		case ReportProblem:
			f.machine.TryEvent(EventReportProblem, flow.EventInfo{Animated: true})
		}
	})
	f.stack.SetRoot(screen, animated, nil)
}

// configureServer runs the homeserver lookup behind the loading indicator
// and reports ok or failed. A negative failed event keeps the state.
func (f *Flow) configureServer(server string, ok, failed Event) {
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "authentication.configure", func(ctx context.Context) func() {
		mode, err := f.service.Configure(ctx, server)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				log.ErrorErr(log.CatFlow, "homeserver configuration failed", err, "server", server)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				if failed >= 0 {
					f.machine.TryEvent(failed, flow.EventInfo{Animated: true})
				}
				return
			}
			f.server, f.mode = server, mode
			f.machine.TryEvent(ok, flow.EventInfo{Animated: true})
		}
	})
}

func (f *Flow) showConfirmation(animated bool) {
	screen := navigation.NewScreen("ServerConfirmationScreen", func(action any) {
		switch action {
		case ContinueLogin:
			f.machine.TryEvent(EventContinue, flow.EventInfo{Animated: true})
		case ChangeServer:
			f.machine.TryEvent(EventChangeServer, flow.EventInfo{Animated: true})
		}
	}).With("server", f.server).With("mode", f.mode.String())
	f.stack.Push(screen, animated, func() {
		f.machine.TryEvent(EventConfirmationClosed, flow.EventInfo{Animated: true})
	})
}

func (f *Flow) selectionScreen(modal bool) *navigation.Screen {
	return navigation.NewScreen("ServerSelectionScreen", func(action any) {
		switch a := action.(type) {
		case SelectServer:
			f.configureServer(a.Server, EventServerUpdated, -1)
		case CancelSelection:
			f.closeSelection(modal, true)
		}
	})
}

func (f *Flow) showSelection(modal, animated bool) {
	screen := f.selectionScreen(modal)
	closed := func() {
		f.machine.TryEvent(EventSelectionClosed, flow.EventInfo{Animated: true})
	}
	if !modal {
		f.stack.Push(screen, animated, closed)
		return
	}
	f.selectionSheet = navigation.NewStack("ServerSelection")
	f.selectionSheet.SetRoot(screen, false, nil)
	f.stack.SetSheet(f.selectionSheet, animated, closed)
}

func (f *Flow) closeSelection(modal, animated bool) {
	if modal {
		if f.stack.Sheet() == f.selectionSheet {
			f.stack.SetSheet(nil, animated, nil)
		}
		f.selectionSheet = nil
		return
	}
	f.stack.Pop(animated)
}

func (f *Flow) serverUpdated(t statemachine.Transition[State, Event, flow.EventInfo]) {
	switch t.To.Kind {
	case ServerConfirmation:
		if t.From.Modal {
			f.closeSelection(true, true)
			if top, ok := f.stack.Top().(*navigation.Screen); ok {
				top.Set("server", f.server)
				top.Set("mode", f.mode.String())
			}
			return
		}
		f.closeSelection(false, false)
		f.showConfirmation(true)
	case LoginScreen:
		f.showLogin(true)
	}
}

func (f *Flow) showLogin(animated bool) {
	screen := navigation.NewScreen("LoginScreen", func(action any) {
		if a, ok := action.(SubmitLogin); ok {
			f.login(a.Username, a.Password)
		}
	}).With("server", f.server)
	f.stack.Push(screen, animated, func() {
		f.machine.TryEvent(EventLoginClosed, flow.EventInfo{Animated: true})
	})
}

func (f *Flow) login(username, password string) {
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "authentication.login", func(ctx context.Context) func() {
		userID, err := f.service.Login(ctx, username, password)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				log.ErrorErr(log.CatFlow, "password login failed", err)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				return
			}
			f.signedIn(userID)
		}
	})
}

func (f *Flow) startOIDC() {
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "authentication.oidc", func(ctx context.Context) func() {
		userID, err := f.service.LoginWithOIDC(ctx)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				if !errors.Is(err, ErrUserCancelled) {
					log.ErrorErr(log.CatFlow, "oidc login failed", err)
					f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				}
				f.machine.TryEvent(EventOIDCFailed, flow.EventInfo{Animated: true})
				return
			}
			f.signedIn(userID)
		}
	})
}

func (f *Flow) signedIn(userID string) {
	if f.machine.TryEvent(EventSignedIn, flow.EventInfo{Animated: true}) {
		f.Emit(Action{UserID: userID})
	}
}

func (f *Flow) startBugReport(animated bool) {
	child := bugreport.New(f.Params, bugreport.Sheet, f.stack, f.reporter)
	f.bugReport = child
	child.Actions().Subscribe(func(bugreport.Action) {
		child.Detach()
		f.bugReport = nil
		f.machine.TryEvent(EventProblemReported, flow.EventInfo{Animated: true})
	})
	child.Start(animated)
}
