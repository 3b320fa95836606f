// Package applock coordinates the screens shown while the app is locked.
// Its events come from the app lifecycle rather than from routes.
package applock

import (
	"context"
	"time"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	Unlocked
	ObscuringApp
	Backgrounded
	BiometricUnlock
	BiometricUnlockDismissing
	PinCodeUnlock
	LoggingOut
)

var stateNames = [...]string{"initial", "unlocked", "obscuringApp", "backgrounded", "biometricUnlock",
	"biometricUnlockDismissing", "pinCodeUnlock", "loggingOut"}

type State struct {
	Kind   StateKind
	Result BiometricResult
}

func (s State) String() string {
	if s.Kind == BiometricUnlockDismissing {
		return stateNames[s.Kind] + "(" + s.Result.String() + ")"
	}
	return stateNames[s.Kind]
}

type EventKind int

const (
	WillResignActive EventKind = iota
	DidEnterBackground
	DidBecomeActive
	BiometricResultReceived
	PinSuccess
	EventForceLogout
	ServiceEnabled
	ServiceDisabled
)

var eventNames = [...]string{"willResignActive", "didEnterBackground", "didBecomeActive", "biometricResult",
	"pinSuccess", "forceLogout", "serviceEnabled", "serviceDisabled"}

type Event struct {
	Kind   EventKind
	Result BiometricResult
}

func (e Event) String() string {
	if e.Kind == BiometricResultReceived {
		return eventNames[e.Kind] + "(" + e.Result.String() + ")"
	}
	return eventNames[e.Kind]
}

type Action int

const (
	LockApp Action = iota
	UnlockApp
	ForceLogout
)

func (a Action) String() string {
	return [...]string{"lockApp", "unlockApp", "forceLogout"}[a]
}

// PinScreenAction is sent by the PIN unlock screen.
type PinScreenAction int

const (
	PinAccepted PinScreenAction = iota
	PinForgotten
)

// Option configures the flow.
type Option func(*Flow)

// WithClock overrides the time source used for the grace period.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// Flow owns the lock stack: a placeholder that obscures the app or the PIN
// unlock screen.
type Flow struct {
	flow.Base[Action]
	service Service
	stack   *navigation.Stack
	machine *statemachine.Machine[State, Event, flow.EventInfo]
	now     func() time.Time
}

// New creates the flow in state initial with the placeholder shown.
func New(params *flow.Parameters, service Service, stack *navigation.Stack, opts ...Option) *Flow {
	f := &Flow{
		Base:    flow.NewBase[Action]("AppLockFlow", params),
		service: service,
		stack:   stack,
		machine: flow.NewMachine[State, Event](params, "AppLockFlow", State{Kind: Initial}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.configure()
	f.showPlaceholder()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

// Send feeds a lifecycle event into the machine.
func (f *Flow) Send(kind EventKind) {
	f.machine.TryEvent(Event{Kind: kind}, flow.EventInfo{})
}

func (f *Flow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *Flow) configure() {
	// Every event maps to a state; with the service disabled, or for pairs
	// without a rule, the flow stays where it is.
	f.machine.AddRule(func(from State, ev Event) (statemachine.Target[State], bool) {
		return statemachine.Replace(f.next(from, ev)), true
	})
	f.machine.AddHandler(f.handle)
}

func (f *Flow) next(from State, ev Event) State {
	if !f.service.IsEnabled() {
		if from.Kind == LoggingOut && ev.Kind == ServiceDisabled {
			return State{Kind: Unlocked}
		}
		return from
	}
	switch {
	case from.Kind == Unlocked && ev.Kind == WillResignActive:
		return State{Kind: ObscuringApp}
	case from.Kind == ObscuringApp && ev.Kind == DidBecomeActive:
		return State{Kind: Unlocked}
	case ev.Kind == DidEnterBackground:
		return State{Kind: Backgrounded}
	case (from.Kind == Backgrounded || from.Kind == Initial) && ev.Kind == DidBecomeActive:
		if !f.service.NeedsUnlock(f.now()) {
			return State{Kind: Unlocked}
		}
		if f.service.BiometricUnlockEnabled() && f.service.BiometricUnlockTrusted() {
			return State{Kind: BiometricUnlock}
		}
		return State{Kind: PinCodeUnlock}
	case from.Kind == BiometricUnlock && ev.Kind == BiometricResultReceived:
		return State{Kind: BiometricUnlockDismissing, Result: ev.Result}
	case from.Kind == BiometricUnlockDismissing && ev.Kind == DidBecomeActive:
		switch from.Result {
		case BiometricUnlocked:
			return State{Kind: Unlocked}
		case BiometricFailed:
			return State{Kind: PinCodeUnlock}
		}
		return State{Kind: BiometricUnlock}
	case from.Kind == PinCodeUnlock && ev.Kind == PinSuccess:
		return State{Kind: Unlocked}
	case from.Kind == PinCodeUnlock && ev.Kind == EventForceLogout:
		return State{Kind: LoggingOut}
	case from.Kind == Initial && ev.Kind == ServiceEnabled:
		return State{Kind: Unlocked}
	}
	return from
}

func (f *Flow) handle(t statemachine.Transition[State, Event, flow.EventInfo]) {
	if t.From == t.To {
		return
	}
	log.Info(log.CatFlow, "app lock transition", "from", t.From.String(), "to", t.To.String(), "event", t.Event.String())

	switch t.To.Kind {
	case ObscuringApp:
		f.showPlaceholder()
	case Backgrounded:
		f.service.DidEnterBackground(f.now())
		f.showPlaceholder()
	case BiometricUnlock:
		f.showPlaceholder()
		f.attemptBiometricUnlock()
	case BiometricUnlockDismissing:
	case PinCodeUnlock:
		f.showUnlockScreen()
	case Unlocked:
		f.Emit(UnlockApp)
	case LoggingOut:
		f.Emit(ForceLogout)
	default:
		panic(&statemachine.InvalidTransitionError{
			Machine: f.machine.Name(),
			From:    t.From.String(),
			Event:   t.Event.String(),
			To:      t.To.String(),
			Reason:  statemachine.ErrNoRule,
		})
	}
}

func (f *Flow) showPlaceholder() {
	f.stack.SetRoot(navigation.NewScreen("PlaceholderScreen", nil), false, nil)
	f.Emit(LockApp)
}

func (f *Flow) showUnlockScreen() {
	f.stack.SetRoot(navigation.NewScreen("AppLockScreen", func(action any) {
		switch action {
		case PinAccepted:
			f.machine.TryEvent(Event{Kind: PinSuccess}, flow.EventInfo{})
		case PinForgotten:
			f.machine.TryEvent(Event{Kind: EventForceLogout}, flow.EventInfo{})
		}
	}), false, nil)
	f.Emit(LockApp)
}

func (f *Flow) attemptBiometricUnlock() {
	f.Params.Go(f.Life, "applock.biometrics", func(ctx context.Context) func() {
		result := f.service.UnlockWithBiometrics(ctx)
		return func() {
			f.machine.TryEvent(Event{Kind: BiometricResultReceived, Result: result}, flow.EventInfo{})
		}
	})
}
