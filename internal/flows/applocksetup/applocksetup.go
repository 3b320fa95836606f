// Package applocksetup configures the app lock: PIN creation, biometrics
// opt-in and the app lock settings screen.
package applocksetup

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/applock"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// PresentingFlow is where the flow was started from.
type PresentingFlow int

const (
	// Authentication shows mandatory PIN creation after sign in.
	Authentication PresentingFlow = iota
	// Settings shows the flow from the settings screen.
	Settings
)

type StateKind int

const (
	Initial StateKind = iota
	Unlock
	CreatePIN
	BiometricsPrompt
	SettingsScreen
	Complete
	LoggingOut
)

type State struct {
	Kind      StateKind
	Replacing bool
}

func (s State) String() string {
	switch s.Kind {
	case Unlock:
		return "unlock"
	case CreatePIN:
		if s.Replacing {
			return "createPIN(replacing)"
		}
		return "createPIN"
	case BiometricsPrompt:
		return "biometricsPrompt"
	case SettingsScreen:
		return "settings"
	case Complete:
		return "complete"
	case LoggingOut:
		return "loggingOut"
	}
	return "initial"
}

type Event int

const (
	EventStart Event = iota
	EventPinEntered
	EventBiometricsSet
	EventChangePIN
	EventAppLockDisabled
	EventCancel
	EventForceLogout
)

func (e Event) String() string {
	return [...]string{"start", "pinEntered", "biometricsSet", "changePIN", "appLockDisabled", "cancel", "forceLogout"}[e]
}

type Action int

const (
	ActionComplete Action = iota
	ActionForceLogout
)

func (a Action) String() string {
	if a == ActionForceLogout {
		return "forceLogout"
	}
	return "complete"
}

// Screen actions.
type (
	PinAction        int
	BiometricsAction struct{}
	SettingsAction   int
)

const (
	PinComplete PinAction = iota
	PinCancel
	PinForceLogout
)

const (
	SettingsChangePIN SettingsAction = iota
	SettingsDisable
)

// Flow walks through PIN creation or app lock settings.
type Flow struct {
	flow.Base[Action]
	presenting PresentingFlow
	service    applock.Service
	stack      *navigation.Stack
	modal      *navigation.Stack
	machine    *statemachine.Machine[State, Event, flow.EventInfo]
}

func New(params *flow.Parameters, presenting PresentingFlow, service applock.Service, stack *navigation.Stack) *Flow {
	f := &Flow{
		Base:       flow.NewBase[Action]("AppLockSetupFlow", params),
		presenting: presenting,
		service:    service,
		stack:      stack,
		modal:      navigation.NewStack("appLockSetupModal"),
		machine:    flow.NewMachine[State, Event](params, "AppLockSetupFlow", State{Kind: Initial}),
	}
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(EventStart, flow.EventInfo{Animated: animated})
}

// HandleAppRoute does nothing: the flow has no deep links.
func (f *Flow) HandleAppRoute(route.Route, bool) {}

// ClearRoute does nothing: the flow has no deep links.
func (f *Flow) ClearRoute(bool) {}

func (f *Flow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *Flow) configure() {
	f.machine.AddRule(func(from State, ev Event) (statemachine.Target[State], bool) {
		to, ok := f.next(from, ev)
		return statemachine.Replace(to), ok
	})
	f.machine.AddHandler(f.handle)
}

func (f *Flow) next(from State, ev Event) (State, bool) {
	auth := f.presenting == Authentication
	switch {
	case from.Kind == Initial && ev == EventStart:
		if auth || !f.service.IsEnabled() {
			return State{Kind: CreatePIN}, true
		}
		return State{Kind: Unlock}, true
	case from.Kind == Unlock && ev == EventPinEntered:
		return State{Kind: SettingsScreen}, true
	case from.Kind == Unlock && ev == EventCancel:
		return State{Kind: Complete}, true
	case from.Kind == Unlock && ev == EventForceLogout:
		return State{Kind: LoggingOut}, true
	case from.Kind == CreatePIN && ev == EventPinEntered:
		switch {
		case auth && f.service.BiometryAvailable():
			return State{Kind: BiometricsPrompt}, true
		case auth:
			return State{Kind: Complete}, true
		case !from.Replacing && !f.service.BiometricUnlockEnabled() && f.service.BiometryAvailable():
			return State{Kind: BiometricsPrompt}, true
		}
		return State{Kind: SettingsScreen}, true
	case from.Kind == CreatePIN && ev == EventCancel:
		if from.Replacing {
			return State{Kind: SettingsScreen}, true
		}
		return State{Kind: Complete}, true
	case from.Kind == BiometricsPrompt && ev == EventBiometricsSet:
		if auth {
			return State{Kind: Complete}, true
		}
		return State{Kind: SettingsScreen}, true
	case from.Kind == SettingsScreen && ev == EventChangePIN:
		return State{Kind: CreatePIN, Replacing: true}, true
	case from.Kind == SettingsScreen && ev == EventAppLockDisabled:
		return State{Kind: Complete}, true
	}
	return from, false
}

func (f *Flow) handle(t statemachine.Transition[State, Event, flow.EventInfo]) {
	from, to := t.From, t.To
	switch {
	case from.Kind == Initial && to.Kind == Unlock:
		f.showPINUnlock()
	case to.Kind == CreatePIN:
		f.showCreatePIN()
	case from.Kind == CreatePIN && to.Kind == SettingsScreen:
		if from.Replacing {
			// Reveal the settings screen again.
			f.stack.SetSheet(nil, true, nil)
		} else {
			f.showSettings()
		}
	case to.Kind == SettingsScreen:
		f.showSettings()
	case to.Kind == BiometricsPrompt:
		f.showBiometricsPrompt()
	case to.Kind == Complete:
		f.complete(from)
	case to.Kind == LoggingOut:
		f.Emit(ActionForceLogout)
	}
}

func (f *Flow) pinScreen(mode string) *navigation.Screen {
	return navigation.NewScreen("AppLockSetupPINScreen", func(action any) {
		switch action {
		case PinComplete:
			f.machine.TryEvent(EventPinEntered, flow.EventInfo{Animated: true})
		case PinCancel:
			f.machine.TryEvent(EventCancel, flow.EventInfo{Animated: true})
		case PinForceLogout:
			f.machine.TryEvent(EventForceLogout, flow.EventInfo{Animated: true})
		}
	}).With("mode", mode)
}

func (f *Flow) showCreatePIN() {
	screen := f.pinScreen("create")
	if f.presenting == Authentication {
		screen.Set("mandatory", "true")
		f.stack.Push(screen, true, nil)
		return
	}
	f.modal.SetRoot(screen, false, nil)
	f.stack.SetSheet(f.modal, true, nil)
}

func (f *Flow) showPINUnlock() {
	f.modal.SetRoot(f.pinScreen("unlock"), false, nil)
	f.stack.SetSheet(f.modal, true, nil)
}

func (f *Flow) showBiometricsPrompt() {
	screen := navigation.NewScreen("AppLockSetupBiometricsScreen", func(action any) {
		if _, ok := action.(BiometricsAction); ok {
			f.machine.TryEvent(EventBiometricsSet, flow.EventInfo{Animated: true})
		}
	})
	if f.presenting == Authentication {
		f.stack.Push(screen, true, nil)
		return
	}
	f.modal.Push(screen, true, nil)
}

func (f *Flow) showSettings() {
	screen := navigation.NewScreen("AppLockSetupSettingsScreen", func(action any) {
		switch action {
		case SettingsChangePIN:
			f.machine.TryEvent(EventChangePIN, flow.EventInfo{Animated: true})
		case SettingsDisable:
			f.machine.TryEvent(EventAppLockDisabled, flow.EventInfo{Animated: true})
		}
	})
	if f.service.IsMandatory() {
		screen.Set("mandatory", "true")
	}
	f.stack.Push(screen, false, func() { f.Emit(ActionComplete) })
	f.stack.SetSheet(nil, true, nil)
}

func (f *Flow) complete(from State) {
	if from.Kind == SettingsScreen {
		// Popping the settings screen emits complete.
		f.stack.Pop(true)
		return
	}
	f.stack.SetSheet(nil, true, nil)
	f.Emit(ActionComplete)
}
