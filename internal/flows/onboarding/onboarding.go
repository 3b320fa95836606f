// Package onboarding walks a freshly signed-in user through the steps the
// session still requires: identity confirmation, the notification
// permission prompt and mandatory app lock setup.
package onboarding

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/applock"
	"github.com/zjrosen/roomflow/internal/flows/applocksetup"
	"github.com/zjrosen/roomflow/internal/flows/encryption"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// Requirements is what the session still needs from the user.
type Requirements struct {
	IdentityConfirmation    bool
	NotificationPermissions bool
}

type State int

const (
	Initial State = iota
	IdentityConfirmation
	NotificationPermissions
	AppLockSetup
	Complete
)

func (s State) String() string {
	return [...]string{"initial", "identityConfirmation", "notificationPermissions", "appLockSetup", "complete"}[s]
}

type Event int

const (
	EventNext Event = iota
)

func (Event) String() string { return "next" }

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
	IdentityAction      int
	NotificationsAction int
)

const (
	IdentityConfirmed IdentityAction = iota
	IdentityReset
)

const (
	NotificationsAllowed NotificationsAction = iota
	NotificationsDenied
)

// Flow presents each outstanding onboarding step as the root of stack.
type Flow struct {
	flow.Base[Action]
	requirements Requirements
	lock         applock.Service
	stack        *navigation.Stack
	machine      *statemachine.Machine[State, Event, flow.EventInfo]

	reset       *encryption.ResetFlow
	appLockFlow *applocksetup.Flow
}

func New(params *flow.Parameters, requirements Requirements, lock applock.Service, stack *navigation.Stack) *Flow {
	f := &Flow{
		Base:         flow.NewBase[Action]("OnboardingFlow", params),
		requirements: requirements,
		lock:         lock,
		stack:        stack,
		machine:      flow.NewMachine[State, Event](params, "OnboardingFlow", Initial),
	}
	f.machine.AddRule(func(from State, ev Event) (statemachine.Target[State], bool) {
		if from == Complete {
			return statemachine.Target[State]{}, false
		}
		return statemachine.Set(f.next(from)), true
	})
	f.machine.AddHandler(f.present)
	return f
}

// ShouldStart reports whether any onboarding step is outstanding.
func (f *Flow) ShouldStart() bool { return f.next(Initial) != Complete }

func (f *Flow) State() State { return f.machine.State() }

func (f *Flow) Start(animated bool) {
	f.machine.TryEvent(EventNext, flow.EventInfo{Animated: animated})
}

// HandleAppRoute does nothing: routes wait until onboarding is done.
func (f *Flow) HandleAppRoute(r route.Route, _ bool) {
	log.Debug(log.CatRoute, "ignoring route during onboarding", "route", r.String())
}

// ClearRoute does nothing: the flow has no deep links.
func (f *Flow) ClearRoute(bool) {}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.reset != nil {
		s.Children = append(s.Children, f.reset.Snapshot())
	}
	if f.appLockFlow != nil {
		s.Children = append(s.Children, f.appLockFlow.Snapshot())
	}
	return s
}

// next returns the first outstanding step after from.
func (f *Flow) next(from State) State {
	for s := from + 1; s < Complete; s++ {
		switch {
		case s == IdentityConfirmation && f.requirements.IdentityConfirmation,
			s == NotificationPermissions && f.requirements.NotificationPermissions,
			s == AppLockSetup && f.lock.IsMandatory() && !f.lock.IsEnabled():
			return s
		}
	}
	return Complete
}

func (f *Flow) advance() {
	f.machine.TryEvent(EventNext, flow.EventInfo{Animated: true})
}

func (f *Flow) present(t statemachine.Transition[State, Event, flow.EventInfo]) {
	animated := t.Payload.Animated
	switch t.To {
	case IdentityConfirmation:
		f.stack.SetRoot(navigation.NewScreen("IdentityConfirmationScreen", func(action any) {
			switch action {
			case IdentityConfirmed:
				f.requirements.IdentityConfirmation = false
				f.advance()
			case IdentityReset:
				f.startReset()
			}
		}), animated, nil)
	case NotificationPermissions:
		f.stack.SetRoot(navigation.NewScreen("NotificationPermissionsScreen", func(action any) {
			if _, ok := action.(NotificationsAction); ok {
				f.requirements.NotificationPermissions = false
				f.advance()
			}
		}), animated, nil)
	case AppLockSetup:
		f.stack.SetRoot(navigation.NewScreen("OnboardingPlaceholderScreen", nil), false, nil)
		f.startAppLockSetup(animated)
	case Complete:
		f.Emit(ActionComplete)
	}
}

func (f *Flow) startReset() {
	if f.reset != nil {
		return
	}
	child := encryption.NewResetFlow(f.Params, f.stack)
	f.reset = child
	child.Actions().Subscribe(func(a encryption.ResetAction) {
		child.ClearRoute(true)
		child.Detach()
		f.reset = nil
		if a == encryption.ResetComplete {
			f.requirements.IdentityConfirmation = false
			f.advance()
		}
	})
	child.Start(true)
}

func (f *Flow) startAppLockSetup(animated bool) {
	child := applocksetup.New(f.Params, applocksetup.Authentication, f.lock, f.stack)
	f.appLockFlow = child
	child.Actions().Subscribe(func(a applocksetup.Action) {
		child.Detach()
		f.appLockFlow = nil
		if a == applocksetup.ActionForceLogout {
			f.Emit(ActionForceLogout)
			return
		}
		f.advance()
	})
	child.Start(animated)
}
