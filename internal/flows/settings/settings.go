// Package settings presents the settings sheet and the flows reachable from
// it: secure backup and bug reporting.
package settings

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/flows/encryption"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type State int

const (
	Hidden State = iota
	SettingsScreen
	SecureBackup
	BugReport
)

func (s State) String() string {
	return [...]string{"hidden", "settingsScreen", "secureBackup", "bugReport"}[s]
}

type Event int

const (
	EventPresent Event = iota
	EventShowSecureBackup
	EventFinishedSecureBackup
	EventShowBugReport
	EventFinishedBugReport
	EventDismissed
)

func (e Event) String() string {
	return [...]string{"present", "showSecureBackup", "finishedSecureBackup", "showBugReport", "finishedBugReport", "dismissed"}[e]
}

type Action int

const (
	PresentedSettings Action = iota
	DismissedSettings
	Logout
	ClearCache
	ForceLogout
)

func (a Action) String() string {
	return [...]string{"presentedSettings", "dismissedSettings", "logout", "clearCache", "forceLogout"}[a]
}

// ScreenAction is sent by the settings screen.
type ScreenAction int

const (
	ScreenDismiss ScreenAction = iota
	ScreenLogout
	ScreenClearCache
	ScreenSecureBackup
	ScreenReportBug
	ScreenForceLogout
)

// Flow owns the settings sheet presented on the split view.
type Flow struct {
	flow.Base[Action]
	split    *navigation.Split
	reporter bugreport.Reporter
	machine  *statemachine.Machine[State, Event, flow.EventInfo]

	stack        *navigation.Stack
	secureBackup *encryption.SettingsFlow
	bugReport    *bugreport.Flow
}

func New(params *flow.Parameters, split *navigation.Split, reporter bugreport.Reporter) *Flow {
	f := &Flow{
		Base:     flow.NewBase[Action]("SettingsFlow", params),
		split:    split,
		reporter: reporter,
		machine:  flow.NewMachine[State, Event](params, "SettingsFlow", Hidden),
	}
	f.configure()
	return f
}

func (f *Flow) State() State { return f.machine.State() }

// Start presents the settings sheet.
func (f *Flow) Start(animated bool) {
	if f.machine.State() == Hidden {
		f.machine.TryEvent(EventPresent, flow.EventInfo{Animated: animated})
	}
}

func (f *Flow) HandleAppRoute(r route.Route, animated bool) {
	switch r.Kind {
	case route.KindSettings:
		f.Start(animated)
	case route.KindChatBackupSettings:
		if f.machine.State() == SecureBackup {
			f.secureBackup.HandleAppRoute(r, animated)
			return
		}
		f.Start(animated)
		// The stack rejects a root and a push in the same pass.
		f.Params.After(f.Life, "settings.chatBackup", f.Params.Delays.ChatBackupPush, func() {
			if f.machine.State() == SettingsScreen {
				f.machine.TryEvent(EventShowSecureBackup, flow.EventInfo{Animated: animated})
			}
		})
	}
}

// ClearRoute dismisses the settings sheet.
func (f *Flow) ClearRoute(animated bool) {
	if f.machine.State() == Hidden {
		return
	}
	f.split.SetSheet(nil, animated, nil)
}

func (f *Flow) Snapshot() flow.Snapshot {
	snap := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.secureBackup != nil {
		snap.Children = append(snap.Children, f.secureBackup.Snapshot())
	}
	if f.bugReport != nil {
		snap.Children = append(snap.Children, f.bugReport.Snapshot())
	}
	return snap
}

func (f *Flow) configure() {
	type transition = statemachine.Transition[State, Event, flow.EventInfo]

	f.machine.AddRoute(flow.On(Hidden, EventPresent, statemachine.Set(SettingsScreen)),
		func(t transition) { f.presentSheet(t.Payload.Animated) })

	f.machine.AddRoute(flow.On(SettingsScreen, EventShowSecureBackup, statemachine.Push(SecureBackup)),
		func(t transition) { f.startSecureBackup(t.Payload.Animated) })
	f.machine.AddRoute(flow.On(SecureBackup, EventFinishedSecureBackup, statemachine.Restore[State]()),
		func(transition) {
			f.secureBackup.Detach()
			f.secureBackup = nil
		})

	f.machine.AddRoute(flow.On(SettingsScreen, EventShowBugReport, statemachine.Push(BugReport)),
		func(t transition) { f.startBugReport(t.Payload.Animated) })
	f.machine.AddRoute(flow.On(BugReport, EventFinishedBugReport, statemachine.Restore[State]()),
		func(transition) {
			f.bugReport.Detach()
			f.bugReport = nil
		})

	f.machine.AddRoute(flow.OnAny[State](EventDismissed, statemachine.Set(Hidden)),
		func(transition) {
			if f.secureBackup != nil {
				f.secureBackup.Detach()
				f.secureBackup = nil
			}
			if f.bugReport != nil {
				f.bugReport.Detach()
				f.bugReport = nil
			}
			f.stack = nil
			f.Emit(DismissedSettings)
		})
}

func (f *Flow) presentSheet(animated bool) {
	f.stack = f.split.NewStack("settings")
	f.stack.SetRoot(navigation.NewScreen("SettingsScreen", f.handleScreenAction), false, nil)
	f.split.SetSheet(f.stack, animated, func() {
		f.machine.TryEvent(EventDismissed, flow.EventInfo{Animated: true})
	})
	f.Emit(PresentedSettings)
}

func (f *Flow) handleScreenAction(action any) {
	switch action {
	case ScreenDismiss:
		f.split.SetSheet(nil, true, nil)
	case ScreenLogout:
		f.split.SetSheet(nil, true, nil)
		// The sheet has to be gone before the logout confirmation shows.
		f.Params.Loop.After("settings.logout", f.Params.Delays.SettingsLogout, func() {
			f.Emit(Logout)
		})
	case ScreenClearCache:
		f.Emit(ClearCache)
	case ScreenForceLogout:
		f.Emit(ForceLogout)
	case ScreenSecureBackup:
		f.machine.TryEvent(EventShowSecureBackup, flow.EventInfo{Animated: true})
	case ScreenReportBug:
		f.machine.TryEvent(EventShowBugReport, flow.EventInfo{Animated: true})
	default:
		log.Warn(log.CatFlow, "unhandled screen action", "flow", f.Name, "action", action)
	}
}

func (f *Flow) startSecureBackup(animated bool) {
	child := encryption.NewSettingsFlow(f.Params, f.stack)
	child.Actions().Subscribe(func(encryption.SettingsAction) {
		f.machine.TryEvent(EventFinishedSecureBackup, flow.EventInfo{Animated: true})
	})
	f.secureBackup = child
	child.Start(animated)
}

func (f *Flow) startBugReport(animated bool) {
	child := bugreport.New(f.Params, bugreport.Push, f.stack, f.reporter)
	child.Actions().Subscribe(func(bugreport.Action) {
		f.machine.TryEvent(EventFinishedBugReport, flow.EventInfo{Animated: true})
	})
	f.bugReport = child
	child.Start(animated)
}
