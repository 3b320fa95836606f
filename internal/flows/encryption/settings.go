package encryption

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type SettingsState int

const (
	SettingsInitial SettingsState = iota
	SettingsSecureBackup
	SettingsRecoveryKey
	SettingsKeyBackup
)

func (s SettingsState) String() string {
	switch s {
	case SettingsSecureBackup:
		return "secureBackupScreen"
	case SettingsRecoveryKey:
		return "recoveryKeyScreen"
	case SettingsKeyBackup:
		return "keyBackupScreen"
	}
	return "initial"
}

type SettingsEvent int

const (
	SettingsStart SettingsEvent = iota
	SettingsManageRecoveryKey
	SettingsFinishedManagingRecoveryKey
	SettingsDisableKeyBackup
	SettingsFinishedDisablingKeyBackup
)

func (e SettingsEvent) String() string {
	return [...]string{"start", "manageRecoveryKey", "finishedManagingRecoveryKey", "disableKeyBackup", "finishedDisablingKeyBackup"}[e]
}

// SettingsAction is reported when the secure backup screen is popped.
type SettingsAction int

const SettingsComplete SettingsAction = 0

func (SettingsAction) String() string { return "complete" }

// Screen actions sent by the secure backup screens.
type (
	SecureBackupAction int
	BackupSheetAction  int
)

const (
	SecureBackupManageRecoveryKey SecureBackupAction = iota
	SecureBackupDisableKeyBackup
)

const BackupSheetDone BackupSheetAction = 0

// SettingsFlow presents the secure backup screen and its recovery key and
// key backup sheets.
type SettingsFlow struct {
	flow.Base[SettingsAction]
	stack   *navigation.Stack
	machine *statemachine.Machine[SettingsState, SettingsEvent, flow.EventInfo]
}

func NewSettingsFlow(params *flow.Parameters, stack *navigation.Stack) *SettingsFlow {
	f := &SettingsFlow{
		Base:    flow.NewBase[SettingsAction]("EncryptionSettingsFlow", params),
		stack:   stack,
		machine: flow.NewMachine[SettingsState, SettingsEvent](params, "EncryptionSettingsFlow", SettingsInitial),
	}
	f.configure()
	return f
}

func (f *SettingsFlow) State() SettingsState { return f.machine.State() }

func (f *SettingsFlow) Start(animated bool) {
	f.machine.TryEvent(SettingsStart, flow.EventInfo{Animated: animated})
}

// HandleAppRoute keeps the secure backup screen for chat backup routes and
// clears the flow for anything else.
func (f *SettingsFlow) HandleAppRoute(r route.Route, animated bool) {
	if r.Kind == route.KindChatBackupSettings {
		f.popToRootScreen(animated)
		return
	}
	f.ClearRoute(animated)
}

func (f *SettingsFlow) ClearRoute(animated bool) {
	from := f.machine.State()
	f.popToRootScreen(animated)
	if from != SettingsInitial {
		f.stack.Pop(animated)
	}
}

func (f *SettingsFlow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *SettingsFlow) popToRootScreen(animated bool) {
	switch f.machine.State() {
	case SettingsRecoveryKey, SettingsKeyBackup:
		f.stack.SetSheet(nil, animated, nil)
	}
}

func (f *SettingsFlow) configure() {
	type transition = statemachine.Transition[SettingsState, SettingsEvent, flow.EventInfo]

	f.machine.AddRoute(flow.On(SettingsInitial, SettingsStart, statemachine.Set(SettingsSecureBackup)),
		func(t transition) { f.presentSecureBackup(t.Payload.Animated) })
	f.machine.AddRoute(flow.On(SettingsSecureBackup, SettingsManageRecoveryKey, statemachine.Push(SettingsRecoveryKey)),
		func(transition) { f.presentSheet("RecoveryKeyScreen", SettingsFinishedManagingRecoveryKey) })
	f.machine.AddRule(flow.On(SettingsRecoveryKey, SettingsFinishedManagingRecoveryKey, statemachine.Restore[SettingsState]()))
	f.machine.AddRoute(flow.On(SettingsSecureBackup, SettingsDisableKeyBackup, statemachine.Push(SettingsKeyBackup)),
		func(transition) { f.presentSheet("KeyBackupScreen", SettingsFinishedDisablingKeyBackup) })
	f.machine.AddRule(flow.On(SettingsKeyBackup, SettingsFinishedDisablingKeyBackup, statemachine.Restore[SettingsState]()))
}

func (f *SettingsFlow) presentSecureBackup(animated bool) {
	screen := navigation.NewScreen("SecureBackupScreen", func(action any) {
		switch action {
		case SecureBackupManageRecoveryKey:
			f.machine.TryEvent(SettingsManageRecoveryKey, flow.EventInfo{Animated: true})
		case SecureBackupDisableKeyBackup:
			f.machine.TryEvent(SettingsDisableKeyBackup, flow.EventInfo{Animated: true})
		}
	})
	f.stack.Push(screen, animated, func() { f.Emit(SettingsComplete) })
}

func (f *SettingsFlow) presentSheet(kind string, onDismiss SettingsEvent) {
	sheet := navigation.NewStack(kind)
	sheet.SetRoot(navigation.NewScreen(kind, func(action any) {
		if action == BackupSheetDone {
			f.stack.SetSheet(nil, true, nil)
		}
	}), true, nil)
	f.stack.SetSheet(sheet, true, func() {
		f.machine.TryEvent(onDismiss, flow.EventInfo{Animated: true})
	})
}
