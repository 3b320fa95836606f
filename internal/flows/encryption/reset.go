// Package encryption contains the encryption reset and encryption settings
// flows. Both push their screens on top of a stack they do not own.
package encryption

import (
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type ResetState int

const (
	ResetInitial ResetState = iota
	ResetScreen
	ResetConfirmingPassword
)

func (s ResetState) String() string {
	switch s {
	case ResetScreen:
		return "encryptionResetScreen"
	case ResetConfirmingPassword:
		return "confirmingPassword"
	}
	return "initial"
}

type ResetEvent int

const (
	ResetStart ResetEvent = iota
	ResetConfirmPassword
	ResetFinishedConfirmingPassword
)

func (e ResetEvent) String() string {
	switch e {
	case ResetConfirmPassword:
		return "confirmPassword"
	case ResetFinishedConfirmingPassword:
		return "finishedConfirmingPassword"
	}
	return "start"
}

// ResetAction is reported to the presenting flow.
type ResetAction int

const (
	ResetComplete ResetAction = iota
	ResetCancelled
)

func (a ResetAction) String() string {
	if a == ResetCancelled {
		return "cancel"
	}
	return "resetComplete"
}

// Screen actions sent by the reset screens.
type (
	ResetScreenAction    int
	PasswordScreenAction int
)

const (
	ResetScreenRequestPassword ResetScreenAction = iota
	ResetScreenCancel
	ResetScreenFinished
)

const PasswordEntered PasswordScreenAction = 0

// ResetFlow walks the user through resetting their encryption identity.
type ResetFlow struct {
	flow.Base[ResetAction]
	stack   *navigation.Stack
	machine *statemachine.Machine[ResetState, ResetEvent, flow.EventInfo]
}

// NewResetFlow creates a flow pushing onto stack.
func NewResetFlow(params *flow.Parameters, stack *navigation.Stack) *ResetFlow {
	f := &ResetFlow{
		Base:    flow.NewBase[ResetAction]("EncryptionResetFlow", params),
		stack:   stack,
		machine: flow.NewMachine[ResetState, ResetEvent](params, "EncryptionResetFlow", ResetInitial),
	}
	f.configure()
	return f
}

// State returns the current state.
func (f *ResetFlow) State() ResetState { return f.machine.State() }

func (f *ResetFlow) Start(animated bool) {
	f.machine.TryEvent(ResetStart, flow.EventInfo{Animated: animated})
}

// HandleAppRoute clears the flow: no route targets it.
func (f *ResetFlow) HandleAppRoute(_ route.Route, animated bool) {
	f.ClearRoute(animated)
}

// ClearRoute pops the screens this flow pushed, one at a time, since the
// stack holds screens the flow does not own.
func (f *ResetFlow) ClearRoute(animated bool) {
	switch f.machine.State() {
	case ResetScreen:
		f.stack.Pop(animated)
	case ResetConfirmingPassword:
		f.stack.Pop(animated)
		f.stack.Pop(animated)
	}
}

func (f *ResetFlow) Snapshot() flow.Snapshot {
	return flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
}

func (f *ResetFlow) configure() {
	f.machine.AddRoute(flow.On(ResetInitial, ResetStart, statemachine.Set(ResetScreen)),
		func(t statemachine.Transition[ResetState, ResetEvent, flow.EventInfo]) {
			f.presentResetScreen(t.Payload.Animated)
		})
	f.machine.AddRoute(flow.On(ResetScreen, ResetConfirmPassword, statemachine.Push(ResetConfirmingPassword)),
		func(statemachine.Transition[ResetState, ResetEvent, flow.EventInfo]) {
			f.presentPasswordScreen()
		})
	f.machine.AddRule(flow.On(ResetConfirmingPassword, ResetFinishedConfirmingPassword, statemachine.Restore[ResetState]()))
}

func (f *ResetFlow) presentResetScreen(animated bool) {
	screen := navigation.NewScreen("EncryptionResetScreen", func(action any) {
		switch action {
		case ResetScreenRequestPassword:
			f.machine.TryEvent(ResetConfirmPassword, flow.EventInfo{Animated: true})
		case ResetScreenCancel:
			f.Emit(ResetCancelled)
		case ResetScreenFinished:
			f.Emit(ResetComplete)
		default:
			log.Warn(log.CatFlow, "unhandled screen action", "flow", f.Name, "action", action)
		}
	})
	f.stack.Push(screen, animated, nil)
}

func (f *ResetFlow) presentPasswordScreen() {
	screen := navigation.NewScreen("EncryptionResetPasswordScreen", func(action any) {
		if action == PasswordEntered {
			f.stack.Pop(true)
		}
	})
	f.stack.Push(screen, true, func() {
		f.machine.TryEvent(ResetFinishedConfirmingPassword, flow.EventInfo{Animated: true})
	})
}
