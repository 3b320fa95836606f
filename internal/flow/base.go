package flow

import (
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// Base carries what every coordinator owns: its name, the shared
// parameters, a lifetime and the outbound action stream.
type Base[A any] struct {
	Name    string
	Params  *Parameters
	Life    *Lifetime
	actions *Actions[A]
}

// NewBase creates the shared parts of the flow called name.
func NewBase[A any](name string, params *Parameters) Base[A] {
	life := NewLifetime()
	return Base[A]{
		Name:    name,
		Params:  params,
		Life:    life,
		actions: NewActions[A](name, params.Loop, life, params.Bus),
	}
}

// Actions returns the flow's outbound stream.
func (b *Base[A]) Actions() *Actions[A] { return b.actions }

// Emit sends action to the parent.
func (b *Base[A]) Emit(action A) { b.actions.Emit(action) }

// Detach ends the flow's lifetime. Parents call it when they release the
// flow; pending continuations and actions become no-ops.
func (b *Base[A]) Detach() { b.Life.End() }

// LoadingID is the flow's loading indicator id.
func (b *Base[A]) LoadingID() string { return b.Name + "-Loading" }

// FailureID is the flow's failure toast id.
func (b *Base[A]) FailureID() string { return b.Name + "-Failure" }

// NewMachine creates a flow state machine that publishes its transitions on
// the parameters' bus.
func NewMachine[S, E any](params *Parameters, name string, initial S) *statemachine.Machine[S, E, EventInfo] {
	m := statemachine.New[S, E, EventInfo](name, initial)
	m.SetEventBus(params.Bus)
	return m
}

// On matches the exact (from, event) pair of flows whose states and events
// are plain comparable values.
func On[S, E comparable](from S, event E, target statemachine.Target[S]) statemachine.Rule[S, E] {
	return func(s S, e E) (statemachine.Target[S], bool) {
		return target, s == from && e == event
	}
}

// OnAny matches event from every state.
func OnAny[S any, E comparable](event E, target statemachine.Target[S]) statemachine.Rule[S, E] {
	return func(_ S, e E) (statemachine.Target[S], bool) {
		return target, e == event
	}
}
