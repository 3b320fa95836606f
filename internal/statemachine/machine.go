// Package statemachine provides the deterministic finite-state machine used
// by every flow coordinator.
//
// A Machine evaluates its rules in registration order; the first rule that
// matches (from, event) yields a Target describing how the recorded state
// changes. History is kept as an arena of state nodes with parent indices,
// so returning to the state a screen was opened from is a Restore target
// rather than a back-pointer embedded in the state value.
//
// Machines are not safe for concurrent use. All calls happen on the
// coordination loop.
package statemachine

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

// Rule maps (from, event) to a target. ok is false when the rule does not
// apply, in which case the next rule is evaluated.
type Rule[S, E any] func(from S, event E) (target Target[S], ok bool)

// Transition describes an applied event.
type Transition[S, E, P any] struct {
	From    S
	Event   E
	To      S
	Payload P
	// Depth is the history depth after the transition; 1 means To is a root.
	Depth int
}

// Handler performs the side effects of a transition.
type Handler[S, E, P any] func(Transition[S, E, P])

type ruleEntry[S, E, P any] struct {
	rule    Rule[S, E]
	handler Handler[S, E, P]
}

type node[S any] struct {
	state  S
	parent int
}

type applied[S, E, P any] struct {
	event   E
	payload P
	to      S
}

// Machine is a deterministic state machine over states S, events E and a
// per-event payload P (typically animation and presentation hints).
type Machine[S, E, P any] struct {
	name     string
	nodes    []node[S]
	cur      int
	rules    []ruleEntry[S, E, P]
	handlers []Handler[S, E, P]
	onError  ErrorHandler[S, E, P]
	bus      *pubsub.Broker[any]
	last     *applied[S, E, P]
}

// New creates a machine in the initial state. name identifies the machine
// in logs, errors and bus records.
func New[S, E, P any](name string, initial S) *Machine[S, E, P] {
	return &Machine[S, E, P]{
		name:    name,
		nodes:   []node[S]{{state: initial, parent: -1}},
		onError: DefaultErrorHandler[S, E, P],
	}
}

// Name returns the machine name.
func (m *Machine[S, E, P]) Name() string { return m.name }

// AddRule registers a rule without a dedicated handler.
func (m *Machine[S, E, P]) AddRule(rule Rule[S, E]) {
	m.AddRoute(rule, nil)
}

// AddRoute registers a rule together with a handler that runs only when this
// rule produced the transition. The route handler runs before any-handlers.
func (m *Machine[S, E, P]) AddRoute(rule Rule[S, E], handler Handler[S, E, P]) {
	m.rules = append(m.rules, ruleEntry[S, E, P]{rule: rule, handler: handler})
}

// AddHandler registers a handler invoked for every successful transition,
// in registration order.
func (m *Machine[S, E, P]) AddHandler(h Handler[S, E, P]) {
	m.handlers = append(m.handlers, h)
}

// SetErrorHandler replaces the error policy. A nil handler restores the
// default.
func (m *Machine[S, E, P]) SetErrorHandler(h ErrorHandler[S, E, P]) {
	if h == nil {
		h = DefaultErrorHandler[S, E, P]
	}
	m.onError = h
}

// SetEventBus makes the machine publish a Record for every transition.
func (m *Machine[S, E, P]) SetEventBus(bus *pubsub.Broker[any]) {
	m.bus = bus
}

// State returns the recorded current state.
func (m *Machine[S, E, P]) State() S {
	return m.nodes[m.cur].state
}

// Previous returns the state a Restore would return to.
func (m *Machine[S, E, P]) Previous() (S, bool) {
	parent := m.nodes[m.cur].parent
	if parent < 0 {
		var zero S
		return zero, false
	}
	return m.nodes[parent].state, true
}

// Depth returns the number of states on the current history chain.
func (m *Machine[S, E, P]) Depth() int {
	depth := 0
	for i := m.cur; i >= 0; i = m.nodes[i].parent {
		depth++
	}
	return depth
}

// Chain returns the history chain from the root to the current state.
func (m *Machine[S, E, P]) Chain() []S {
	chain := make([]S, 0, m.Depth())
	for i := m.cur; i >= 0; i = m.nodes[i].parent {
		chain = append(chain, m.nodes[i].state)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}

// Can reports whether event would match a rule from the current state.
// It does not apply the event.
func (m *Machine[S, E, P]) Can(event E) bool {
	from := m.State()
	for _, r := range m.rules {
		target, ok := r.rule(from, event)
		if !ok {
			continue
		}
		return target.op != opRestore || m.nodes[m.cur].parent >= 0
	}
	return false
}

// TryEvent applies event. It returns false when no rule matched, after the
// error handler has been invoked exactly once. Handlers may call TryEvent
// again; nested transitions are fully applied before the outer call returns.
func (m *Machine[S, E, P]) TryEvent(event E, payload P) bool {
	from := m.State()
	for _, r := range m.rules {
		target, ok := r.rule(from, event)
		if !ok {
			continue
		}
		if err := m.apply(target); err != nil {
			m.fail(from, event, payload, err)
			return false
		}

		t := Transition[S, E, P]{
			From:    from,
			Event:   event,
			To:      m.State(),
			Payload: payload,
			Depth:   m.Depth(),
		}
		m.last = &applied[S, E, P]{event: event, payload: payload, to: t.To}

		log.Debug(log.CatSM, "transition",
			"machine", m.name,
			"from", fmt.Sprint(t.From),
			"event", fmt.Sprint(t.Event),
			"to", fmt.Sprint(t.To),
			"op", target.op,
			"depth", t.Depth,
		)
		pubsub.PublishTo(m.bus, pubsub.TransitionEvent, any(Record{
			Machine: m.name,
			From:    fmt.Sprint(t.From),
			Event:   fmt.Sprint(t.Event),
			To:      fmt.Sprint(t.To),
			Op:      target.op.String(),
			Depth:   t.Depth,
		}))

		if r.handler != nil {
			r.handler(t)
		}
		for _, h := range m.handlers {
			h(t)
		}
		return true
	}

	m.fail(from, event, payload, ErrNoRule)
	return false
}

func (m *Machine[S, E, P]) apply(target Target[S]) error {
	switch target.op {
	case opSet:
		m.nodes = append(m.nodes[:0], node[S]{state: target.state, parent: -1})
		m.cur = 0
	case opPush:
		m.nodes = append(m.nodes[:m.cur+1], node[S]{state: target.state, parent: m.cur})
		m.cur = len(m.nodes) - 1
	case opReplace:
		m.nodes = m.nodes[:m.cur+1]
		m.nodes[m.cur].state = target.state
	case opRestore:
		parent := m.nodes[m.cur].parent
		if parent < 0 {
			return ErrNothingToRestore
		}
		m.nodes = m.nodes[:parent+1]
		m.cur = parent
	default:
		return fmt.Errorf("unknown target op %d", target.op)
	}
	return nil
}

func (m *Machine[S, E, P]) fail(from S, event E, payload P, reason error) {
	duplicate := m.last != nil &&
		cmp.Equal(m.last.event, event) &&
		cmp.Equal(m.last.payload, payload) &&
		cmp.Equal(m.last.to, from)

	m.onError(ErrorContext[S, E, P]{
		Machine:   m.name,
		From:      from,
		Event:     event,
		To:        from,
		Payload:   payload,
		Reason:    reason,
		Duplicate: duplicate,
	})
}

// Record is the bus representation of a transition.
type Record struct {
	Machine string
	From    string
	Event   string
	To      string
	Op      string
	Depth   int
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %s --%s--> %s (%s, depth %d)", r.Machine, r.From, r.Event, r.To, r.Op, r.Depth)
}

// ErrNoRule is the reason reported when no rule matched.
var ErrNoRule = errors.New("no transition rule matches")

// ErrNothingToRestore is the reason reported for a Restore at a root state.
var ErrNothingToRestore = errors.New("no previous state to restore")
