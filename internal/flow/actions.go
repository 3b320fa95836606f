package flow

import (
	"fmt"
	"sync"

	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

// Submitter queues work on the coordination loop.
type Submitter interface {
	Submit(name string, fn func()) error
}

// ActionRecord is published on the event bus for every emitted action.
type ActionRecord struct {
	Flow   string
	Action string
}

func (r ActionRecord) String() string {
	return r.Flow + " -> " + r.Action
}

// Actions is a flow's outbound stream to its parent. Each emitted action is
// delivered at most once, in emission order, to the subscribers registered
// at delivery time. Delivery always happens in a later loop task, never
// inside Emit.
type Actions[A any] struct {
	flow string
	loop Submitter
	life *Lifetime
	bus  *pubsub.Broker[any]

	mu     sync.Mutex
	nextID int
	subs   []subscription[A]
}

type subscription[A any] struct {
	id int
	fn func(A)
}

// NewActions creates the action stream of flow. Nothing is delivered once
// life has ended.
func NewActions[A any](flow string, loop Submitter, life *Lifetime, bus *pubsub.Broker[any]) *Actions[A] {
	return &Actions[A]{flow: flow, loop: loop, life: life, bus: bus}
}

// Subscribe registers fn and returns a function that cancels the
// subscription. Cancelling also drops actions emitted but not yet
// delivered.
func (a *Actions[A]) Subscribe(fn func(A)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.subs = append(a.subs, subscription[A]{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, s := range a.subs {
			if s.id == id {
				a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit queues action for delivery.
func (a *Actions[A]) Emit(action A) {
	label := fmt.Sprint(action)
	log.Debug(log.CatFlow, "action emitted", "flow", a.flow, "action", label)
	pubsub.PublishTo(a.bus, pubsub.ActionEvent, any(ActionRecord{Flow: a.flow, Action: label}))

	err := a.loop.Submit(a.flow+".action", func() {
		if !a.life.Alive() {
			log.Debug(log.CatFlow, "action dropped, flow ended", "flow", a.flow, "action", label)
			return
		}
		a.mu.Lock()
		subs := append([]subscription[A](nil), a.subs...)
		a.mu.Unlock()

		for _, s := range subs {
			if !a.subscribed(s.id) {
				continue
			}
			s.fn(action)
		}
	})
	if err != nil {
		log.ErrorErr(log.CatFlow, "action could not be queued", err, "flow", a.flow, "action", label)
	}
}

func (a *Actions[A]) subscribed(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.subs {
		if s.id == id {
			return true
		}
	}
	return false
}
