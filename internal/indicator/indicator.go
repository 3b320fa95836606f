// Package indicator manages the app-wide user indicators (loading modals
// and toasts). Indicators are keyed by a stable id per flow so concurrent
// flows never clobber each other's indicators.
package indicator

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

// Type selects how an indicator is shown.
type Type int

const (
	Toast Type = iota
	Modal
)

func (t Type) String() string {
	if t == Modal {
		return "modal"
	}
	return "toast"
}

// Indicator is a single user indicator.
type Indicator struct {
	ID    string
	Type  Type
	Title string
	Icon  string
	// Interactive modals block user input while shown.
	Interactive bool
}

// Loading returns the standard loading modal for id.
func Loading(id string) Indicator {
	return Indicator{ID: id, Type: Modal, Title: "Loading…", Interactive: true}
}

// Failure returns the generic failure toast for id.
func Failure(id string) Indicator {
	return Indicator{ID: id, Type: Toast, Title: "Sorry, an error occurred", Icon: "xmark"}
}

// Success returns a confirmation toast with a fresh id.
func Success(title string) Indicator {
	return Indicator{ID: uuid.NewString(), Type: Toast, Title: title, Icon: "checkmark"}
}

// Scheduler runs fn on the coordination loop after d.
type Scheduler interface {
	After(name string, d time.Duration, fn func())
}

// Op is the kind of an indicator history entry.
type Op string

const (
	OpShown     Op = "shown"
	OpRetracted Op = "retracted"
	OpCancelled Op = "cancelled" // retracted before its activation delay elapsed
)

// Event records an indicator change. Events are published on the bus and
// kept in History.
type Event struct {
	Op        Op
	Indicator Indicator
	At        time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %q", e.Op, e.Indicator.ID, e.Indicator.Title)
}

// Option configures a Controller.
type Option func(*Controller)

// WithToastDuration retracts toasts automatically after d. Zero keeps them
// until retracted.
func WithToastDuration(d time.Duration) Option {
	return func(c *Controller) { c.toastDuration = d }
}

// WithBus publishes indicator Events on bus.
func WithBus(bus *pubsub.Broker[any]) Option {
	return func(c *Controller) { c.bus = bus }
}

// Controller shows and retracts indicators. Submit and Retract are called on
// the coordination loop; the read accessors are safe from any goroutine.
type Controller struct {
	scheduler     Scheduler
	toastDuration time.Duration
	bus           *pubsub.Broker[any]

	mu         sync.Mutex
	active     map[string]Indicator
	generation map[string]int
	history    []Event
}

// NewController creates a controller that schedules delayed work on s.
func NewController(s Scheduler, opts ...Option) *Controller {
	c := &Controller{
		scheduler:  s,
		active:     make(map[string]Indicator),
		generation: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit shows ind once delay has elapsed. A Retract before then cancels
// it, so fast operations never flash the indicator. Submitting an id that
// is already shown replaces it.
func (c *Controller) Submit(ind Indicator, delay time.Duration) {
	c.mu.Lock()
	c.generation[ind.ID]++
	gen := c.generation[ind.ID]
	c.mu.Unlock()

	if delay <= 0 {
		c.show(ind, gen)
		return
	}
	c.scheduler.After("indicator.activate", delay, func() {
		c.show(ind, gen)
	})
}

// Retract hides id, cancelling it if it is still waiting to activate.
func (c *Controller) Retract(id string) {
	c.mu.Lock()
	c.generation[id]++
	ind, shown := c.active[id]
	if shown {
		delete(c.active, id)
	}
	c.mu.Unlock()

	if shown {
		c.record(OpRetracted, ind)
		return
	}
	c.record(OpCancelled, Indicator{ID: id})
}

// IsShowing reports whether id is currently shown.
func (c *Controller) IsShowing(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[id]
	return ok
}

// Active returns the shown indicators sorted by id.
func (c *Controller) Active() []Indicator {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := slices.Sorted(maps.Keys(c.active))
	out := make([]Indicator, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.active[id])
	}
	return out
}

// History returns every recorded event, oldest first.
func (c *Controller) History() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// WasShown reports whether id was ever shown.
func (c *Controller) WasShown(id string) bool {
	for _, e := range c.History() {
		if e.Op == OpShown && e.Indicator.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) show(ind Indicator, gen int) {
	c.mu.Lock()
	if c.generation[ind.ID] != gen {
		c.mu.Unlock()
		return
	}
	c.active[ind.ID] = ind
	c.mu.Unlock()

	c.record(OpShown, ind)

	if ind.Type == Toast && c.toastDuration > 0 {
		c.scheduler.After("indicator.expire", c.toastDuration, func() {
			c.mu.Lock()
			current := c.generation[ind.ID] == gen
			c.mu.Unlock()
			if current {
				c.Retract(ind.ID)
			}
		})
	}
}

func (c *Controller) record(op Op, ind Indicator) {
	e := Event{Op: op, Indicator: ind, At: time.Now()}
	c.mu.Lock()
	c.history = append(c.history, e)
	c.mu.Unlock()

	log.Debug(log.CatIndicator, "indicator "+string(op), "id", ind.ID, "type", ind.Type, "title", ind.Title)
	pubsub.PublishTo(c.bus, pubsub.IndicatorEvent, any(e))
}
