package navigation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

// Change is published on the event bus for every surface mutation.
type Change struct {
	Surface  string
	Slot     string // root, push, sheet, sidebar, detail, cover, overlay
	Op       string // presented, dismissed
	Module   string
	Animated bool
}

func (c Change) String() string {
	return fmt.Sprintf("%s/%s %s %s", c.Surface, c.Slot, c.Op, c.Module)
}

type sheetPresenter interface {
	SetSheet(m Module, animated bool, onDismiss func())
	Sheet() Module
}

// Stack is a navigation stack: an optional root plus pushed modules, and a
// sheet slot. When the stack is placed in a Split, sheets are presented by
// the split instead.
type Stack struct {
	id        string
	name      string
	root      *entry
	items     []*entry
	sheet     *entry
	presenter sheetPresenter
	bus       *pubsub.Broker[any]
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithStackBus publishes Changes on bus.
func WithStackBus(bus *pubsub.Broker[any]) StackOption {
	return func(s *Stack) { s.bus = bus }
}

// NewStack creates an empty stack. name labels it in logs and tree dumps.
func NewStack(name string, opts ...StackOption) *Stack {
	s := &Stack{id: uuid.NewString(), name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stack label.
func (s *Stack) Name() string { return s.name }

// ModuleID implements Module.
func (s *Stack) ModuleID() string { return s.id }

// Describe implements Module.
func (s *Stack) Describe() string {
	parts := []string{"root=" + describe(s.root)}
	for _, e := range s.items {
		parts = append(parts, e.module.Describe())
	}
	return fmt.Sprintf("Stack(%s)[%s]", s.name, strings.Join(parts, " > "))
}

// Root returns the root module or nil.
func (s *Stack) Root() Module {
	if s.root == nil {
		return nil
	}
	return s.root.module
}

// Top returns the top-most pushed module, falling back to the root.
func (s *Stack) Top() Module {
	if n := len(s.items); n > 0 {
		return s.items[n-1].module
	}
	return s.Root()
}

// Count returns the number of pushed modules, excluding the root.
func (s *Stack) Count() int { return len(s.items) }

// Modules returns the root (if any) followed by pushed modules.
func (s *Stack) Modules() []Module {
	mods := make([]Module, 0, len(s.items)+1)
	if s.root != nil {
		mods = append(mods, s.root.module)
	}
	for _, e := range s.items {
		mods = append(mods, e.module)
	}
	return mods
}

// Contains reports whether m is the root or a pushed module.
func (s *Stack) Contains(m Module) bool {
	for _, mod := range s.Modules() {
		if mod.ModuleID() == m.ModuleID() {
			return true
		}
	}
	return false
}

// SetRoot pops every pushed module, then replaces the root. The previous
// root's dismissal callback runs after the replacement. A nil module clears
// the root.
func (s *Stack) SetRoot(m Module, animated bool, onDismiss func()) {
	if s.root != nil && m != nil && s.root.module.ModuleID() == m.ModuleID() {
		return
	}
	s.PopToRoot(false)

	old := s.root
	s.root = nil
	if m != nil {
		s.root = &entry{module: m, onDismiss: onDismiss}
		s.publish("root", "presented", m, animated)
	}
	if old != nil {
		s.publish("root", "dismissed", old.module, animated)
		old.dismiss()
	}
}

// Push presents m on top. onPop runs when m is popped by any means.
func (s *Stack) Push(m Module, animated bool, onPop func()) {
	if m == nil {
		return
	}
	s.items = append(s.items, &entry{module: m, onDismiss: onPop})
	s.publish("push", "presented", m, animated)
}

// Pop removes the top pushed module. The root is never popped.
func (s *Stack) Pop(animated bool) {
	if len(s.items) == 0 {
		return
	}
	s.popTo(len(s.items)-1, animated)
}

// PopToRoot removes every pushed module, top first.
func (s *Stack) PopToRoot(animated bool) {
	s.popTo(0, animated)
}

// PopTo removes pushed modules until Count() == count.
func (s *Stack) PopTo(count int, animated bool) {
	s.popTo(count, animated)
}

// PopToModule removes every module pushed above m. It is a no-op when m is
// not on the stack.
func (s *Stack) PopToModule(m Module, animated bool) {
	if s.root != nil && s.root.module.ModuleID() == m.ModuleID() {
		s.popTo(0, animated)
		return
	}
	for i, e := range s.items {
		if e.module.ModuleID() == m.ModuleID() {
			s.popTo(i+1, animated)
			return
		}
	}
}

// Remove removes m and everything above it.
func (s *Stack) Remove(m Module, animated bool) {
	for i, e := range s.items {
		if e.module.ModuleID() == m.ModuleID() {
			s.popTo(i, animated)
			return
		}
	}
}

func (s *Stack) popTo(count int, animated bool) {
	if count < 0 {
		count = 0
	}
	if count >= len(s.items) {
		return
	}
	removed := s.items[count:]
	s.items = append([]*entry(nil), s.items[:count]...)

	// Callbacks fire top to bottom, after the stack is already in its final
	// shape.
	for i := len(removed) - 1; i >= 0; i-- {
		s.publish("push", "dismissed", removed[i].module, animated)
	}
	for i := len(removed) - 1; i >= 0; i-- {
		removed[i].dismiss()
	}
}

// SetSheet presents m as a sheet. When the stack lives in a Split the split
// presents it. A nil module dismisses the current sheet.
func (s *Stack) SetSheet(m Module, animated bool, onDismiss func()) {
	if s.presenter != nil {
		s.presenter.SetSheet(m, animated, onDismiss)
		return
	}
	old := s.sheet
	s.sheet = nil
	if m != nil {
		s.sheet = &entry{module: m, onDismiss: onDismiss}
		s.publish("sheet", "presented", m, animated)
	}
	if old != nil {
		s.publish("sheet", "dismissed", old.module, animated)
		old.dismiss()
	}
}

// Sheet returns the presented sheet or nil.
func (s *Stack) Sheet() Module {
	if s.presenter != nil {
		return s.presenter.Sheet()
	}
	if s.sheet == nil {
		return nil
	}
	return s.sheet.module
}

func (s *Stack) publish(slot, op string, m Module, animated bool) {
	c := Change{Surface: s.name, Slot: slot, Op: op, Module: m.Describe(), Animated: animated}
	log.Debug(log.CatNav, "stack changed", "stack", s.name, "slot", slot, "op", op, "module", c.Module)
	eventType := pubsub.PresentedEvent
	if op == "dismissed" {
		eventType = pubsub.DismissedEvent
	}
	pubsub.PublishTo(s.bus, eventType, any(c))
}
