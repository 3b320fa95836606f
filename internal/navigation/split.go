package navigation

import (
	"strings"

	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

// Split is the top-level split view: a sidebar and a detail column, plus
// modal slots layered above both.
type Split struct {
	name    string
	sidebar *entry
	detail  *entry
	sheet   *entry
	cover   *entry
	overlay *entry
	bus     *pubsub.Broker[any]
}

// NewSplit creates an empty split view that publishes changes on bus (which
// may be nil).
func NewSplit(name string, bus *pubsub.Broker[any]) *Split {
	return &Split{name: name, bus: bus}
}

// NewStack creates a stack sharing the split's event bus.
func (s *Split) NewStack(name string) *Stack {
	return NewStack(name, WithStackBus(s.bus))
}

// SetSidebar places m in the sidebar column.
func (s *Split) SetSidebar(m Module, animated bool, onDismiss func()) {
	s.place(&s.sidebar, "sidebar", m, animated, onDismiss)
}

// SetDetail places m in the detail column. A nil module clears it.
func (s *Split) SetDetail(m Module, animated bool, onDismiss func()) {
	s.place(&s.detail, "detail", m, animated, onDismiss)
}

// SetSheet presents m as a sheet above both columns.
func (s *Split) SetSheet(m Module, animated bool, onDismiss func()) {
	s.place(&s.sheet, "sheet", m, animated, onDismiss)
}

// SetFullScreenCover presents m above everything but the overlay.
func (s *Split) SetFullScreenCover(m Module, animated bool, onDismiss func()) {
	s.place(&s.cover, "cover", m, animated, onDismiss)
}

// SetOverlay places m above every other slot (used to obscure the app).
func (s *Split) SetOverlay(m Module, animated bool, onDismiss func()) {
	s.place(&s.overlay, "overlay", m, animated, onDismiss)
}

func (s *Split) Sidebar() Module         { return moduleOf(s.sidebar) }
func (s *Split) Detail() Module          { return moduleOf(s.detail) }
func (s *Split) Sheet() Module           { return moduleOf(s.sheet) }
func (s *Split) FullScreenCover() Module { return moduleOf(s.cover) }
func (s *Split) Overlay() Module         { return moduleOf(s.overlay) }

// Tree renders the split for logs and the inspector, one slot per line.
func (s *Split) Tree() string {
	var b strings.Builder
	for _, slot := range []struct {
		name string
		e    *entry
	}{
		{"sidebar", s.sidebar},
		{"detail", s.detail},
		{"sheet", s.sheet},
		{"cover", s.cover},
		{"overlay", s.overlay},
	} {
		b.WriteString(slot.name)
		b.WriteString(": ")
		b.WriteString(describe(slot.e))
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Split) place(slot **entry, name string, m Module, animated bool, onDismiss func()) {
	old := *slot
	if old != nil && m != nil && old.module.ModuleID() == m.ModuleID() {
		return
	}

	*slot = nil
	if m != nil {
		if stack, ok := m.(*Stack); ok {
			stack.presenter = s
		}
		*slot = &entry{module: m, onDismiss: onDismiss}
		s.publish(name, "presented", m, animated)
	}
	if old != nil {
		s.publish(name, "dismissed", old.module, animated)
		old.dismiss()
	}
}

func (s *Split) publish(slot, op string, m Module, animated bool) {
	c := Change{Surface: s.name, Slot: slot, Op: op, Module: m.Describe(), Animated: animated}
	log.Debug(log.CatNav, "split changed", "slot", slot, "op", op, "module", c.Module)
	eventType := pubsub.PresentedEvent
	if op == "dismissed" {
		eventType = pubsub.DismissedEvent
	}
	pubsub.PublishTo(s.bus, eventType, any(c))
}

func moduleOf(e *entry) Module {
	if e == nil {
		return nil
	}
	return e.module
}

// Screens lists every presented screen, bottom-most first: the sidebar,
// then the detail column, then the modal slots. Stacks contribute their
// root, their pushed modules and their own sheet.
func (s *Split) Screens() []*Screen {
	var out []*Screen
	for _, e := range []*entry{s.sidebar, s.detail, s.sheet, s.cover, s.overlay} {
		if e != nil {
			out = collectScreens(out, e.module)
		}
	}
	return out
}

// Find returns the top-most presented screen of the given kind, or nil.
func (s *Split) Find(kind string) *Screen {
	screens := s.Screens()
	for i := len(screens) - 1; i >= 0; i-- {
		if screens[i].Kind == kind {
			return screens[i]
		}
	}
	return nil
}

func collectScreens(out []*Screen, m Module) []*Screen {
	switch m := m.(type) {
	case *Screen:
		out = append(out, m)
	case *Stack:
		for _, mod := range m.Modules() {
			out = collectScreens(out, mod)
		}
		if m.sheet != nil {
			out = collectScreens(out, m.sheet.module)
		}
	}
	return out
}
