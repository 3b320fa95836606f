// Package navigation provides the in-memory navigation surfaces flows
// present into: a push/pop Stack and a Split view with sidebar, detail,
// sheet, full-screen cover and overlay slots.
//
// Every placement accepts an optional dismissal callback. Callbacks run
// synchronously on the caller (the coordination loop) after the surface
// has been updated, so a callback that raises a state machine event sees
// the surface in its final shape.
package navigation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Module is anything a surface can present: a single Screen or a nested
// Stack.
type Module interface {
	ModuleID() string
	Describe() string
}

// Screen is a presented screen. Kind names the screen ("RoomScreen",
// "RoomDetailsScreen", ...), Attrs carry what it was built with, and
// actions sent to it are delivered to the flow that created it.
type Screen struct {
	ID       string
	Kind     string
	attrs    map[string]string
	onAction func(action any)
}

// NewScreen creates a screen whose actions are handled by onAction.
func NewScreen(kind string, onAction func(action any)) *Screen {
	return &Screen{
		ID:       uuid.NewString(),
		Kind:     kind,
		attrs:    make(map[string]string),
		onAction: onAction,
	}
}

// With sets an attribute and returns the screen for chaining.
func (s *Screen) With(key, value string) *Screen {
	s.attrs[key] = value
	return s
}

// Set updates an attribute in place.
func (s *Screen) Set(key, value string) {
	s.attrs[key] = value
}

// Attr returns an attribute value.
func (s *Screen) Attr(key string) string {
	return s.attrs[key]
}

// Attrs returns a copy of the attributes.
func (s *Screen) Attrs() map[string]string {
	return maps.Clone(s.attrs)
}

// Send delivers a user action to the owning flow. It returns false when the
// screen has no handler.
func (s *Screen) Send(action any) bool {
	if s == nil || s.onAction == nil {
		return false
	}
	s.onAction(action)
	return true
}

// ModuleID implements Module.
func (s *Screen) ModuleID() string { return s.ID }

// Describe implements Module.
func (s *Screen) Describe() string {
	if len(s.attrs) == 0 {
		return s.Kind
	}
	keys := slices.Sorted(maps.Keys(s.attrs))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, s.attrs[k]))
	}
	return s.Kind + "{" + strings.Join(parts, " ") + "}"
}

// KindOf returns the screen kind of m, or "" when m is not a screen.
func KindOf(m Module) string {
	if s, ok := m.(*Screen); ok {
		return s.Kind
	}
	return ""
}

type entry struct {
	module    Module
	onDismiss func()
}

func (e *entry) dismiss() {
	if e != nil && e.onDismiss != nil {
		e.onDismiss()
	}
}

func describe(e *entry) string {
	if e == nil || e.module == nil {
		return "<nil>"
	}
	return e.module.Describe()
}
