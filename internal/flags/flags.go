// Package flags provides feature flag support for the navigation flows.
// Unknown flags are disabled. The flag set can be swapped atomically when
// the config file is reloaded.
package flags

import (
	"maps"
	"sync/atomic"

	"github.com/zjrosen/roomflow/internal/log"
)

const (
	// FlagThreads redirects focus on threaded events into the thread view.
	FlagThreads = "threads"

	// FlagSpaceSettings enables the settings entry of the space flow.
	FlagSpaceSettings = "space-settings"

	// FlagKnockRequests enables the knock requests list in room details.
	FlagKnockRequests = "knock-requests"

	// FlagPinnedEvents enables the pinned events timeline.
	FlagPinnedEvents = "pinned-events"
)

// Known lists every flag the flows read.
func Known() []string {
	return []string{FlagThreads, FlagSpaceSettings, FlagKnockRequests, FlagPinnedEvents}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags atomic.Pointer[map[string]bool]
}

// New creates a Registry from a config map. A nil map disables every flag.
func New(flags map[string]bool) *Registry {
	r := &Registry{}
	r.Replace(flags)
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Replace swaps in a new flag set.
func (r *Registry) Replace(flags map[string]bool) {
	copied := make(map[string]bool, len(flags))
	maps.Copy(copied, flags)
	r.flags.Store(&copied)
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	current := r.flags.Load()
	if current == nil {
		return false
	}
	value, exists := (*current)[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	result := make(map[string]bool)
	if r == nil {
		return result
	}
	if current := r.flags.Load(); current != nil {
		maps.Copy(result, *current)
	}
	return result
}
