package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/roomflow/internal/log"
)

// TimelineKind distinguishes the timelines a flow can build.
type TimelineKind string

const (
	TimelineLive         TimelineKind = "live"
	TimelineThread       TimelineKind = "thread"
	TimelinePinnedEvents TimelineKind = "pinned"
	TimelineMediaEvents  TimelineKind = "media"
)

// Timeline is a handle on a constructed timeline. Screens keep it for as
// long as they are presented.
type Timeline struct {
	ID           string
	Kind         TimelineKind
	RoomID       string
	ThreadRootID string
	FocusEventID string
}

func (t *Timeline) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.RoomID)
}

// Focus moves an existing timeline to eventID without rebuilding it.
func (t *Timeline) Focus(eventID string) {
	t.FocusEventID = eventID
}

// TimelineFactory builds timelines for rooms. Building a timeline is
// expensive, so flows reuse the one they hold whenever possible.
type TimelineFactory interface {
	RoomTimeline(roomID, focusEventID string) (*Timeline, error)
	ThreadTimeline(roomID, rootEventID, focusEventID string) (*Timeline, error)
	PinnedEventsTimeline(roomID string) (*Timeline, error)
	MediaEventsTimeline(roomID string) (*Timeline, error)
}

// MemoryTimelines is a TimelineFactory that records every build.
type MemoryTimelines struct {
	mu    sync.Mutex
	built []Timeline
	fail  map[string]error
}

func NewMemoryTimelines() *MemoryTimelines {
	return &MemoryTimelines{fail: make(map[string]error)}
}

// FailFor makes every build for roomID return err.
func (f *MemoryTimelines) FailFor(roomID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[roomID] = err
}

func (f *MemoryTimelines) RoomTimeline(roomID, focusEventID string) (*Timeline, error) {
	return f.build(Timeline{Kind: TimelineLive, RoomID: roomID, FocusEventID: focusEventID})
}

func (f *MemoryTimelines) ThreadTimeline(roomID, rootEventID, focusEventID string) (*Timeline, error) {
	return f.build(Timeline{Kind: TimelineThread, RoomID: roomID, ThreadRootID: rootEventID, FocusEventID: focusEventID})
}

func (f *MemoryTimelines) PinnedEventsTimeline(roomID string) (*Timeline, error) {
	return f.build(Timeline{Kind: TimelinePinnedEvents, RoomID: roomID})
}

func (f *MemoryTimelines) MediaEventsTimeline(roomID string) (*Timeline, error) {
	return f.build(Timeline{Kind: TimelineMediaEvents, RoomID: roomID})
}

// Built returns every timeline built so far, oldest first.
func (f *MemoryTimelines) Built() []Timeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Timeline(nil), f.built...)
}

// Count returns how many timelines of kind were built for roomID.
func (f *MemoryTimelines) Count(kind TimelineKind, roomID string) int {
	n := 0
	for _, t := range f.Built() {
		if t.Kind == kind && t.RoomID == roomID {
			n++
		}
	}
	return n
}

func (f *MemoryTimelines) build(t Timeline) (*Timeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[t.RoomID]; err != nil {
		return nil, fmt.Errorf("build %s timeline for %s: %w", t.Kind, t.RoomID, err)
	}
	t.ID = uuid.NewString()
	f.built = append(f.built, t)
	log.Debug(log.CatSession, "timeline built", "kind", t.Kind, "room", t.RoomID, "thread", t.ThreadRootID, "focus", t.FocusEventID)
	return &t, nil
}
