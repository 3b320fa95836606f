package testutil

import (
	"time"

	"github.com/zjrosen/roomflow/internal/session"
)

// Builder accumulates session fixtures.
type Builder struct {
	userID  string
	latency time.Duration
	rooms   []session.RoomInfo
	aliases []aliasData
	events  []session.EventDetails
}

type aliasData struct {
	alias  string
	roomID string
	via    []string
}

// NewBuilder creates a builder for a session signed in as userID.
func NewBuilder(userID string) *Builder {
	return &Builder{userID: userID}
}

// WithLatency delays every session request.
func (b *Builder) WithLatency(d time.Duration) *Builder {
	b.latency = d
	return b
}

// WithRoom adds a joined room with optional configuration.
func (b *Builder) WithRoom(id string, opts ...RoomOption) *Builder {
	room := session.RoomInfo{ID: id, Name: id, Membership: session.MembershipJoined}
	for _, opt := range opts {
		opt(&room)
	}
	b.rooms = append(b.rooms, room)
	return b
}

// WithAlias points alias at roomID.
func (b *Builder) WithAlias(alias, roomID string, via ...string) *Builder {
	b.aliases = append(b.aliases, aliasData{alias, roomID, via})
	return b
}

// WithEvent adds an event. A non-empty threadRootID places it in a thread.
func (b *Builder) WithEvent(roomID, eventID, threadRootID string) *Builder {
	b.events = append(b.events, session.EventDetails{RoomID: roomID, EventID: eventID, ThreadRootID: threadRootID})
	return b
}

// Build creates the in-memory session.
func (b *Builder) Build(opts ...session.MemoryOption) *session.Memory {
	if b.latency > 0 {
		opts = append(opts, session.WithLatency(b.latency))
	}
	client := session.NewMemory(b.userID, opts...)
	for _, room := range b.rooms {
		client.AddRoom(room)
	}
	for _, a := range b.aliases {
		client.AddAlias(a.alias, a.roomID, a.via...)
	}
	for _, e := range b.events {
		client.AddEvent(e)
	}
	return client
}
