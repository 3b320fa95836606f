package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zjrosen/roomflow/internal/log"
)

// RecentsStore persists recently visited rooms.
type RecentsStore interface {
	Track(ctx context.Context, userID, roomID string, at time.Time) error
}

// Invite records an invite sent through a Memory client.
type Invite struct {
	RoomID string
	UserID string
}

// MemoryOption configures a Memory client.
type MemoryOption func(*Memory)

// WithLatency delays every request by d, honouring cancellation.
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.latency = d }
}

// WithRecents persists TrackRecentlyVisitedRoom calls in store.
func WithRecents(store RecentsStore) MemoryOption {
	return func(m *Memory) { m.recentsStore = store }
}

// Memory is an in-memory Client backed by fixtures.
type Memory struct {
	userID       string
	latency      time.Duration
	recentsStore RecentsStore

	mu          sync.Mutex
	rooms       map[string]RoomInfo
	aliases     map[string]AliasResolution
	events      map[string]EventDetails
	inviteFails map[string]error
	invites     []Invite
	recents     []string
	calls       map[string]int
}

var _ Client = (*Memory)(nil)

func NewMemory(userID string, opts ...MemoryOption) *Memory {
	m := &Memory{
		userID:      userID,
		rooms:       make(map[string]RoomInfo),
		aliases:     make(map[string]AliasResolution),
		events:      make(map[string]EventDetails),
		inviteFails: make(map[string]error),
		calls:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddRoom registers or replaces a room. When the room has an alias, the
// alias resolves to it.
func (m *Memory) AddRoom(info RoomInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[info.ID] = info
	if info.Alias != "" {
		m.aliases[info.Alias] = AliasResolution{RoomID: info.ID}
	}
}

// AddAlias points alias at roomID.
func (m *Memory) AddAlias(alias, roomID string, via ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[alias] = AliasResolution{RoomID: roomID, Via: via}
}

// AddEvent registers an event, optionally inside a thread.
func (m *Memory) AddEvent(details EventDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[details.RoomID+"/"+details.EventID] = details
}

// FailInvite makes invites for userID fail with err.
func (m *Memory) FailInvite(userID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inviteFails[userID] = err
}

func (m *Memory) UserID() string { return m.userID }

func (m *Memory) RoomSummary(ctx context.Context, roomID string) (RoomInfo, error) {
	if err := m.request(ctx, "RoomSummary"); err != nil {
		return RoomInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.rooms[roomID]
	if !ok {
		return RoomInfo{}, fmt.Errorf("room summary %s: %w", roomID, ErrRoomNotFound)
	}
	return info, nil
}

func (m *Memory) ResolveAlias(ctx context.Context, alias string) (AliasResolution, error) {
	if err := m.request(ctx, "ResolveAlias"); err != nil {
		return AliasResolution{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.aliases[alias]
	if !ok {
		return AliasResolution{}, fmt.Errorf("resolve %s: %w", alias, ErrAliasNotFound)
	}
	return res, nil
}

func (m *Memory) EventDetails(ctx context.Context, roomID, eventID string) (EventDetails, error) {
	if err := m.request(ctx, "EventDetails"); err != nil {
		return EventDetails{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	details, ok := m.events[roomID+"/"+eventID]
	if !ok {
		return EventDetails{}, fmt.Errorf("event %s in %s: %w", eventID, roomID, ErrEventNotFound)
	}
	return details, nil
}

func (m *Memory) Invite(ctx context.Context, roomID, userID string) error {
	if err := m.request(ctx, "Invite"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inviteFails[userID]; err != nil {
		return fmt.Errorf("invite %s: %w", userID, err)
	}
	m.invites = append(m.invites, Invite{RoomID: roomID, UserID: userID})
	return nil
}

func (m *Memory) TrackRecentlyVisitedRoom(ctx context.Context, roomID string) error {
	if err := m.request(ctx, "TrackRecentlyVisitedRoom"); err != nil {
		return err
	}
	m.mu.Lock()
	m.recents = slices.DeleteFunc(m.recents, func(id string) bool { return id == roomID })
	m.recents = append([]string{roomID}, m.recents...)
	m.mu.Unlock()

	if m.recentsStore != nil {
		if err := m.recentsStore.Track(ctx, m.userID, roomID, time.Now()); err != nil {
			return fmt.Errorf("track recent room %s: %w", roomID, err)
		}
	}
	return nil
}

func (m *Memory) JoinRoom(ctx context.Context, roomID string, via []string) (RoomInfo, error) {
	if err := m.request(ctx, "JoinRoom"); err != nil {
		return RoomInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.rooms[roomID]
	if !ok {
		return RoomInfo{}, fmt.Errorf("join %s via %v: %w", roomID, via, ErrRoomNotFound)
	}
	info.Membership = MembershipJoined
	m.rooms[roomID] = info
	return info, nil
}

// Invites returns the successful invites, in order.
func (m *Memory) Invites() []Invite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.invites)
}

// Recents returns recently visited rooms, most recent first.
func (m *Memory) Recents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.recents)
}

// Calls returns how many times method was requested.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Memory) request(ctx context.Context, method string) error {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()

	log.Debug(log.CatSession, "session request", "method", method)
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
