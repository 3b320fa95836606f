// Package session defines the collaborators flows depend on for room data
// (the chat session and timeline construction) along with an in-memory
// implementation used by the simulator and tests.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAliasNotFound = errors.New("alias not found")
	ErrEventNotFound = errors.New("event not found")
)

// Membership is the signed-in user's membership of a room.
type Membership int

const (
	MembershipUnknown Membership = iota
	MembershipJoined
	MembershipInvited
	MembershipKnocked
	MembershipLeft
	MembershipBanned
)

func (m Membership) String() string {
	switch m {
	case MembershipJoined:
		return "joined"
	case MembershipInvited:
		return "invited"
	case MembershipKnocked:
		return "knocked"
	case MembershipLeft:
		return "left"
	case MembershipBanned:
		return "banned"
	}
	return "unknown"
}

// ParseMembership is the inverse of Membership.String.
func ParseMembership(s string) Membership {
	for m := MembershipJoined; m <= MembershipBanned; m++ {
		if m.String() == strings.ToLower(s) {
			return m
		}
	}
	return MembershipUnknown
}

// RoomInfo is the summary a flow needs to decide how to present a room.
type RoomInfo struct {
	ID         string
	Name       string
	Alias      string
	Membership Membership
	IsSpace    bool
	IsDirect   bool
	// Children lists the room ids of a space's children.
	Children []string
}

// AliasResolution is the result of resolving a room alias.
type AliasResolution struct {
	RoomID string
	Via    []string
}

// EventDetails is the subset of an event needed for routing.
type EventDetails struct {
	RoomID  string
	EventID string
	// ThreadRootID is set when the event belongs to a thread.
	ThreadRootID string
}

// Client is the chat session as seen by the flows.
type Client interface {
	UserID() string
	RoomSummary(ctx context.Context, roomID string) (RoomInfo, error)
	ResolveAlias(ctx context.Context, alias string) (AliasResolution, error)
	EventDetails(ctx context.Context, roomID, eventID string) (EventDetails, error)
	Invite(ctx context.Context, roomID, userID string) error
	JoinRoom(ctx context.Context, roomID string, via []string) (RoomInfo, error)
	TrackRecentlyVisitedRoom(ctx context.Context, roomID string) error
}

// InviteError reports the invitees that could not be invited.
type InviteError struct {
	RoomID string
	Failed map[string]error
}

func (e *InviteError) Error() string {
	users := slices.Sorted(maps.Keys(e.Failed))
	return fmt.Sprintf("invite to %s failed for %d user(s): %s", e.RoomID, len(users), strings.Join(users, ", "))
}

// Unwrap exposes the individual failures.
func (e *InviteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
