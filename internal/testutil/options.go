package testutil

import "github.com/zjrosen/roomflow/internal/session"

// RoomOption configures a fixture room.
type RoomOption func(*session.RoomInfo)

// Name sets the display name.
func Name(name string) RoomOption {
	return func(r *session.RoomInfo) { r.Name = name }
}

// Alias sets the canonical alias, which then resolves to the room.
func Alias(alias string) RoomOption {
	return func(r *session.RoomInfo) { r.Alias = alias }
}

// Joined marks the room as joined. Rooms are joined by default.
func Joined() RoomOption {
	return func(r *session.RoomInfo) { r.Membership = session.MembershipJoined }
}

// Invited marks the room as a pending invite.
func Invited() RoomOption {
	return func(r *session.RoomInfo) { r.Membership = session.MembershipInvited }
}

// Unknown marks the room as not joined and not invited.
func Unknown() RoomOption {
	return func(r *session.RoomInfo) { r.Membership = session.MembershipUnknown }
}

// Space marks the room as a space with the given children.
func Space(children ...string) RoomOption {
	return func(r *session.RoomInfo) {
		r.IsSpace = true
		r.Children = children
	}
}

// Direct marks the room as a direct chat.
func Direct() RoomOption {
	return func(r *session.RoomInfo) { r.IsDirect = true }
}
