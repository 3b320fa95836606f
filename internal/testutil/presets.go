package testutil

// Fixture ids used by WithStandardRooms.
const (
	UserID       = "@me:example.org"
	RoomABC      = "!abc:example.org"
	RoomDEF      = "!def:example.org"
	RoomInvite   = "!invite:example.org"
	RoomUnknown  = "!unknown:example.org"
	SpaceHQ      = "!hq:example.org"
	SpaceChild   = "!hq-general:example.org"
	SpaceInvite  = "!lab:example.org"
	AliasGeneral = "#general:example.org"
	ThreadRoot   = "$root"
	ThreadReply  = "$reply"
	PlainEvent   = "$plain"
)

// WithStandardRooms adds the standard fixture set: two joined rooms, an
// invite, a room the user has never seen, a space with one child, a space
// the user is invited to, an alias
// and a threaded conversation in RoomABC.
func (b *Builder) WithStandardRooms() *Builder {
	return b.
		WithRoom(RoomABC, Name("General"), Alias(AliasGeneral)).
		WithRoom(RoomDEF, Name("Random")).
		WithRoom(RoomInvite, Name("Invite"), Invited()).
		WithRoom(RoomUnknown, Name("Public"), Unknown()).
		WithRoom(SpaceHQ, Name("HQ"), Space(SpaceChild)).
		WithRoom(SpaceChild, Name("HQ General")).
		WithRoom(SpaceInvite, Name("Lab"), Space(), Invited()).
		WithEvent(RoomABC, ThreadRoot, "").
		WithEvent(RoomABC, ThreadReply, ThreadRoot).
		WithEvent(RoomABC, PlainEvent, "")
}

// StandardSession builds the standard fixture session.
func StandardSession() *Builder {
	return NewBuilder(UserID).WithStandardRooms()
}
