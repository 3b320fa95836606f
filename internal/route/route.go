// Package route defines the app-wide deep-link value dispatched into the
// flow hierarchy.
package route

import (
	"fmt"
	"strings"
)

// Kind enumerates the route variants.
type Kind int

const (
	KindRoom Kind = iota + 1
	KindRoomAlias
	KindChildRoom
	KindChildRoomAlias
	KindRoomDetails
	KindRoomList
	KindRoomMemberDetails
	KindEvent
	KindEventOnRoomAlias
	KindChildEvent
	KindChildEventOnRoomAlias
	KindUserProfile
	KindCall
	KindGenericCallLink
	KindSettings
	KindChatBackupSettings
	KindShare
	KindTransferOwnership
	KindThread
	KindAccountProvisioningLink
)

var kindNames = map[Kind]string{
	KindRoom:                    "room",
	KindRoomAlias:               "roomAlias",
	KindChildRoom:               "childRoom",
	KindChildRoomAlias:          "childRoomAlias",
	KindRoomDetails:             "roomDetails",
	KindRoomList:                "roomList",
	KindRoomMemberDetails:       "roomMemberDetails",
	KindEvent:                   "event",
	KindEventOnRoomAlias:        "eventOnRoomAlias",
	KindChildEvent:              "childEvent",
	KindChildEventOnRoomAlias:   "childEventOnRoomAlias",
	KindUserProfile:             "userProfile",
	KindCall:                    "call",
	KindGenericCallLink:         "genericCallLink",
	KindSettings:                "settings",
	KindChatBackupSettings:      "chatBackupSettings",
	KindShare:                   "share",
	KindTransferOwnership:       "transferOwnership",
	KindThread:                  "thread",
	KindAccountProvisioningLink: "accountProvisioningLink",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromString is the inverse of Kind.String. ok is false for unknown
// names.
func KindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every route kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindRoom; k <= KindAccountProvisioningLink; k++ {
		out = append(out, k)
	}
	return out
}

// SharePayload is content shared into the app from outside.
type SharePayload struct {
	RoomID     string
	Text       string
	MediaFiles []string
}

// Route is a deep-link target. Only the fields relevant to Kind are set.
type Route struct {
	Kind         Kind
	RoomID       string
	Alias        string
	Via          []string
	EventID      string
	ThreadRootID string
	UserID       string
	URL          string
	Share        SharePayload
}

func Room(roomID string, via ...string) Route {
	return Route{Kind: KindRoom, RoomID: roomID, Via: via}
}

func RoomAlias(alias string) Route {
	return Route{Kind: KindRoomAlias, Alias: alias}
}

func ChildRoom(roomID string, via ...string) Route {
	return Route{Kind: KindChildRoom, RoomID: roomID, Via: via}
}

func ChildRoomAlias(alias string) Route {
	return Route{Kind: KindChildRoomAlias, Alias: alias}
}

func RoomDetails(roomID string) Route {
	return Route{Kind: KindRoomDetails, RoomID: roomID}
}

func RoomList() Route {
	return Route{Kind: KindRoomList}
}

func RoomMemberDetails(userID string) Route {
	return Route{Kind: KindRoomMemberDetails, UserID: userID}
}

func Event(eventID, roomID string, via ...string) Route {
	return Route{Kind: KindEvent, EventID: eventID, RoomID: roomID, Via: via}
}

func EventOnRoomAlias(eventID, alias string) Route {
	return Route{Kind: KindEventOnRoomAlias, EventID: eventID, Alias: alias}
}

func ChildEvent(eventID, roomID string, via ...string) Route {
	return Route{Kind: KindChildEvent, EventID: eventID, RoomID: roomID, Via: via}
}

func ChildEventOnRoomAlias(eventID, alias string) Route {
	return Route{Kind: KindChildEventOnRoomAlias, EventID: eventID, Alias: alias}
}

func UserProfile(userID string) Route {
	return Route{Kind: KindUserProfile, UserID: userID}
}

func Call(roomID string) Route {
	return Route{Kind: KindCall, RoomID: roomID}
}

func GenericCallLink(url string) Route {
	return Route{Kind: KindGenericCallLink, URL: url}
}

func Settings() Route {
	return Route{Kind: KindSettings}
}

func ChatBackupSettings() Route {
	return Route{Kind: KindChatBackupSettings}
}

func Share(payload SharePayload) Route {
	return Route{Kind: KindShare, RoomID: payload.RoomID, Share: payload}
}

func TransferOwnership(roomID string) Route {
	return Route{Kind: KindTransferOwnership, RoomID: roomID}
}

// Thread opens the thread rooted at rootEventID, optionally focused on
// focusEventID, in the currently open room.
func Thread(roomID, rootEventID, focusEventID string) Route {
	return Route{Kind: KindThread, RoomID: roomID, ThreadRootID: rootEventID, EventID: focusEventID}
}

func AccountProvisioningLink(url string) Route {
	return Route{Kind: KindAccountProvisioningLink, URL: url}
}

// NeedsAliasResolution reports whether the route names its room by alias.
func (r Route) NeedsAliasResolution() bool {
	switch r.Kind {
	case KindRoomAlias, KindChildRoomAlias, KindEventOnRoomAlias, KindChildEventOnRoomAlias:
		return true
	}
	return false
}

// IsChild reports whether the route asks for a nested child room flow.
func (r Route) IsChild() bool {
	switch r.Kind {
	case KindChildRoom, KindChildRoomAlias, KindChildEvent, KindChildEventOnRoomAlias:
		return true
	}
	return false
}

// Normalize returns the id-based variant of an alias route once the alias
// has been resolved to roomID. Routes that do not carry an alias are
// returned unchanged.
func Normalize(r Route, roomID string, via []string) Route {
	switch r.Kind {
	case KindRoomAlias:
		return Room(roomID, via...)
	case KindChildRoomAlias:
		return ChildRoom(roomID, via...)
	case KindEventOnRoomAlias:
		return Event(r.EventID, roomID, via...)
	case KindChildEventOnRoomAlias:
		return ChildEvent(r.EventID, roomID, via...)
	}
	return r
}

// AsChild converts a room or event route into its child variant.
func (r Route) AsChild() Route {
	switch r.Kind {
	case KindRoom:
		r.Kind = KindChildRoom
	case KindRoomAlias:
		r.Kind = KindChildRoomAlias
	case KindEvent:
		r.Kind = KindChildEvent
	case KindEventOnRoomAlias:
		r.Kind = KindChildEventOnRoomAlias
	}
	return r
}

func (r Route) String() string {
	var b strings.Builder
	b.WriteString(r.Kind.String())
	b.WriteByte('(')
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("room", r.RoomID)
	add("alias", r.Alias)
	add("event", r.EventID)
	add("thread", r.ThreadRootID)
	add("user", r.UserID)
	add("url", r.URL)
	if len(r.Via) > 0 {
		add("via", strings.Join(r.Via, ","))
	}
	if r.Kind == KindShare {
		add("text", r.Share.Text)
		if n := len(r.Share.MediaFiles); n > 0 {
			add("media", fmt.Sprint(n))
		}
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteByte(')')
	return b.String()
}
