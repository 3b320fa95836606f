package chats

import (
	"fmt"
	"slices"

	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	RoomList
	SettingsScreen
	FeedbackScreen
	RecoveryKeyScreen
	EncryptionResetFlow
	StartChatScreen
	LogoutConfirmationScreen
	RoomDirectorySearchScreen
	ReportRoomScreen
	DeclineAndBlockUserScreen
	UserProfileScreen
	ShareExtensionRoomList
)

var stateNames = [...]string{
	"initial", "roomList", "settingsScreen", "feedbackScreen", "recoveryKeyScreen",
	"encryptionResetFlow", "startChatScreen", "logoutConfirmationScreen",
	"roomDirectorySearchScreen", "reportRoomScreen", "declineAndBlockUserScreen",
	"userProfileScreen", "shareExtensionRoomList",
}

func (k StateKind) String() string {
	if int(k) < len(stateNames) {
		return stateNames[k]
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// DetailKind says what the detail column shows.
type DetailKind int

const (
	DetailNone DetailKind = iota
	DetailRoom
	DetailSpace
)

// Detail is the room or space selected in the room list.
type Detail struct {
	Kind DetailKind
	ID   string
}

func RoomDetail(roomID string) Detail   { return Detail{Kind: DetailRoom, ID: roomID} }
func SpaceDetail(spaceID string) Detail { return Detail{Kind: DetailSpace, ID: spaceID} }

func (d Detail) String() string {
	switch d.Kind {
	case DetailRoom:
		return "room(" + d.ID + ")"
	case DetailSpace:
		return "space(" + d.ID + ")"
	}
	return "nil"
}

// State is the chats flow's recorded state. Overlay states keep the
// selection of the room list underneath; the user profile and share
// picker states clear it.
type State struct {
	Kind     StateKind
	Selected Detail
}

func (s State) String() string {
	switch s.Kind {
	case Initial, UserProfileScreen, ShareExtensionRoomList:
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Selected)
}

type EventKind int

const (
	EventStart EventKind = iota
	EventSelectRoom
	EventSelectSpace
	EventDeselect
	EventShowSettingsScreen
	EventDismissedSettingsScreen
	EventFeedbackScreen
	EventDismissedFeedbackScreen
	EventShowRecoveryKeyScreen
	EventDismissedRecoveryKeyScreen
	EventStartEncryptionResetFlow
	EventFinishedEncryptionResetFlow
	EventShowStartChatScreen
	EventDismissedStartChatScreen
	EventShowLogoutConfirmation
	EventDismissedLogoutConfirmation
	EventShowRoomDirectorySearchScreen
	EventDismissedRoomDirectorySearchScreen
	EventShowUserProfileScreen
	EventDismissedUserProfileScreen
	EventShowShareExtensionRoomList
	EventDismissedShareExtensionRoomList
	EventPresentReportRoomScreen
	EventDismissedReportRoomScreen
	EventPresentDeclineAndBlockScreen
	EventDismissedDeclineAndBlockScreen
)

var eventNames = [...]string{
	"start", "selectRoom", "selectSpace", "deselect",
	"showSettingsScreen", "dismissedSettingsScreen",
	"feedbackScreen", "dismissedFeedbackScreen",
	"showRecoveryKeyScreen", "dismissedRecoveryKeyScreen",
	"startEncryptionResetFlow", "finishedEncryptionResetFlow",
	"showStartChatScreen", "dismissedStartChatScreen",
	"showLogoutConfirmation", "dismissedLogoutConfirmation",
	"showRoomDirectorySearchScreen", "dismissedRoomDirectorySearchScreen",
	"showUserProfileScreen", "dismissedUserProfileScreen",
	"showShareExtensionRoomList", "dismissedShareExtensionRoomList",
	"presentReportRoomScreen", "dismissedReportRoomScreen",
	"presentDeclineAndBlockScreen", "dismissedDeclineAndBlockScreen",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is raised on the chats machine. Only the fields its kind needs are
// set.
type Event struct {
	Kind   EventKind
	RoomID string
	Via    []string
	Entry  room.EntryPoint
	UserID string
	Share  route.SharePayload
}

func (e Event) String() string {
	switch e.Kind {
	case EventSelectRoom:
		return fmt.Sprintf("selectRoom(%s, via: %v, %s)", e.RoomID, e.Via, e.Entry)
	case EventSelectSpace, EventPresentReportRoomScreen:
		return fmt.Sprintf("%s(%s)", e.Kind, e.RoomID)
	case EventShowUserProfileScreen:
		return fmt.Sprintf("showUserProfileScreen(%s)", e.UserID)
	case EventPresentDeclineAndBlockScreen:
		return fmt.Sprintf("presentDeclineAndBlockScreen(%s, %s)", e.UserID, e.RoomID)
	}
	return e.Kind.String()
}

type (
	rule   = statemachine.Rule[State, Event]
	target = statemachine.Target[State]
)

func on(ev EventKind, from []StateKind, to func(State, Event) State) rule {
	return func(s State, e Event) (target, bool) {
		if e.Kind != ev || (from != nil && !slices.Contains(from, s.Kind)) {
			return target{}, false
		}
		return statemachine.Set(to(s, e)), true
	}
}

// overlay registers the pair of rules showing an overlay over the room
// list and returning to it, keeping the selection.
func overlay(m *machine, show, dismissed EventKind, kind StateKind) {
	m.AddRule(on(show, []StateKind{RoomList}, func(s State, _ Event) State {
		return State{Kind: kind, Selected: s.Selected}
	}))
	m.AddRule(on(dismissed, []StateKind{kind}, func(s State, _ Event) State {
		return State{Kind: RoomList, Selected: s.Selected}
	}))
}

func addRules(m *machine) {
	m.AddRule(on(EventStart, []StateKind{Initial}, func(State, Event) State {
		return State{Kind: RoomList}
	}))
	m.AddRule(on(EventSelectRoom, []StateKind{RoomList}, func(_ State, e Event) State {
		return State{Kind: RoomList, Selected: RoomDetail(e.RoomID)}
	}))
	m.AddRule(on(EventSelectSpace, []StateKind{RoomList}, func(_ State, e Event) State {
		return State{Kind: RoomList, Selected: SpaceDetail(e.RoomID)}
	}))
	m.AddRule(on(EventDeselect, []StateKind{RoomList}, func(State, Event) State {
		return State{Kind: RoomList}
	}))

	overlay(m, EventShowSettingsScreen, EventDismissedSettingsScreen, SettingsScreen)
	overlay(m, EventFeedbackScreen, EventDismissedFeedbackScreen, FeedbackScreen)
	overlay(m, EventShowRecoveryKeyScreen, EventDismissedRecoveryKeyScreen, RecoveryKeyScreen)
	overlay(m, EventStartEncryptionResetFlow, EventFinishedEncryptionResetFlow, EncryptionResetFlow)
	overlay(m, EventShowStartChatScreen, EventDismissedStartChatScreen, StartChatScreen)
	overlay(m, EventShowLogoutConfirmation, EventDismissedLogoutConfirmation, LogoutConfirmationScreen)
	overlay(m, EventShowRoomDirectorySearchScreen, EventDismissedRoomDirectorySearchScreen, RoomDirectorySearchScreen)
	overlay(m, EventPresentReportRoomScreen, EventDismissedReportRoomScreen, ReportRoomScreen)
	overlay(m, EventPresentDeclineAndBlockScreen, EventDismissedDeclineAndBlockScreen, DeclineAndBlockUserScreen)

	// The user profile is reachable from everywhere and drops the
	// selection, as does the share picker.
	m.AddRule(on(EventShowUserProfileScreen, nil, func(State, Event) State {
		return State{Kind: UserProfileScreen}
	}))
	m.AddRule(on(EventDismissedUserProfileScreen, []StateKind{UserProfileScreen}, func(State, Event) State {
		return State{Kind: RoomList}
	}))
	m.AddRule(on(EventShowShareExtensionRoomList, []StateKind{RoomList}, func(State, Event) State {
		return State{Kind: ShareExtensionRoomList}
	}))
	m.AddRule(on(EventDismissedShareExtensionRoomList, []StateKind{ShareExtensionRoomList}, func(State, Event) State {
		return State{Kind: RoomList}
	}))
}
