package chats

import "fmt"

// ActionKind enumerates what the chats flow asks of the session owner.
type ActionKind int

const (
	ActionLogout ActionKind = iota + 1
	ActionVerifyUser
	ActionClearCache
	ActionForceLogout
)

// Action is emitted to the session owner.
type Action struct {
	Kind   ActionKind
	UserID string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionLogout:
		return "logout"
	case ActionVerifyUser:
		return "sessionVerification(" + a.UserID + ")"
	case ActionClearCache:
		return "clearCache"
	case ActionForceLogout:
		return "forceLogout"
	}
	return fmt.Sprintf("ActionKind(%d)", int(a.Kind))
}

// HomeAction is a payload-free action sent by the room list screen.
type HomeAction int

const (
	ShowSettings HomeAction = iota
	ShowFeedback
	ShowSecureBackup
	ShowRecoveryKey
	ShowEncryptionReset
	ShowStartChat
	ShowGlobalSearch
	Logout
)

// Room list screen actions.
type (
	PresentRoom            struct{ RoomID string }
	PresentRoomDetails     struct{ RoomID string }
	PresentReportRoom      struct{ RoomID string }
	RoomLeft               struct{ RoomID string }
	PresentDeclineAndBlock struct{ UserID, RoomID string }
	TransferOwnership      struct{ RoomID string }
)

// ScreenAction is sent by the overlay screens.
type ScreenAction int

const (
	Dismiss ScreenAction = iota
	Confirm
)

// Overlay screen actions.
type (
	SelectAlias      struct{ Alias string }
	SelectRoomID     struct{ RoomID string }
	OpenDirectChat   struct{ RoomID string }
	StartCall        struct{ RoomID string }
	ReportDismissed  struct{ LeaveRoom bool }
	PictureInPicture struct{ Active bool }
)
