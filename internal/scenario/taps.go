package scenario

import (
	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/flows/chats"
	"github.com/zjrosen/roomflow/internal/flows/encryption"
	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/flows/settings"
	"github.com/zjrosen/roomflow/internal/flows/space"
	"github.com/zjrosen/roomflow/internal/flows/spaceexplorer"
	"github.com/zjrosen/roomflow/internal/flows/startchat"
)

// taps maps a tap action name to the screen actions it may stand for. Each
// candidate is offered to the screen in turn; screens only react to the
// action types of the flow that built them.
var taps = map[string]func(arg string) []any{
	"back": fixed(room.Back, space.Back, chats.Dismiss, settings.ScreenDismiss,
		startchat.StartChatClose, bugreport.CancelReport{}, encryption.ResetScreenCancel),
	"confirm":          fixed(chats.Confirm),
	"join":             fixed(room.Join, space.Join),
	"details":          fixed(room.ShowDetails),
	"call":             fixed(room.StartCall, room.DetailsStartCall),
	"pinned":           fixed(room.ShowPinnedEvents, room.DetailsPinnedEvents),
	"media":            fixed(room.DetailsMediaEvents),
	"members":          fixed(room.DetailsMembers, space.ShowMembers),
	"invite":           fixed(room.DetailsInvite, room.InviteMembers{}),
	"report":           fixed(room.DetailsReportRoom),
	"leave":            fixed(room.DetailsLeftRoom, space.Left),
	"roles":            fixed(room.DetailsRolesAndPermissions),
	"transfer":         fixed(room.DetailsTransferOwnership),
	"settings":         fixed(chats.ShowSettings, space.ShowSettings, spaceexplorer.ShowSettings{}),
	"feedback":         fixed(chats.ShowFeedback),
	"secure-backup":    fixed(chats.ShowSecureBackup, settings.ScreenSecureBackup),
	"recovery-key":     fixed(chats.ShowRecoveryKey, encryption.SecureBackupManageRecoveryKey),
	"encryption-reset": fixed(chats.ShowEncryptionReset),
	"start-chat":       fixed(chats.ShowStartChat),
	"search":           fixed(chats.ShowGlobalSearch),
	"logout":           fixed(chats.Logout, settings.ScreenLogout),
	"report-bug":       fixed(settings.ScreenReportBug),
	"create-room":      fixed(startchat.StartChatCreateRoom),
	"room-directory":   fixed(startchat.StartChatRoomDirectory),
	"skip-invites":     fixed(startchat.SkipInvites{}),

	"open-room": func(id string) []any {
		return []any{room.OpenRoom{RoomID: id}, chats.PresentRoom{RoomID: id}, chats.SelectRoomID{RoomID: id},
			space.SelectRoom{RoomID: id}, startchat.OpenRoom{RoomID: id}}
	},
	"open-space": func(id string) []any {
		return []any{space.SelectSpace{SpaceID: id}, spaceexplorer.SelectSpace{SpaceID: id}}
	},
	"room-details": func(id string) []any { return []any{chats.PresentRoomDetails{RoomID: id}} },
	"report-room":  func(id string) []any { return []any{chats.PresentReportRoom{RoomID: id}} },
	"alias":        func(alias string) []any { return []any{chats.SelectAlias{Alias: alias}} },
	"thread":       func(root string) []any { return []any{room.OpenThread{RootID: root}} },
	"user":         func(id string) []any { return []any{room.OpenUser{UserID: id}} },
	"member":       func(id string) []any { return []any{room.ShowMember{UserID: id}} },
	"profile":      func(id string) []any { return []any{room.ShowProfile{UserID: id}} },
	"verify":       func(id string) []any { return []any{room.VerifyUser{UserID: id}} },
	"forward":      func(id string) []any { return []any{room.Forward{EventID: id}} },
	"direct-chat": func(id string) []any {
		return []any{chats.OpenDirectChat{RoomID: id}, room.OpenDirectChat{RoomID: id}}
	},
	"start-call": func(id string) []any { return []any{chats.StartCall{RoomID: id}} },
	"pip":        func(arg string) []any { return []any{chats.PictureInPicture{Active: arg != "off"}} },
	"create":     func(name string) []any { return []any{startchat.CreateRoom{Name: name}} },
	"submit": func(text string) []any {
		return []any{bugreport.SubmitReport{Report: bugreport.Report{Text: text}}}
	},
}

func fixed(actions ...any) func(string) []any {
	return func(string) []any { return actions }
}
