package chats

import (
	"context"
	"fmt"

	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/flows/encryption"
	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/flows/startchat"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
)

func (f *Flow) presentHomeScreen() {
	f.home = navigation.NewScreen("HomeScreen", f.handleHomeAction)
	f.sidebar.SetRoot(f.home, false, nil)
	f.split.SetSidebar(f.sidebar, false, nil)
}

func (f *Flow) handleHomeAction(action any) {
	switch a := action.(type) {
	case HomeAction:
		switch a {
		case ShowSettings:
			f.settings.Start(true)
		case ShowFeedback:
			if f.deps.Reporter == nil {
				log.Warn(log.CatFlow, "bug reporting is not configured")
				return
			}
			f.raise(Event{Kind: EventFeedbackScreen}, true)
		case ShowSecureBackup:
			f.settings.HandleAppRoute(route.ChatBackupSettings(), true)
		case ShowRecoveryKey:
			f.raise(Event{Kind: EventShowRecoveryKeyScreen}, true)
		case ShowEncryptionReset:
			f.raise(Event{Kind: EventStartEncryptionResetFlow}, true)
		case ShowStartChat:
			if f.deps.Creator == nil {
				log.Warn(log.CatFlow, "room creation is not configured")
				return
			}
			f.raise(Event{Kind: EventShowStartChatScreen}, true)
		case ShowGlobalSearch:
			f.presentGlobalSearch(true)
		case Logout:
			f.raise(Event{Kind: EventShowLogoutConfirmation}, true)
		}
	case PresentRoom:
		f.HandleAppRoute(route.Room(a.RoomID), true)
	case PresentRoomDetails:
		f.HandleAppRoute(route.RoomDetails(a.RoomID), true)
	case TransferOwnership:
		f.HandleAppRoute(route.TransferOwnership(a.RoomID), true)
	case PresentReportRoom:
		f.raise(Event{Kind: EventPresentReportRoomScreen, RoomID: a.RoomID}, true)
	case PresentDeclineAndBlock:
		f.raise(Event{Kind: EventPresentDeclineAndBlockScreen, UserID: a.UserID, RoomID: a.RoomID}, true)
	case RoomLeft:
		if f.machine.State().Selected == RoomDetail(a.RoomID) {
			f.ClearRoute(true)
		}
	default:
		log.Warn(log.CatFlow, "unhandled screen action", "flow", f.Name, "action", fmt.Sprint(action))
	}
}

// presentSheet shows screen as the root of a new sheet stack. Dismissal
// raises dismissed only while the overlay it belongs to is still current.
func (f *Flow) presentSheet(screen *navigation.Screen, kind StateKind, dismissed EventKind, animated bool) *navigation.Stack {
	stack := f.split.NewStack(screen.Kind)
	stack.SetRoot(screen, false, nil)
	f.split.SetSheet(stack, animated, func() {
		if f.machine.State().Kind == kind {
			f.raise(Event{Kind: dismissed}, true)
		}
	})
	return stack
}

func (f *Flow) closeSheet() {
	f.split.SetSheet(nil, true, nil)
}

func (f *Flow) startBugReport() {
	child := bugreport.New(f.Params, bugreport.Sheet, f.sidebar, f.deps.Reporter)
	child.Actions().Subscribe(func(bugreport.Action) {
		if f.bugReport == child {
			f.tryRaise(Event{Kind: EventDismissedFeedbackScreen})
		}
	})
	f.bugReport = child
	child.Start(true)
}

func (f *Flow) presentRecoveryKey(animated bool) {
	screen := navigation.NewScreen("SecureBackupRecoveryKeyScreen", func(action any) {
		if action == Dismiss || action == Confirm {
			f.closeSheet()
		}
	})
	f.presentSheet(screen, RecoveryKeyScreen, EventDismissedRecoveryKeyScreen, animated)
}

func (f *Flow) startEncryptionReset(animated bool) {
	stack := f.split.NewStack("EncryptionReset")
	child := encryption.NewResetFlow(f.Params, stack)
	child.Actions().Subscribe(func(encryption.ResetAction) {
		if f.reset == child {
			f.closeSheet()
		}
	})
	f.reset = child
	child.Start(false)
	f.split.SetSheet(stack, animated, func() {
		if f.machine.State().Kind == EncryptionResetFlow {
			f.raise(Event{Kind: EventFinishedEncryptionResetFlow}, true)
		}
	})
}

func (f *Flow) presentStartChat(animated bool) {
	stack := f.split.NewStack("StartChat")
	child := startchat.New(f.Params, startchat.StartChat(), f.deps.Creator, stack)
	child.Actions().Subscribe(func(a startchat.Action) {
		if f.startChat != child {
			return
		}
		f.closeSheet()
		if a.Kind == startchat.ActionShowRoomDirectory {
			f.tryRaise(Event{Kind: EventShowRoomDirectorySearchScreen})
			return
		}
		switch a.Result {
		case startchat.ResultRoom:
			f.tryRaise(Event{Kind: EventSelectRoom, RoomID: a.RoomID, Entry: room.EntryPoint{Kind: room.EntryRoom}})
		case startchat.ResultSpace:
			f.tryRaise(Event{Kind: EventSelectSpace, RoomID: a.RoomID})
		}
	})
	f.startChat = child
	child.Start(false)
	f.split.SetSheet(stack, animated, func() {
		if f.machine.State().Kind == StartChatScreen {
			f.raise(Event{Kind: EventDismissedStartChatScreen}, true)
		}
	})
}

func (f *Flow) presentLogoutConfirmation(animated bool) {
	screen := navigation.NewScreen("LogoutConfirmationScreen", func(action any) {
		switch action {
		case Confirm:
			f.closeSheet()
			f.Emit(Action{Kind: ActionLogout})
		case Dismiss:
			f.closeSheet()
		}
	})
	f.presentSheet(screen, LogoutConfirmationScreen, EventDismissedLogoutConfirmation, animated)
}

func (f *Flow) presentRoomDirectorySearch(animated bool) {
	dismissed := func() { f.tryRaise(Event{Kind: EventDismissedRoomDirectorySearchScreen}) }
	screen := navigation.NewScreen("RoomDirectorySearchScreen", func(action any) {
		switch a := action.(type) {
		case SelectAlias:
			dismissed()
			f.HandleAppRoute(route.RoomAlias(a.Alias), true)
		case SelectRoomID:
			dismissed()
			f.HandleAppRoute(route.Room(a.RoomID), true)
		case ScreenAction:
			if a == Dismiss {
				dismissed()
			}
		}
	})
	f.split.SetFullScreenCover(screen, animated, nil)
}

// presentUserProfile drops whatever the detail column showed: the profile
// replaces the room the link was opened from.
func (f *Flow) presentUserProfile(userID string, animated bool) {
	f.releaseOverlays()
	f.dropDetail(animated)
	f.split.SetFullScreenCover(nil, animated, nil)

	screen := navigation.NewScreen("UserProfileScreen", func(action any) {
		switch a := action.(type) {
		case OpenDirectChat:
			f.closeSheet()
			f.tryRaise(Event{Kind: EventSelectRoom, RoomID: a.RoomID, Entry: room.EntryPoint{Kind: room.EntryRoom}})
		case StartCall:
			f.presentCallScreen(a.RoomID, "")
		case ScreenAction:
			if a == Dismiss {
				f.closeSheet()
			}
		}
	}).With("user", userID)
	f.presentSheet(screen, UserProfileScreen, EventDismissedUserProfileScreen, animated)
}

// releaseOverlays detaches overlay flows whose sheet is replaced without
// going through their own dismissal.
func (f *Flow) releaseOverlays() {
	if f.bugReport != nil {
		f.bugReport.Detach()
		f.bugReport = nil
	}
	if f.reset != nil {
		f.reset.Detach()
		f.reset = nil
	}
	if f.startChat != nil {
		f.startChat.Detach()
		f.startChat = nil
	}
}

func (f *Flow) presentReportRoom(roomID string) {
	client := f.Params.Client()
	f.Params.Go(f.Life, "chats.reportRoom", func(ctx context.Context) func() {
		info, err := client.RoomSummary(ctx, roomID)
		return func() {
			if f.machine.State().Kind != ReportRoomScreen {
				return
			}
			if err != nil || info.Membership != session.MembershipJoined {
				log.Warn(log.CatFlow, "cannot report a room the user is not in", "room", roomID, "error", err)
				f.raise(Event{Kind: EventDismissedReportRoomScreen}, true)
				return
			}
			screen := navigation.NewScreen("ReportRoomScreen", func(action any) {
				switch a := action.(type) {
				case ReportDismissed:
					if a.LeaveRoom && f.machine.State().Selected == RoomDetail(roomID) {
						f.ClearRoute(true)
					}
					f.closeSheet()
				case ScreenAction:
					f.closeSheet()
				}
			}).With("room", roomID)
			f.presentSheet(screen, ReportRoomScreen, EventDismissedReportRoomScreen, true)
		}
	})
}

func (f *Flow) presentDeclineAndBlock(userID, roomID string, animated bool) {
	screen := navigation.NewScreen("DeclineAndBlockScreen", func(action any) {
		if action == Dismiss || action == Confirm {
			f.closeSheet()
		}
	}).With("user", userID).With("room", roomID)
	f.presentSheet(screen, DeclineAndBlockUserScreen, EventDismissedDeclineAndBlockScreen, animated)
}

// startSharing shows the room picker for a share without a destination.
// A selected room is closed first and the picker waits for it to go.
func (f *Flow) startSharing(prev Detail, payload route.SharePayload, animated bool) {
	f.share = payload
	if prev.Kind == DetailNone {
		f.presentSharePicker(animated)
		return
	}
	f.dropDetail(animated)
	f.Params.After(f.Life, "chats.share", f.Params.Delays.SharePresentation, func() {
		if f.machine.State().Kind == ShareExtensionRoomList {
			f.presentSharePicker(true)
		}
	})
}

func (f *Flow) presentSharePicker(animated bool) {
	screen := navigation.NewScreen("RoomSelectionScreen", func(action any) {
		switch a := action.(type) {
		case SelectRoomID:
			payload := f.share
			payload.RoomID = a.RoomID
			f.share = route.SharePayload{}
			f.closeSheet()
			f.tryRaise(Event{
				Kind:   EventSelectRoom,
				RoomID: a.RoomID,
				Entry:  room.EntryPoint{Kind: room.EntryShare, Share: payload},
			})
		case ScreenAction:
			if a == Dismiss {
				f.share = route.SharePayload{}
				f.closeSheet()
			}
		}
	})
	f.presentSheet(screen, ShareExtensionRoomList, EventDismissedShareExtensionRoomList, animated)
}

func (f *Flow) presentGlobalSearch(animated bool) {
	screen := navigation.NewScreen("GlobalSearchScreen", func(action any) {
		switch a := action.(type) {
		case SelectRoomID:
			f.search.SetRoot(nil, true, nil)
			f.HandleAppRoute(route.Room(a.RoomID), true)
		case ScreenAction:
			if a == Dismiss {
				f.search.SetRoot(nil, true, nil)
			}
		}
	})
	f.search.SetRoot(screen, animated, nil)
}

func (f *Flow) presentCallForRoom(roomID string) {
	client := f.Params.Client()
	f.Params.Go(f.Life, "chats.call", func(ctx context.Context) func() {
		info, err := client.RoomSummary(ctx, roomID)
		return func() {
			if err != nil || info.Membership != session.MembershipJoined {
				log.Warn(log.CatFlow, "call for a room the user is not in", "room", roomID, "error", err)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				return
			}
			f.presentCallScreen(roomID, "")
		}
	})
}

// presentCallScreen shows the call overlay. A call already running for the
// same room is brought back instead of restarted.
func (f *Flow) presentCallScreen(roomID, url string) {
	if f.call != nil && roomID != "" && f.call.Attr("room") == roomID {
		f.call.Set("mode", "fullscreen")
		return
	}
	var screen *navigation.Screen
	screen = navigation.NewScreen("CallScreen", func(action any) {
		switch a := action.(type) {
		case PictureInPicture:
			if a.Active {
				screen.Set("mode", "pictureInPicture")
			} else {
				screen.Set("mode", "fullscreen")
			}
		case ScreenAction:
			if a == Dismiss {
				f.split.SetOverlay(nil, true, nil)
			}
		}
	}).With("room", roomID).With("url", url).With("mode", "fullscreen")
	f.call = screen
	f.split.SetOverlay(screen, true, func() {
		if f.call == screen {
			f.call = nil
		}
	})
}

// hideCallScreenOverlay minimises a running call so the newly selected room
// is visible.
func (f *Flow) hideCallScreenOverlay() {
	if f.call != nil {
		f.call.Set("mode", "pictureInPicture")
	}
}
