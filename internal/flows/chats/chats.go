// Package chats is the top-level flow of a signed-in session. It owns the
// room list in the sidebar, the single room or space flow in the detail
// column, and the short-lived overlays presented above both.
package chats

import (
	"context"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/flows/encryption"
	"github.com/zjrosen/roomflow/internal/flows/room"
	"github.com/zjrosen/roomflow/internal/flows/settings"
	"github.com/zjrosen/roomflow/internal/flows/space"
	"github.com/zjrosen/roomflow/internal/flows/startchat"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type (
	machine    = statemachine.Machine[State, Event, flow.EventInfo]
	transition = statemachine.Transition[State, Event, flow.EventInfo]
)

// Dependencies are the services the overlay flows need beyond the shared
// parameters. Overlays whose dependency is missing are not offered.
type Dependencies struct {
	Reporter bugreport.Reporter
	Creator  startchat.RoomCreator
}

// Flow is the chats coordinator. All methods run on the coordination loop.
type Flow struct {
	flow.Base[Action]
	split   *navigation.Split
	sidebar *navigation.Stack
	detail  *navigation.Stack
	search  *navigation.Stack
	deps    Dependencies
	machine *machine

	home *navigation.Screen
	call *navigation.Screen

	room      *room.Flow
	space     *space.Flow
	settings  *settings.Flow
	bugReport *bugreport.Flow
	reset     *encryption.ResetFlow
	startChat *startchat.Flow

	share route.SharePayload
}

func New(params *flow.Parameters, split *navigation.Split, deps Dependencies) *Flow {
	f := &Flow{
		Base:    flow.NewBase[Action]("ChatsFlow", params),
		split:   split,
		sidebar: split.NewStack("sidebar"),
		detail:  split.NewStack("detail"),
		search:  navigation.NewStack("GlobalSearchWindow", navigation.WithStackBus(params.Bus)),
		deps:    deps,
		machine: flow.NewMachine[State, Event](params, "ChatsFlow", State{Kind: Initial}),
	}
	// Routes arrive from outside in any state.
	f.machine.SetErrorHandler(statemachine.LogSameState[State, Event, flow.EventInfo]())
	f.settings = settings.New(params, split, deps.Reporter)
	f.settings.Actions().Subscribe(f.handleSettingsAction)

	addRules(f.machine)
	f.machine.AddHandler(f.handle)
	return f
}

func (f *Flow) State() State { return f.machine.State() }

// Detail is the stack room and space flows present on.
func (f *Flow) Detail() *navigation.Stack { return f.detail }

// Sidebar is the stack holding the room list.
func (f *Flow) Sidebar() *navigation.Stack { return f.sidebar }

// SearchWindow is the separate window global search is shown in.
func (f *Flow) SearchWindow() *navigation.Stack { return f.search }

// IsDisplayingRoomScreen reports whether roomID is the room open in the
// detail column with nothing presented above the room list.
func (f *Flow) IsDisplayingRoomScreen(roomID string) bool {
	return f.machine.State() == State{Kind: RoomList, Selected: RoomDetail(roomID)}
}

func (f *Flow) Start(animated bool) {
	f.raise(Event{Kind: EventStart}, animated)
}

// HandleAppRoute dismisses any sheet, resolves an alias if the route names
// one and dispatches the route. A loading indicator covers the whole
// operation once it outlasts the configured delay.
func (f *Flow) HandleAppRoute(r route.Route, animated bool) {
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.clearPresentedSheets(animated, func() {
		if !r.NeedsAliasResolution() {
			f.dispatch(r, animated)
			f.Params.Indicators.Retract(f.LoadingID())
			return
		}
		resolver := f.Params.Resolver
		f.Params.Go(f.Life, "chats.resolveAlias", func(ctx context.Context) func() {
			resolved, err := resolver.ResolveRoute(ctx, r)
			return func() {
				f.Params.Indicators.Retract(f.LoadingID())
				if err != nil {
					log.ErrorErr(log.CatRoute, "alias resolution failed", err, "route", r.String())
					f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
					return
				}
				f.dispatch(resolved, animated)
			}
		})
	})
}

// ClearRoute unwinds the room or space flow in the detail column.
func (f *Flow) ClearRoute(animated bool) {
	if f.room != nil {
		f.room.ClearRoute(animated)
	}
	if f.space != nil {
		f.space.ClearRoute(animated)
	}
}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.room != nil {
		s.Children = append(s.Children, f.room.Snapshot())
	}
	if f.space != nil {
		s.Children = append(s.Children, f.space.Snapshot())
	}
	s.Children = append(s.Children, f.settings.Snapshot())
	if f.bugReport != nil {
		s.Children = append(s.Children, f.bugReport.Snapshot())
	}
	if f.reset != nil {
		s.Children = append(s.Children, f.reset.Snapshot())
	}
	if f.startChat != nil {
		s.Children = append(s.Children, f.startChat.Snapshot())
	}
	return s
}

func (f *Flow) raise(e Event, animated bool) bool {
	return f.machine.TryEvent(e, flow.EventInfo{Animated: animated})
}

// tryRaise raises e if a rule accepts it. Child flows report back
// asynchronously, by which time the state may have moved on.
func (f *Flow) tryRaise(e Event) {
	if !f.machine.Can(e) {
		log.Warn(log.CatFlow, "event dropped", "flow", f.Name, "state", f.machine.State().String(), "event", e.String())
		return
	}
	f.raise(e, true)
}

// clearPresentedSheets dismisses the split's sheet and waits before
// calling next. Presenting a sheet while another animates away is refused
// by the presenter.
func (f *Flow) clearPresentedSheets(animated bool, next func()) {
	if f.split.FullScreenCover() != nil && f.machine.State().Kind == RoomDirectorySearchScreen {
		f.raise(Event{Kind: EventDismissedRoomDirectorySearchScreen}, animated)
	}
	if f.split.Sheet() == nil {
		next()
		return
	}
	f.split.SetSheet(nil, animated, nil)
	f.Params.After(f.Life, "chats.sheetDismissal", f.Params.Delays.SheetDismissal, next)
}

func (f *Flow) dispatch(r route.Route, animated bool) {
	selected := f.machine.State().Selected
	switch r.Kind {
	case route.KindRoom, route.KindEvent, route.KindThread:
		f.selectRoom(r.RoomID, r.Via, room.EntryForRoute(r), animated)
	case route.KindChildRoom:
		if f.room != nil {
			f.room.HandleAppRoute(r, animated)
			return
		}
		f.selectRoom(r.RoomID, r.Via, room.EntryPoint{Kind: room.EntryRoom}, animated)
	case route.KindRoomDetails, route.KindTransferOwnership:
		if selected == RoomDetail(r.RoomID) && f.room != nil {
			f.room.HandleAppRoute(r, animated)
			return
		}
		f.selectRoom(r.RoomID, nil, room.EntryForRoute(r), animated)
	case route.KindRoomList:
		f.ClearRoute(animated)
	case route.KindRoomMemberDetails, route.KindChildEvent:
		if f.room == nil {
			log.Warn(log.CatRoute, "no room flow for route", "route", r.String())
			return
		}
		f.room.HandleAppRoute(r, animated)
	case route.KindUserProfile:
		f.raise(Event{Kind: EventShowUserProfileScreen, UserID: r.UserID}, animated)
	case route.KindCall:
		f.presentCallForRoom(r.RoomID)
	case route.KindGenericCallLink:
		f.presentCallScreen("", r.URL)
	case route.KindSettings, route.KindChatBackupSettings:
		f.settings.HandleAppRoute(r, animated)
	case route.KindShare:
		if r.Share.RoomID != "" {
			f.selectRoom(r.Share.RoomID, nil, room.EntryForRoute(r), animated)
			return
		}
		f.raise(Event{Kind: EventShowShareExtensionRoomList, Share: r.Share}, animated)
	case route.KindAccountProvisioningLink:
		log.Debug(log.CatRoute, "provisioning links are ignored while signed in")
	default:
		log.Warn(log.CatRoute, "unhandled route", "route", r.String())
	}
}

func (f *Flow) selectRoom(roomID string, via []string, entry room.EntryPoint, animated bool) {
	f.raise(Event{Kind: EventSelectRoom, RoomID: roomID, Via: via, Entry: entry}, animated)
}

func (f *Flow) handle(t transition) {
	animated := t.Payload.Animated
	switch t.Event.Kind {
	case EventStart:
		f.presentHomeScreen()
	case EventSelectRoom:
		f.roomSelected(t.From.Selected, t.Event, animated)
		f.hideCallScreenOverlay()
	case EventSelectSpace:
		f.startSpaceFlow(t.Event.RoomID, animated)
	case EventDeselect:
		f.releaseDetail(animated)
	case EventFeedbackScreen:
		f.startBugReport()
	case EventDismissedFeedbackScreen:
		if f.bugReport != nil {
			f.bugReport.Detach()
			f.bugReport = nil
		}
	case EventShowRecoveryKeyScreen:
		f.presentRecoveryKey(animated)
	case EventStartEncryptionResetFlow:
		f.startEncryptionReset(animated)
	case EventFinishedEncryptionResetFlow:
		if f.reset != nil {
			f.reset.Detach()
			f.reset = nil
		}
	case EventShowStartChatScreen:
		f.presentStartChat(animated)
	case EventDismissedStartChatScreen:
		if f.startChat != nil {
			f.startChat.Detach()
			f.startChat = nil
		}
	case EventShowLogoutConfirmation:
		f.presentLogoutConfirmation(animated)
	case EventShowRoomDirectorySearchScreen:
		f.presentRoomDirectorySearch(animated)
	case EventDismissedRoomDirectorySearchScreen:
		f.split.SetFullScreenCover(nil, animated, nil)
	case EventShowUserProfileScreen:
		f.presentUserProfile(t.Event.UserID, animated)
	case EventPresentReportRoomScreen:
		f.presentReportRoom(t.Event.RoomID)
	case EventPresentDeclineAndBlockScreen:
		f.presentDeclineAndBlock(t.Event.UserID, t.Event.RoomID, animated)
	case EventShowShareExtensionRoomList:
		f.startSharing(t.From.Selected, t.Event.Share, animated)
	}

	if t.To.Kind != RoomList {
		return
	}
	if f.home != nil {
		f.home.Set("selected", t.To.Selected.ID)
	}
	// The detail flow finished while an overlay was up.
	if t.To.Selected.Kind != DetailNone && f.room == nil && f.space == nil {
		f.raise(Event{Kind: EventDeselect}, animated)
	}
}

// roomSelected reuses the open room flow when the same room is selected
// again, except for event focus, which needs a fresh timeline so the live
// one is hidden while the focused one loads.
func (f *Flow) roomSelected(prev Detail, e Event, animated bool) {
	if prev == RoomDetail(e.RoomID) && e.Entry.Kind != room.EntryEvent && f.room != nil {
		f.room.HandleAppRoute(entryRoute(e.RoomID, e.Via, e.Entry), animated)
		return
	}
	f.startRoomFlow(e.RoomID, e.Via, e.Entry, animated)
}

func entryRoute(roomID string, via []string, entry room.EntryPoint) route.Route {
	switch entry.Kind {
	case room.EntryEvent:
		return route.Event(entry.EventID, roomID, via...)
	case room.EntryRoomDetails:
		return route.RoomDetails(roomID)
	case room.EntryShare:
		payload := entry.Share
		payload.RoomID = roomID
		return route.Share(payload)
	case room.EntryTransferOwnership:
		return route.TransferOwnership(roomID)
	case room.EntryThread:
		return route.Thread(roomID, entry.ThreadRootID, entry.EventID)
	}
	return route.Room(roomID, via...)
}

func (f *Flow) startRoomFlow(roomID string, via []string, entry room.EntryPoint, animated bool) {
	// A space in the detail column goes first, or the room would be
	// presented into a stack that is about to be cleared.
	f.releaseSpace()
	f.releaseRoom()

	rf := room.New(f.Params, roomID, f.detail, room.WithSpaceFlows(space.Factory(f.Params)))
	rf.Actions().Subscribe(func(a flow.Action) {
		if f.room != rf {
			return
		}
		switch a.Kind {
		case flow.ActionFinished:
			f.detailFinished(RoomDetail(roomID))
		case flow.ActionContinueWithSpaceFlow:
			f.tryRaise(Event{Kind: EventSelectSpace, RoomID: a.RoomID})
		default:
			f.forward(a)
		}
	})
	f.room = rf
	f.showDetail(animated)
	rf.HandleAppRoute(entryRoute(roomID, via, entry), animated)
	f.trackRecentlyVisited(roomID)
}

func (f *Flow) startSpaceFlow(spaceID string, animated bool) {
	f.releaseRoom()
	f.releaseSpace()

	sf := space.New(f.Params, spaceID, f.detail)
	sf.Actions().Subscribe(func(a flow.Action) {
		if f.space != sf {
			return
		}
		if a.Kind == flow.ActionFinished {
			f.detailFinished(SpaceDetail(spaceID))
			return
		}
		f.forward(a)
	})
	f.space = sf
	f.showDetail(animated)
	sf.Start(animated)
}

// forward handles the actions room and space flows cannot handle
// themselves.
func (f *Flow) forward(a flow.Action) {
	switch a.Kind {
	case flow.ActionPresentCallScreen:
		f.presentCallScreen(a.RoomID, "")
	case flow.ActionVerifyUser:
		f.Emit(Action{Kind: ActionVerifyUser, UserID: a.UserID})
	}
}

func (f *Flow) detailFinished(d Detail) {
	s := f.machine.State()
	if s.Selected != d {
		return
	}
	if s.Kind == RoomList {
		f.raise(Event{Kind: EventDeselect}, true)
		return
	}
	// Deselected once the overlay is dismissed.
	f.releaseDetail(true)
}

func (f *Flow) showDetail(animated bool) {
	if f.split.Detail() != navigation.Module(f.detail) {
		f.split.SetDetail(f.detail, animated, nil)
	}
}

// releaseDetail empties the detail column. The finished flow has already
// unwound its screens.
func (f *Flow) releaseDetail(animated bool) {
	f.split.SetDetail(nil, animated, nil)
	if f.room != nil {
		f.room.Detach()
		f.room = nil
	}
	if f.space != nil {
		f.space.Detach()
		f.space = nil
	}
}

// dropDetail unwinds and releases the detail flow without waiting for it
// to report back.
func (f *Flow) dropDetail(animated bool) {
	f.releaseRoom()
	f.releaseSpace()
	f.split.SetDetail(nil, animated, nil)
}

func (f *Flow) releaseRoom() {
	if f.room == nil {
		return
	}
	f.room.ClearRoute(false)
	f.room.Detach()
	f.room = nil
}

func (f *Flow) releaseSpace() {
	if f.space == nil {
		return
	}
	f.space.ClearRoute(false)
	f.space.Detach()
	f.space = nil
}

func (f *Flow) trackRecentlyVisited(roomID string) {
	client := f.Params.Client()
	f.Params.Go(f.Life, "chats.trackRecent", func(ctx context.Context) func() {
		if err := client.TrackRecentlyVisitedRoom(ctx, roomID); err != nil {
			log.Warn(log.CatSession, "recently visited room not recorded", "room", roomID, "error", err)
		}
		return nil
	})
}

func (f *Flow) handleSettingsAction(a settings.Action) {
	switch a {
	case settings.PresentedSettings:
		f.tryRaise(Event{Kind: EventShowSettingsScreen})
	case settings.DismissedSettings:
		f.tryRaise(Event{Kind: EventDismissedSettingsScreen})
	case settings.Logout:
		f.tryRaise(Event{Kind: EventShowLogoutConfirmation})
	case settings.ClearCache:
		f.Emit(Action{Kind: ActionClearCache})
	case settings.ForceLogout:
		f.Emit(Action{Kind: ActionForceLogout})
	}
}
