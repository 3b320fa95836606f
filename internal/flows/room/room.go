// Package room is the coordinator of a single room: its timeline, threads,
// details and the utility screens reachable from them. A room flow can nest
// another room flow for a linked room, and hands over to a space flow when
// the linked room turns out to be a space.
package room

import (
	"context"
	"errors"
	"strings"

	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/roles"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

// SpaceFlowFactory creates the space flow a room flow hands over to. The
// space package provides it, since it depends on this one.
type SpaceFlowFactory func(spaceID string, stack *navigation.Stack) flow.Child[flow.Action]

// Option configures New.
type Option func(*Flow)

// AsChild marks a flow nested inside another room flow. It pushes onto the
// parent's stack instead of owning its root, and refuses thread routes.
func AsChild() Option {
	return func(f *Flow) { f.isChild = true }
}

// WithSpaceFlows sets the factory used when a linked room is a space.
func WithSpaceFlows(factory SpaceFlowFactory) Option {
	return func(f *Flow) { f.newSpaceFlow = factory }
}

// WithRoomInfo seeds the flow with an already known summary, skipping the
// summary request on first presentation.
func WithRoomInfo(info session.RoomInfo) Option {
	return func(f *Flow) { f.info = info }
}

type transition = statemachine.Transition[State, Event, flow.EventInfo]

// Flow is the room flow coordinator. All methods run on the coordination
// loop.
type Flow struct {
	flow.Base[flow.Action]
	roomID       string
	isChild      bool
	stack        *navigation.Stack
	machine      *statemachine.Machine[State, Event, flow.EventInfo]
	newSpaceFlow SpaceFlowFactory

	info    session.RoomInfo
	via     []string
	pending EntryPoint

	// base is the screen the flow is anchored on: the room, the join
	// screen or the root details screen.
	base       *navigation.Screen
	baseDepth  int
	roomScreen *navigation.Screen
	timeline   *session.Timeline
	sheet      *navigation.Screen

	child   *Flow
	space   flow.Child[flow.Action]
	members *MembersFlow
	pinned  *TimelineFlow
	media   *TimelineFlow
	roles   *roles.Flow

	// afterTimeline runs once the pinned or media timeline flow has
	// finished, for actions that need it gone first.
	afterTimeline func()
}

// New creates the flow for roomID presenting on stack.
func New(params *flow.Parameters, roomID string, stack *navigation.Stack, opts ...Option) *Flow {
	name := "RoomFlow[" + roomID + "]"
	f := &Flow{
		Base:    flow.NewBase[flow.Action](name, params),
		roomID:  roomID,
		stack:   stack,
		machine: flow.NewMachine[State, Event](params, name, State{Kind: Initial}),
	}
	for _, opt := range opts {
		opt(f)
	}
	addRules(f.machine)
	f.machine.AddHandler(f.handle)
	return f
}

func (f *Flow) RoomID() string { return f.roomID }

func (f *Flow) State() State { return f.machine.State() }

// IsDisplayingRoomScreen reports whether the room timeline is the top of
// the flow.
func (f *Flow) IsDisplayingRoomScreen() bool {
	return f.machine.State().Kind == Room
}

// Start presents the room's timeline.
func (f *Flow) Start(animated bool) {
	f.HandleAppRoute(route.Room(f.roomID), animated)
}

// HandleAppRoute presents r. Routes for another room go to the nested room
// flow, and child routes start one.
func (f *Flow) HandleAppRoute(r route.Route, animated bool) {
	state := f.machine.State()
	if state.Kind == Complete {
		log.Debug(log.CatFlow, "route ignored, flow complete", "flow", f.Name, "route", r.String())
		return
	}

	switch r.Kind {
	case route.KindRoom, route.KindEvent, route.KindShare, route.KindThread,
		route.KindRoomDetails, route.KindTransferOwnership:
		if r.RoomID != f.roomID {
			if f.child != nil {
				f.child.HandleAppRoute(r, animated)
				return
			}
			log.Warn(log.CatFlow, "route for another room ignored", "flow", f.Name, "route", r.String())
			return
		}
		if r.Kind == route.KindThread && f.isChild {
			log.Warn(log.CatFlow, "thread routes are not handled by nested room flows", "flow", f.Name)
			return
		}
		f.present(EntryForRoute(r), r.Via, animated)

	case route.KindChildRoom, route.KindChildEvent:
		if state.Kind == PresentingChild && f.child != nil {
			f.child.HandleAppRoute(r, animated)
			return
		}
		if r.RoomID == f.roomID {
			log.Debug(log.CatFlow, "child route for the presented room ignored", "flow", f.Name)
			return
		}
		f.raise(Event{Kind: EventStartChildFlow, RoomID: r.RoomID, Via: r.Via, Entry: EntryForRoute(r)}, animated)

	case route.KindRoomMemberDetails:
		f.raise(Event{Kind: EventStartMembersFlow, Members: RoomMember(r.UserID)}, animated)

	default:
		log.Debug(log.CatFlow, "route not handled by room flow", "flow", f.Name, "route", r.String())
	}
}

// ClearRoute tears the flow down, nested flows first, and reports
// finished.
func (f *Flow) ClearRoute(animated bool) {
	switch f.machine.State().Kind {
	case Initial, Complete:
		return
	}
	f.raise(Event{Kind: EventDismissFlow}, animated)
}

func (f *Flow) Snapshot() flow.Snapshot {
	s := flow.Snapshot{Flow: f.Name, State: f.machine.State().String()}
	if f.child != nil {
		s.Children = append(s.Children, f.child.Snapshot())
	}
	if sn, ok := f.space.(flow.Snapshotter); ok {
		s.Children = append(s.Children, sn.Snapshot())
	}
	if f.members != nil {
		s.Children = append(s.Children, f.members.Snapshot())
	}
	if f.pinned != nil {
		s.Children = append(s.Children, f.pinned.Snapshot())
	}
	if f.media != nil {
		s.Children = append(s.Children, f.media.Snapshot())
	}
	if f.roles != nil {
		s.Children = append(s.Children, f.roles.Snapshot())
	}
	return s
}

func (f *Flow) raise(e Event, animated bool) bool {
	return f.machine.TryEvent(e, flow.EventInfo{Animated: animated})
}

// whileIn returns a dismissal callback raising ev only while the machine
// is still in s. Surfaces torn down by a later transition stay silent.
func (f *Flow) whileIn(s State, ev EventKind) func() {
	return func() {
		if f.machine.State() == s {
			f.raise(Event{Kind: ev}, true)
		}
	}
}

// present resolves what it needs about the room before presenting entry:
// the summary on first presentation and, for event entries, whether the
// event lives in a thread.
func (f *Flow) present(entry EntryPoint, via []string, animated bool) {
	if len(via) > 0 {
		f.via = via
	}
	f.pending = entry
	needsSummary := f.info.ID == ""
	needsDetails := entry.Kind == EntryEvent && !f.isChild && f.Params.Flags.Enabled(flags.FlagThreads)
	if !needsSummary && !needsDetails {
		f.resolved(entry, animated)
		return
	}

	info := f.info
	roomID := f.roomID
	resolver := f.Params.Resolver
	f.Params.Go(f.Life, "room.resolve", func(ctx context.Context) func() {
		var err error
		if needsSummary {
			info, err = resolver.RoomSummary(ctx, roomID)
		}
		if err == nil && needsDetails && info.Membership == session.MembershipJoined && !info.IsSpace {
			details, derr := resolver.EventDetails(ctx, roomID, entry.EventID)
			switch {
			case derr != nil:
				log.Warn(log.CatFlow, "event details unavailable, focusing in room", "room", roomID, "event", entry.EventID, "error", derr)
			case details.ThreadRootID != "":
				entry = EntryPoint{Kind: EntryThread, ThreadRootID: details.ThreadRootID, EventID: entry.EventID}
			}
		}
		return func() {
			if err != nil {
				log.ErrorErr(log.CatFlow, "room summary unavailable", err, "room", roomID)
				f.raise(Event{Kind: EventPresentJoinRoomScreen, Via: f.via}, animated)
				return
			}
			f.info = info
			f.pending = entry
			f.resolved(entry, animated)
		}
	})
}

func (f *Flow) resolved(entry EntryPoint, animated bool) {
	if f.machine.State().Kind == Complete {
		return
	}
	if f.info.IsSpace {
		f.Emit(flow.ContinueWithSpaceFlow(f.roomID))
		return
	}
	if f.info.Membership != session.MembershipJoined {
		f.raise(Event{Kind: EventPresentJoinRoomScreen, Via: f.via}, animated)
		return
	}

	switch entry.Kind {
	case EntryRoomDetails:
		switch f.machine.State().Kind {
		case RoomDetails:
		case Initial, Room:
			f.raise(Event{Kind: EventPresentRoomDetails}, animated)
		default:
			f.raise(Event{Kind: EventPresentRoom, Entry: EntryPoint{Kind: EntryRoom}}, animated)
			f.raise(Event{Kind: EventPresentRoomDetails}, animated)
		}
	case EntryTransferOwnership:
		if f.roomScreen == nil || f.machine.State().Kind != Room {
			f.raise(Event{Kind: EventPresentRoom, Entry: EntryPoint{Kind: EntryRoom}}, animated)
		}
		f.raise(Event{Kind: EventPresentTransferOwnership}, animated)
	default:
		f.raise(Event{Kind: EventPresentRoom, Entry: entry}, animated)
	}
}

func (f *Flow) handle(t transition) {
	animated := t.Payload.Animated
	e := t.Event

	switch e.Kind {
	case EventPresentRoom:
		f.presentRoom(e.Entry, animated)
	case EventDismissFlow, EventDismissJoinRoomScreen:
		f.tearDown(animated)
		f.Emit(flow.Finished())
	case EventJoinedSpace:
		f.tearDown(animated)
		f.Emit(flow.ContinueWithSpaceFlow(f.roomID))

	case EventPresentJoinRoomScreen:
		f.presentJoinRoomScreen(animated)
	case EventPresentDeclineAndBlockScreen:
		f.pushScreen("DeclineAndBlockScreen", t.To, EventDismissDeclineAndBlockScreen, animated).Set("user", e.UserID)

	case EventPresentThread:
		f.presentThread(t.To, e.FocusEventID, animated)
	case EventPresentRoomDetails:
		f.presentRoomDetails(t.To, animated)
	case EventPresentRoomDetailsEditScreen:
		f.pushScreen("RoomDetailsEditScreen", t.To, EventDismissRoomDetailsEditScreen, animated)
	case EventPresentNotificationSettings:
		f.pushScreen("RoomNotificationSettingsScreen", t.To, EventDismissNotificationSettings, animated)
	case EventPresentGlobalNotificationSettings:
		f.pushScreen("GlobalNotificationSettingsScreen", t.To, EventDismissGlobalNotificationSettings, animated)
	case EventPresentPollsHistory:
		f.pushScreen("RoomPollsHistoryScreen", t.To, EventDismissPollsHistory, animated)
	case EventPresentSecurityAndPrivacy:
		f.pushScreen("SecurityAndPrivacyScreen", t.To, EventDismissSecurityAndPrivacy, animated)
	case EventPresentManageAuthorizedSpaces:
		f.pushScreen("ManageAuthorizedSpacesScreen", t.To, EventDismissManageAuthorizedSpaces, animated)
	case EventPresentKnockRequestsList:
		f.pushScreen("KnockRequestsListScreen", t.To, EventDismissKnockRequestsList, animated)
	case EventPresentTransferOwnership:
		f.pushScreen("TransferOwnershipScreen", t.To, EventDismissTransferOwnership, animated)

	case EventPresentReportContent:
		f.presentSheet("ReportContentScreen", t.To, EventDismissReportContent, animated).
			With("event", e.EventID).With("sender", e.UserID)
	case EventPresentReportRoom:
		f.presentSheet("ReportRoomScreen", t.To, EventDismissReportRoom, animated)
	case EventPresentMediaUploadPicker:
		f.presentSheet("MediaPickerScreen", t.To, EventDismissMediaUploadPicker, animated).With("mode", e.Mode)
	case EventPresentMediaUploadPreview:
		f.presentSheet("MediaUploadPreviewScreen", t.To, EventDismissMediaUploadPreview, animated).
			With("files", strings.Join(e.Files, ","))
	case EventPresentEmojiPicker:
		f.presentSheet("EmojiPickerScreen", t.To, EventDismissEmojiPicker, animated).With("event", e.EventID)
	case EventPresentMessageForwarding:
		f.presentSheet("MessageForwardingScreen", t.To, EventDismissMessageForwarding, animated).With("event", e.EventID)
	case EventPresentMapNavigator:
		f.presentSheet("StaticLocationScreen", t.To, EventDismissMapNavigator, animated).With("mode", e.Mode)
	case EventPresentPollForm:
		f.presentSheet("PollFormScreen", t.To, EventDismissPollForm, animated).With("mode", e.Mode)
	case EventPresentResolveSendFailure:
		f.presentSheet("ResolveVerifiedUserSendFailureScreen", t.To, EventDismissResolveSendFailure, animated).
			With("event", e.EventID)
	case EventPresentInviteUsersScreen:
		f.presentSheet("InviteUsersScreen", t.To, EventDismissInviteUsersScreen, animated)

	case EventPresentRolesAndPermissions:
		f.startRoles(animated)
	case EventDismissRolesAndPermissions:
		if f.roles != nil {
			f.roles.Detach()
			f.roles = nil
		}
	case EventPresentPinnedEventsTimeline:
		f.pinned = NewPinnedEventsFlow(f.Params, f.roomID, f.stack)
		f.startTimelineFlow(f.pinned, PinnedEventsTimelineFlow, EventDismissPinnedEventsTimeline, animated)
	case EventDismissPinnedEventsTimeline:
		if f.pinned != nil {
			f.pinned.Detach()
			f.pinned = nil
		}
	case EventPresentMediaEventsTimeline:
		f.media = NewMediaEventsFlow(f.Params, f.roomID, f.stack)
		f.startTimelineFlow(f.media, MediaEventsTimelineFlow, EventDismissMediaEventsTimeline, animated)
	case EventDismissMediaEventsTimeline:
		if f.media != nil {
			f.media.Detach()
			f.media = nil
		}

	case EventStartMembersFlow:
		f.startMembers(e.Members, animated)
	case EventStopMembersFlow:
		if f.members != nil {
			f.members.Detach()
			f.members = nil
		}
	case EventStartChildFlow:
		f.startChild(e.RoomID, e.Via, e.Entry, animated)
	case EventDismissChildFlow:
		if f.child != nil {
			f.child.Detach()
			f.child = nil
		}
	case EventStartSpaceFlow:
		f.startSpace(e.RoomID, animated)
	case EventFinishedSpaceFlow:
		if f.space != nil {
			f.space.Detach()
			f.space = nil
		}
	}
}

func (f *Flow) presentRoom(entry EntryPoint, animated bool) {
	// Re-presenting the room leaves any nested flow behind.
	f.releaseChildren()
	f.dismissSheet(animated)
	if f.roomScreen != nil {
		f.stack.PopToModule(f.roomScreen, animated)
		if entry.Kind == EntryEvent {
			f.focus(entry.EventID)
			return
		}
		f.afterPresentation(entry)
		return
	}

	focus := entry.focusEventID()
	tl, err := f.Params.Timelines.RoomTimeline(f.roomID, focus)
	if err != nil {
		log.ErrorErr(log.CatFlow, "room timeline could not be built", err, "room", f.roomID)
		f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
		f.raise(Event{Kind: EventDismissFlow}, animated)
		return
	}
	f.timeline = tl

	var screen *navigation.Screen
	screen = navigation.NewScreen("RoomScreen", func(action any) { f.handleTimelineAction(screen, action) }).
		With("room", f.roomID).With("timeline", tl.ID)
	if f.info.Name != "" {
		screen.Set("name", f.info.Name)
	}
	if focus != "" {
		screen.Set("focus", focus)
	}
	f.presentBase(screen, animated)
	f.roomScreen = screen
	f.afterPresentation(entry)
}

// afterPresentation applies the parts of an entry that need the room
// screen in place.
func (f *Flow) afterPresentation(entry EntryPoint) {
	switch entry.Kind {
	case EntryShare:
		if len(entry.Share.MediaFiles) > 0 {
			f.raise(Event{Kind: EventPresentMediaUploadPreview, Files: entry.Share.MediaFiles}, false)
		} else if entry.Share.Text != "" {
			f.roomScreen.Set("composer", entry.Share.Text)
		}
	case EntryThread:
		f.raise(Event{Kind: EventPresentThread, ThreadRootID: entry.ThreadRootID, FocusEventID: entry.EventID}, false)
	}
}

// focus moves the existing room timeline instead of building a new one.
func (f *Flow) focus(eventID string) {
	if f.timeline == nil || f.roomScreen == nil {
		return
	}
	f.timeline.Focus(eventID)
	f.roomScreen.Set("focus", eventID)
}

// presentBase anchors the flow on screen. A root flow owns the stack root;
// a nested flow replaces its previous base on the parent's stack.
func (f *Flow) presentBase(screen *navigation.Screen, animated bool) {
	prev := f.base
	f.base = screen
	if prev != nil && prev == f.roomScreen {
		f.roomScreen, f.timeline = nil, nil
	}

	onDismiss := func() {
		if f.base == screen && f.machine.State().Kind != Complete {
			f.raise(Event{Kind: EventDismissFlow}, true)
		}
	}
	if !f.isChild {
		f.stack.SetRoot(screen, animated, onDismiss)
		return
	}
	if prev == nil {
		f.baseDepth = f.stack.Count()
	} else if f.stack.Contains(prev) {
		f.stack.Remove(prev, false)
	}
	f.stack.Push(screen, animated, onDismiss)
}

// tearDown releases nested flows, then the flow's own surfaces.
func (f *Flow) tearDown(animated bool) {
	f.releaseChildren()

	f.dismissSheet(animated)
	base := f.base
	f.base, f.roomScreen, f.timeline = nil, nil, nil
	if base == nil {
		return
	}
	if !f.isChild {
		if f.stack.Root() == base {
			f.stack.SetRoot(nil, animated, nil)
		}
		return
	}
	if f.stack.Contains(base) {
		f.stack.Remove(base, animated)
	}
}

// releaseChildren clears and detaches every nested flow. Their finished
// actions arrive while the flow is already in its next state and are
// ignored.
func (f *Flow) releaseChildren() {
	f.afterTimeline = nil
	if f.child != nil {
		f.child.ClearRoute(false)
		f.child.Detach()
		f.child = nil
	}
	if f.space != nil {
		f.space.ClearRoute(false)
		f.space.Detach()
		f.space = nil
	}
	if f.members != nil {
		f.members.ClearRoute(false)
		f.members.Detach()
		f.members = nil
	}
	if f.pinned != nil {
		f.pinned.ClearRoute(false)
		f.pinned.Detach()
		f.pinned = nil
	}
	if f.media != nil {
		f.media.ClearRoute(false)
		f.media.Detach()
		f.media = nil
	}
	if f.roles != nil {
		f.roles.ClearRoute(false)
		f.roles.Detach()
		f.roles = nil
	}
}

func (f *Flow) dismissSheet(animated bool) {
	if f.sheet != nil && f.stack.Sheet() == f.sheet {
		f.stack.SetSheet(nil, animated, nil)
	}
	f.sheet = nil
}

// pushScreen pushes a screen whose pop raises dismiss while the flow is
// still in s.
func (f *Flow) pushScreen(kind string, s State, dismiss EventKind, animated bool) *navigation.Screen {
	var screen *navigation.Screen
	screen = navigation.NewScreen(kind, func(action any) { f.handleScreenAction(screen, action) }).
		With("room", f.roomID)
	f.stack.Push(screen, animated, f.whileIn(s, dismiss))
	return screen
}

func (f *Flow) presentSheet(kind string, s State, dismiss EventKind, animated bool) *navigation.Screen {
	var screen *navigation.Screen
	screen = navigation.NewScreen(kind, func(action any) { f.handleSheetAction(screen, action) }).
		With("room", f.roomID)
	f.sheet = screen
	onDismiss := f.whileIn(s, dismiss)
	f.stack.SetSheet(screen, animated, func() {
		if f.sheet == screen {
			f.sheet = nil
		}
		onDismiss()
	})
	return screen
}

func (f *Flow) closeSheet(screen *navigation.Screen) {
	if f.stack.Sheet() == screen {
		f.stack.SetSheet(nil, true, nil)
	}
}

func (f *Flow) presentJoinRoomScreen(animated bool) {
	if f.base != nil && f.base.Kind == "JoinRoomScreen" {
		f.stack.PopToModule(f.base, animated)
		return
	}
	screen := navigation.NewScreen("JoinRoomScreen", func(action any) {
		switch a := action.(type) {
		case ScreenAction:
			switch a {
			case Join:
				f.join()
			case Back:
				f.raise(Event{Kind: EventDismissJoinRoomScreen}, true)
			}
		case DeclineAndBlock:
			f.raise(Event{Kind: EventPresentDeclineAndBlockScreen, UserID: a.UserID}, true)
		}
	}).With("room", f.roomID).With("membership", f.info.Membership.String())
	if len(f.via) > 0 {
		screen.Set("via", strings.Join(f.via, ","))
	}
	f.presentBase(screen, animated)
}

func (f *Flow) join() {
	roomID, via := f.roomID, f.via
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "room.join", func(ctx context.Context) func() {
		info, err := f.Params.Client().JoinRoom(ctx, roomID, via)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				log.ErrorErr(log.CatFlow, "join failed", err, "room", roomID)
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
				return
			}
			if f.machine.State().Kind != JoinRoomScreen {
				return
			}
			f.info = info
			if info.IsSpace {
				f.raise(Event{Kind: EventJoinedSpace}, true)
				return
			}
			f.raise(Event{Kind: EventPresentRoom, Entry: f.pending}, true)
		}
	})
}

func (f *Flow) presentThread(s State, focus string, animated bool) {
	tl, err := f.Params.Timelines.ThreadTimeline(f.roomID, s.ThreadRootID, focus)
	if err != nil {
		log.ErrorErr(log.CatFlow, "thread timeline could not be built", err, "room", f.roomID, "root", s.ThreadRootID)
		f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
		f.raise(Event{Kind: EventDismissThread}, animated)
		return
	}
	var screen *navigation.Screen
	screen = navigation.NewScreen("ThreadTimelineScreen", func(action any) { f.handleTimelineAction(screen, action) }).
		With("room", f.roomID).With("thread", s.ThreadRootID).With("timeline", tl.ID)
	if focus != "" {
		screen.Set("focus", focus)
	}
	f.stack.Push(screen, animated, f.whileIn(s, EventDismissThread))
}

func (f *Flow) presentRoomDetails(s State, animated bool) {
	var screen *navigation.Screen
	screen = navigation.NewScreen("RoomDetailsScreen", func(action any) { f.handleDetailsAction(screen, action) }).
		With("room", f.roomID)
	if f.info.Name != "" {
		screen.Set("name", f.info.Name)
	}
	if s.IsRoot {
		f.presentBase(screen, animated)
		return
	}
	f.stack.Push(screen, animated, f.whileIn(s, EventDismissRoomDetails))
}

func (f *Flow) handleTimelineAction(screen *navigation.Screen, action any) {
	switch a := action.(type) {
	case ScreenAction:
		switch a {
		case Back:
			if screen == f.base {
				f.raise(Event{Kind: EventDismissFlow}, true)
			} else {
				f.stack.Remove(screen, true)
			}
		case ShowDetails:
			f.raise(Event{Kind: EventPresentRoomDetails}, true)
		case ShowLocation:
			f.raise(Event{Kind: EventPresentMapNavigator, Mode: "picker"}, true)
		case CreatePoll:
			f.raise(Event{Kind: EventPresentPollForm, Mode: "new"}, true)
		case ShowPinnedEvents:
			if !f.Params.Flags.Enabled(flags.FlagPinnedEvents) {
				log.Debug(log.CatFlow, "pinned events disabled", "flow", f.Name)
				return
			}
			f.raise(Event{Kind: EventPresentPinnedEventsTimeline}, true)
		case StartCall:
			f.Emit(flow.PresentCallScreen(f.roomID))
		}
	case OpenThread:
		if !f.Params.Flags.Enabled(flags.FlagThreads) {
			log.Debug(log.CatFlow, "threads disabled", "flow", f.Name)
			return
		}
		f.raise(Event{Kind: EventPresentThread, ThreadRootID: a.RootID, FocusEventID: a.FocusEventID}, true)
	case ReportEvent:
		f.raise(Event{Kind: EventPresentReportContent, EventID: a.EventID, UserID: a.SenderID}, true)
	case PickMedia:
		f.raise(Event{Kind: EventPresentMediaUploadPicker, Mode: a.Mode}, true)
	case ShareMedia:
		f.raise(Event{Kind: EventPresentMediaUploadPreview, Files: a.Files}, true)
	case PickEmoji:
		f.raise(Event{Kind: EventPresentEmojiPicker, EventID: a.EventID}, true)
	case Forward:
		f.raise(Event{Kind: EventPresentMessageForwarding, EventID: a.EventID}, true)
	case FixSendFailure:
		f.raise(Event{Kind: EventPresentResolveSendFailure, EventID: a.EventID}, true)
	case OpenRoom:
		f.openRoom(a)
	case OpenUser:
		f.raise(Event{Kind: EventStartMembersFlow, Members: RoomMember(a.UserID)}, true)
	case VerifyUser:
		f.Emit(flow.VerifyUser(a.UserID))
	}
}

// openRoom follows a link from the timeline. Links into the presented room
// only move its focus.
func (f *Flow) openRoom(a OpenRoom) {
	if a.RoomID == f.roomID {
		if a.EventID != "" {
			f.raise(Event{Kind: EventPresentRoom, Entry: EntryPoint{Kind: EntryEvent, EventID: a.EventID}}, true)
		}
		return
	}
	entry := EntryPoint{Kind: EntryRoom}
	if a.EventID != "" {
		entry = EntryPoint{Kind: EntryEvent, EventID: a.EventID}
	}
	f.raise(Event{Kind: EventStartChildFlow, RoomID: a.RoomID, Via: a.Via, Entry: entry}, true)
}

var detailsEvents = map[DetailsAction]EventKind{
	DetailsEdit:                EventPresentRoomDetailsEditScreen,
	DetailsNotifications:       EventPresentNotificationSettings,
	DetailsPollsHistory:        EventPresentPollsHistory,
	DetailsRolesAndPermissions: EventPresentRolesAndPermissions,
	DetailsMediaEvents:         EventPresentMediaEventsTimeline,
	DetailsSecurityAndPrivacy:  EventPresentSecurityAndPrivacy,
	DetailsReportRoom:          EventPresentReportRoom,
	DetailsPinnedEvents:        EventPresentPinnedEventsTimeline,
	DetailsInvite:              EventPresentInviteUsersScreen,
	DetailsKnockRequests:       EventPresentKnockRequestsList,
	DetailsTransferOwnership:   EventPresentTransferOwnership,
}

func (f *Flow) handleDetailsAction(screen *navigation.Screen, action any) {
	switch a := action.(type) {
	case ScreenAction:
		if a != Back {
			return
		}
		if screen == f.base {
			f.raise(Event{Kind: EventDismissFlow}, true)
			return
		}
		f.stack.Remove(screen, true)
	case DetailsAction:
		switch a {
		case DetailsMembers:
			f.raise(Event{Kind: EventStartMembersFlow, Members: MembersList()}, true)
			return
		case DetailsLeftRoom:
			f.raise(Event{Kind: EventDismissFlow}, true)
			return
		case DetailsStartCall:
			f.Emit(flow.PresentCallScreen(f.roomID))
			return
		case DetailsPinnedEvents:
			if !f.Params.Flags.Enabled(flags.FlagPinnedEvents) {
				return
			}
		case DetailsKnockRequests:
			if !f.Params.Flags.Enabled(flags.FlagKnockRequests) {
				return
			}
		}
		if ev, ok := detailsEvents[a]; ok {
			f.raise(Event{Kind: ev}, true)
		}
	}
}

// handleScreenAction serves the pushed utility screens.
func (f *Flow) handleScreenAction(screen *navigation.Screen, action any) {
	switch action {
	case Back, Submitted:
		f.stack.Remove(screen, true)
	case ShowGlobalNotificationSettings:
		f.raise(Event{Kind: EventPresentGlobalNotificationSettings}, true)
	case CreatePoll:
		f.raise(Event{Kind: EventPresentPollForm, Mode: "new"}, true)
	case ManageAuthorizedSpaces:
		f.raise(Event{Kind: EventPresentManageAuthorizedSpaces}, true)
	case Declined:
		f.raise(Event{Kind: EventDismissJoinRoomScreen}, true)
	default:
		log.Debug(log.CatFlow, "unhandled screen action", "flow", f.Name, "screen", screen.Kind)
	}
}

func (f *Flow) handleSheetAction(screen *navigation.Screen, action any) {
	switch a := action.(type) {
	case ScreenAction:
		switch a {
		case Back:
			f.closeSheet(screen)
		case Submitted:
			f.closeSheet(screen)
			if screen.Kind == "ReportContentScreen" || screen.Kind == "ReportRoomScreen" {
				f.Params.Indicators.Submit(indicator.Success("Report submitted"), 0)
			}
		}
	case MediaSelected:
		f.raise(Event{Kind: EventPresentMediaUploadPreview, Files: a.Files}, true)
	case ForwardTo:
		f.closeSheet(screen)
		f.raise(Event{Kind: EventStartChildFlow, RoomID: a.RoomID, Entry: EntryPoint{Kind: EntryRoom}}, true)
	case InviteUsers:
		f.invite(screen, a.UserIDs)
	}
}

func (f *Flow) invite(screen *navigation.Screen, userIDs []string) {
	roomID := f.roomID
	client := f.Params.Client()
	f.Params.Indicators.Submit(indicator.Loading(f.LoadingID()), f.Params.Delays.LoadingIndicator)
	f.Params.Go(f.Life, "room.invite", func(ctx context.Context) func() {
		err := session.InviteAll(ctx, client, roomID, userIDs)
		return func() {
			f.Params.Indicators.Retract(f.LoadingID())
			if err != nil {
				var inviteErr *session.InviteError
				if errors.As(err, &inviteErr) {
					log.Warn(log.CatFlow, "some invites failed", "room", roomID, "failed", len(inviteErr.Failed))
				}
				f.Params.Indicators.Submit(indicator.Failure(f.FailureID()), 0)
			}
			f.closeSheet(screen)
		}
	})
}

func (f *Flow) startRoles(animated bool) {
	child := roles.New(f.Params, f.roomID, f.stack)
	child.Actions().Subscribe(func(roles.Action) {
		if f.roles == child && f.machine.State().Kind == RolesAndPermissionsFlow {
			f.raise(Event{Kind: EventDismissRolesAndPermissions}, true)
		}
	})
	f.roles = child
	child.Start(animated)
}

func (f *Flow) startTimelineFlow(child *TimelineFlow, state StateKind, dismiss EventKind, animated bool) {
	child.Actions().Subscribe(func(a flow.Action) {
		switch a.Kind {
		case flow.ActionFinished:
			if f.machine.State().Kind == state {
				f.raise(Event{Kind: dismiss}, true)
			}
			if next := f.afterTimeline; next != nil {
				f.afterTimeline = nil
				next()
			}
		case flow.ActionDisplayUser:
			f.afterTimeline = func() {
				f.raise(Event{Kind: EventStartMembersFlow, Members: RoomMember(a.UserID)}, true)
			}
			child.ClearRoute(true)
		case flow.ActionForwardMessage:
			if state == MediaEventsTimelineFlow {
				f.raise(Event{Kind: EventPresentMessageForwarding, EventID: a.EventID}, true)
				return
			}
			f.afterTimeline = func() {
				if f.machine.Can(Event{Kind: EventPresentMessageForwarding}) {
					f.raise(Event{Kind: EventPresentMessageForwarding, EventID: a.EventID}, true)
				}
			}
			child.ClearRoute(true)
		}
	})
	child.Start(animated)
}

func (f *Flow) startMembers(entry MembersEntry, animated bool) {
	members := NewMembersFlow(f.Params, f.roomID, f.stack, WithMemberSpaceFlows(f.newSpaceFlow))
	members.Actions().Subscribe(func(a flow.Action) {
		switch a.Kind {
		case flow.ActionFinished:
			if f.members == members && f.machine.State().Kind == MembersFlowState {
				f.raise(Event{Kind: EventStopMembersFlow}, true)
			}
		case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
			f.Emit(a)
		}
	})
	f.members = members
	members.Present(entry, animated)
}

func (f *Flow) startChild(roomID string, via []string, entry EntryPoint, animated bool) {
	child := New(f.Params, roomID, f.stack, AsChild(), WithSpaceFlows(f.newSpaceFlow))
	child.Actions().Subscribe(func(a flow.Action) {
		if f.child != child {
			return
		}
		switch a.Kind {
		case flow.ActionFinished:
			if f.machine.State() == (State{Kind: PresentingChild, ChildRoomID: roomID}) {
				f.raise(Event{Kind: EventDismissChildFlow}, true)
			}
		case flow.ActionContinueWithSpaceFlow:
			f.raise(Event{Kind: EventStartSpaceFlow, RoomID: a.RoomID}, true)
		case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
			f.Emit(a)
		}
	})
	f.child = child
	child.present(entry, via, animated)
}

func (f *Flow) startSpace(spaceID string, animated bool) {
	if f.child != nil {
		f.child.ClearRoute(false)
		f.child.Detach()
		f.child = nil
	}
	if f.newSpaceFlow == nil {
		log.Warn(log.CatFlow, "no space flow available", "flow", f.Name, "space", spaceID)
		f.raise(Event{Kind: EventFinishedSpaceFlow}, animated)
		return
	}
	space := f.newSpaceFlow(spaceID, f.stack)
	space.Actions().Subscribe(func(a flow.Action) {
		switch a.Kind {
		case flow.ActionFinished:
			if f.space == space && f.machine.State().Kind == SpaceFlow {
				f.raise(Event{Kind: EventFinishedSpaceFlow}, true)
			}
		case flow.ActionPresentCallScreen, flow.ActionVerifyUser:
			f.Emit(a)
		}
	})
	f.space = space
	space.Start(animated)
}
