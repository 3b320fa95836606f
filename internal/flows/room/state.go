package room

import (
	"fmt"
	"slices"

	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/statemachine"
)

type StateKind int

const (
	Initial StateKind = iota
	JoinRoomScreen
	DeclineAndBlockScreen
	Room
	Thread
	RoomDetails
	RoomDetailsEditScreen
	NotificationSettings
	GlobalNotificationSettings
	PollsHistory
	PollsHistoryForm
	RolesAndPermissionsFlow
	PinnedEventsTimelineFlow
	MediaEventsTimelineFlow
	SecurityAndPrivacy
	ManageAuthorizedSpacesScreen
	ReportRoom
	ReportContent
	MediaUploadPicker
	MediaUploadPreview
	EmojiPicker
	MessageForwarding
	MapNavigator
	PollForm
	ResolveSendFailure
	KnockRequestsList
	InviteUsersScreen
	TransferOwnership
	MembersFlowState
	PresentingChild
	SpaceFlow
	Complete
)

var stateNames = [...]string{
	"initial", "joinRoomScreen", "declineAndBlockScreen", "room", "thread", "roomDetails",
	"roomDetailsEditScreen", "notificationSettings", "globalNotificationSettings", "pollsHistory",
	"pollsHistoryForm", "rolesAndPermissionsFlow", "pinnedEventsTimelineFlow", "mediaEventsTimelineFlow",
	"securityAndPrivacy", "manageAuthorizedSpaces", "reportRoom", "reportContent", "mediaUploadPicker",
	"mediaUploadPreview", "emojiPicker", "messageForwarding", "mapNavigator", "pollForm",
	"resolveSendFailure", "knockRequestsList", "inviteUsersScreen", "transferOwnership", "membersFlow",
	"presentingChild", "spaceFlow", "complete",
}

func (k StateKind) String() string {
	if int(k) < len(stateNames) {
		return stateNames[k]
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// State is the room flow's recorded state. Only the fields relevant to Kind
// are set.
type State struct {
	Kind         StateKind
	ThreadRootID string
	IsRoot       bool
	ChildRoomID  string
	UserID       string
	EventID      string
}

func (s State) String() string {
	switch s.Kind {
	case Thread:
		return fmt.Sprintf("thread(%s)", s.ThreadRootID)
	case RoomDetails:
		return fmt.Sprintf("roomDetails(isRoot: %t)", s.IsRoot)
	case PresentingChild:
		return fmt.Sprintf("presentingChild(%s)", s.ChildRoomID)
	case DeclineAndBlockScreen:
		return fmt.Sprintf("declineAndBlockScreen(%s)", s.UserID)
	case ReportContent, EmojiPicker, MessageForwarding:
		return fmt.Sprintf("%s(%s)", s.Kind, s.EventID)
	}
	return s.Kind.String()
}

type EventKind int

const (
	EventPresentJoinRoomScreen EventKind = iota
	EventDismissJoinRoomScreen
	EventJoinedSpace
	EventPresentRoom
	EventDismissFlow
	EventPresentThread
	EventDismissThread
	EventStartSpaceFlow
	EventFinishedSpaceFlow
	EventPresentReportContent
	EventDismissReportContent
	EventPresentRoomDetails
	EventDismissRoomDetails
	EventPresentRoomDetailsEditScreen
	EventDismissRoomDetailsEditScreen
	EventPresentNotificationSettings
	EventDismissNotificationSettings
	EventPresentGlobalNotificationSettings
	EventDismissGlobalNotificationSettings
	EventPresentInviteUsersScreen
	EventDismissInviteUsersScreen
	EventPresentMediaUploadPicker
	EventDismissMediaUploadPicker
	EventPresentMediaUploadPreview
	EventDismissMediaUploadPreview
	EventPresentEmojiPicker
	EventDismissEmojiPicker
	EventPresentMapNavigator
	EventDismissMapNavigator
	EventPresentMessageForwarding
	EventDismissMessageForwarding
	EventPresentPollForm
	EventDismissPollForm
	EventPresentPollsHistory
	EventDismissPollsHistory
	EventPresentRolesAndPermissions
	EventDismissRolesAndPermissions
	EventPresentPinnedEventsTimeline
	EventDismissPinnedEventsTimeline
	EventPresentResolveSendFailure
	EventDismissResolveSendFailure
	EventStartChildFlow
	EventDismissChildFlow
	EventPresentKnockRequestsList
	EventDismissKnockRequestsList
	EventPresentMediaEventsTimeline
	EventDismissMediaEventsTimeline
	EventPresentSecurityAndPrivacy
	EventDismissSecurityAndPrivacy
	EventPresentManageAuthorizedSpaces
	EventDismissManageAuthorizedSpaces
	EventPresentReportRoom
	EventDismissReportRoom
	EventPresentDeclineAndBlockScreen
	EventDismissDeclineAndBlockScreen
	EventPresentTransferOwnership
	EventDismissTransferOwnership
	EventStartMembersFlow
	EventStopMembersFlow
)

var eventNames = [...]string{
	"presentJoinRoomScreen", "dismissJoinRoomScreen", "joinedSpace", "presentRoom", "dismissFlow",
	"presentThread", "dismissThread", "startSpaceFlow", "finishedSpaceFlow",
	"presentReportContent", "dismissReportContent", "presentRoomDetails", "dismissRoomDetails",
	"presentRoomDetailsEditScreen", "dismissRoomDetailsEditScreen",
	"presentNotificationSettings", "dismissNotificationSettings",
	"presentGlobalNotificationSettings", "dismissGlobalNotificationSettings",
	"presentInviteUsersScreen", "dismissInviteUsersScreen",
	"presentMediaUploadPicker", "dismissMediaUploadPicker",
	"presentMediaUploadPreview", "dismissMediaUploadPreview",
	"presentEmojiPicker", "dismissEmojiPicker", "presentMapNavigator", "dismissMapNavigator",
	"presentMessageForwarding", "dismissMessageForwarding", "presentPollForm", "dismissPollForm",
	"presentPollsHistory", "dismissPollsHistory",
	"presentRolesAndPermissions", "dismissRolesAndPermissions",
	"presentPinnedEventsTimeline", "dismissPinnedEventsTimeline",
	"presentResolveSendFailure", "dismissResolveSendFailure",
	"startChildFlow", "dismissChildFlow",
	"presentKnockRequestsList", "dismissKnockRequestsList",
	"presentMediaEventsTimeline", "dismissMediaEventsTimeline",
	"presentSecurityAndPrivacy", "dismissSecurityAndPrivacy",
	"presentManageAuthorizedSpaces", "dismissManageAuthorizedSpaces",
	"presentReportRoom", "dismissReportRoom",
	"presentDeclineAndBlockScreen", "dismissDeclineAndBlockScreen",
	"presentTransferOwnership", "dismissTransferOwnership",
	"startMembersFlow", "stopMembersFlow",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is raised on the room flow's machine. Payload fields are set only
// for the kinds that carry them.
type Event struct {
	Kind         EventKind
	RoomID       string
	Via          []string
	ThreadRootID string
	FocusEventID string
	EventID      string
	UserID       string
	Mode         string
	Files        []string
	Entry        EntryPoint
	Members      MembersEntry
}

func (e Event) String() string {
	switch e.Kind {
	case EventPresentRoom:
		return fmt.Sprintf("presentRoom(%s)", e.Entry)
	case EventPresentThread:
		return fmt.Sprintf("presentThread(%s)", e.ThreadRootID)
	case EventStartChildFlow:
		return fmt.Sprintf("startChildFlow(%s, %s)", e.RoomID, e.Entry)
	case EventStartSpaceFlow:
		return fmt.Sprintf("startSpaceFlow(%s)", e.RoomID)
	case EventPresentDeclineAndBlockScreen:
		return fmt.Sprintf("presentDeclineAndBlockScreen(%s)", e.UserID)
	case EventStartMembersFlow:
		return fmt.Sprintf("startMembersFlow(%s)", e.Members)
	}
	return e.Kind.String()
}

// EntryKind selects how a room is first presented.
type EntryKind int

const (
	EntryRoom EntryKind = iota
	EntryEvent
	EntryRoomDetails
	EntryShare
	EntryTransferOwnership
	EntryThread
)

// EntryPoint is the presentation a route asks for.
type EntryPoint struct {
	Kind         EntryKind
	EventID      string
	ThreadRootID string
	Share        route.SharePayload
}

func (e EntryPoint) String() string {
	switch e.Kind {
	case EntryEvent:
		return "eventID(" + e.EventID + ")"
	case EntryRoomDetails:
		return "roomDetails"
	case EntryShare:
		return "share"
	case EntryTransferOwnership:
		return "transferOwnership"
	case EntryThread:
		return fmt.Sprintf("thread(%s, focus %q)", e.ThreadRootID, e.EventID)
	}
	return "room"
}

// focusEventID is the event the room timeline is built around. A thread
// entry with a focus keeps the room timeline on the thread root.
func (e EntryPoint) focusEventID() string {
	switch e.Kind {
	case EntryEvent:
		return e.EventID
	case EntryThread:
		if e.EventID != "" {
			return e.ThreadRootID
		}
	}
	return ""
}

// EntryForRoute maps a route targeting this room to its entry point.
func EntryForRoute(r route.Route) EntryPoint {
	switch r.Kind {
	case route.KindEvent, route.KindChildEvent:
		return EntryPoint{Kind: EntryEvent, EventID: r.EventID}
	case route.KindRoomDetails:
		return EntryPoint{Kind: EntryRoomDetails}
	case route.KindShare:
		return EntryPoint{Kind: EntryShare, Share: r.Share}
	case route.KindTransferOwnership:
		return EntryPoint{Kind: EntryTransferOwnership}
	case route.KindThread:
		return EntryPoint{Kind: EntryThread, ThreadRootID: r.ThreadRootID, EventID: r.EventID}
	}
	return EntryPoint{Kind: EntryRoom}
}

type (
	rule   = statemachine.Rule[State, Event]
	target = statemachine.Target[State]
)

// on matches ev from any of the given state kinds, or from every state when
// none are given.
func on(ev EventKind, from []StateKind, to func(State, Event) target) rule {
	return func(s State, e Event) (target, bool) {
		if e.Kind != ev || (len(from) > 0 && !slices.Contains(from, s.Kind)) {
			return target{}, false
		}
		return to(s, e), true
	}
}

func from(kinds ...StateKind) []StateKind { return kinds }

var anyState []StateKind

func push(kind StateKind) func(State, Event) target {
	return func(State, Event) target { return statemachine.Push(State{Kind: kind}) }
}

func pushWithEvent(kind StateKind) func(State, Event) target {
	return func(_ State, e Event) target { return statemachine.Push(State{Kind: kind, EventID: e.EventID}) }
}

func restore(State, Event) target { return statemachine.Restore[State]() }

func set(kind StateKind) func(State, Event) target {
	return func(State, Event) target { return statemachine.Set(State{Kind: kind}) }
}

// timelines are the states that show a timeline a utility screen can be
// opened from.
var timelines = from(Room, Thread)

// addRules registers the room flow's transition table. Order matters: the
// first matching rule wins.
func addRules(m *statemachine.Machine[State, Event, flow.EventInfo]) {
	add := m.AddRule

	add(on(EventPresentRoom, anyState, set(Room)))
	add(on(EventDismissFlow, anyState, set(Complete)))

	add(on(EventPresentReportContent, timelines, pushWithEvent(ReportContent)))
	add(on(EventPresentMediaUploadPicker, timelines, push(MediaUploadPicker)))
	add(on(EventPresentMediaUploadPreview, timelines, push(MediaUploadPreview)))
	add(on(EventPresentEmojiPicker, timelines, pushWithEvent(EmojiPicker)))
	add(on(EventPresentMessageForwarding, from(Room, Thread, MediaEventsTimelineFlow), pushWithEvent(MessageForwarding)))
	add(on(EventPresentMapNavigator, timelines, push(MapNavigator)))
	add(on(EventPresentPollForm, timelines, push(PollForm)))
	add(on(EventPresentResolveSendFailure, timelines, push(ResolveSendFailure)))

	add(on(EventPresentPinnedEventsTimeline, from(Room, RoomDetails), push(PinnedEventsTimelineFlow)))
	add(on(EventDismissPinnedEventsTimeline, from(PinnedEventsTimelineFlow), restore))

	add(on(EventPresentThread, timelines, func(_ State, e Event) target {
		return statemachine.Push(State{Kind: Thread, ThreadRootID: e.ThreadRootID})
	}))
	add(on(EventDismissThread, from(Thread), restore))

	add(on(EventDismissMediaUploadPicker, from(MediaUploadPicker), restore))
	add(on(EventDismissEmojiPicker, from(EmojiPicker), restore))
	add(on(EventDismissReportContent, from(ReportContent), restore))
	add(on(EventDismissMessageForwarding, from(MessageForwarding), restore))
	add(on(EventDismissMapNavigator, from(MapNavigator), restore))
	add(on(EventDismissPollForm, from(PollForm), restore))
	add(on(EventDismissResolveSendFailure, from(ResolveSendFailure), restore))

	add(on(EventPresentRoomDetails, from(Initial), func(State, Event) target {
		return statemachine.Set(State{Kind: RoomDetails, IsRoot: true})
	}))
	add(on(EventPresentRoomDetails, from(Room), func(State, Event) target {
		return statemachine.Push(State{Kind: RoomDetails})
	}))
	add(on(EventDismissRoomDetails, from(RoomDetails), func(s State, _ Event) target {
		if s.IsRoot {
			return statemachine.Set(State{Kind: Room})
		}
		return statemachine.Restore[State]()
	}))

	details := from(RoomDetails)
	add(on(EventPresentRoomDetailsEditScreen, details, push(RoomDetailsEditScreen)))
	add(on(EventDismissRoomDetailsEditScreen, from(RoomDetailsEditScreen), restore))
	add(on(EventPresentNotificationSettings, details, push(NotificationSettings)))
	add(on(EventDismissNotificationSettings, from(NotificationSettings), restore))
	add(on(EventPresentPollsHistory, details, push(PollsHistory)))
	add(on(EventDismissPollsHistory, from(PollsHistory), restore))
	add(on(EventPresentRolesAndPermissions, details, push(RolesAndPermissionsFlow)))
	add(on(EventDismissRolesAndPermissions, from(RolesAndPermissionsFlow), restore))
	add(on(EventPresentMediaEventsTimeline, details, push(MediaEventsTimelineFlow)))
	add(on(EventDismissMediaEventsTimeline, from(MediaEventsTimelineFlow), restore))
	add(on(EventPresentSecurityAndPrivacy, details, push(SecurityAndPrivacy)))
	add(on(EventDismissSecurityAndPrivacy, from(SecurityAndPrivacy), restore))
	add(on(EventPresentManageAuthorizedSpaces, from(SecurityAndPrivacy), push(ManageAuthorizedSpacesScreen)))
	add(on(EventDismissManageAuthorizedSpaces, from(ManageAuthorizedSpacesScreen), restore))
	add(on(EventPresentReportRoom, details, push(ReportRoom)))
	add(on(EventDismissReportRoom, from(ReportRoom), restore))

	add(on(EventPresentJoinRoomScreen, anyState, set(JoinRoomScreen)))
	add(on(EventDismissJoinRoomScreen, anyState, set(Complete)))
	add(on(EventJoinedSpace, anyState, set(Complete)))
	add(on(EventPresentDeclineAndBlockScreen, from(JoinRoomScreen), func(_ State, e Event) target {
		return statemachine.Push(State{Kind: DeclineAndBlockScreen, UserID: e.UserID})
	}))
	add(on(EventDismissDeclineAndBlockScreen, from(DeclineAndBlockScreen), restore))

	add(on(EventStartMembersFlow, anyState, push(MembersFlowState)))
	add(on(EventStopMembersFlow, from(MembersFlowState), restore))

	add(on(EventStartChildFlow, anyState, func(_ State, e Event) target {
		return statemachine.Push(State{Kind: PresentingChild, ChildRoomID: e.RoomID})
	}))
	add(on(EventDismissChildFlow, from(PresentingChild), restore))
	add(on(EventStartSpaceFlow, from(PresentingChild), func(State, Event) target {
		return statemachine.Replace(State{Kind: SpaceFlow})
	}))
	add(on(EventFinishedSpaceFlow, from(SpaceFlow), restore))

	add(on(EventPresentKnockRequestsList, anyState, push(KnockRequestsList)))
	add(on(EventDismissKnockRequestsList, from(KnockRequestsList), restore))
	add(on(EventDismissMediaUploadPreview, from(MediaUploadPreview), restore))

	add(on(EventPresentGlobalNotificationSettings, from(NotificationSettings), push(GlobalNotificationSettings)))
	add(on(EventDismissGlobalNotificationSettings, from(GlobalNotificationSettings), restore))
	add(on(EventPresentPollForm, from(PollsHistory), push(PollsHistoryForm)))
	add(on(EventDismissPollForm, from(PollsHistoryForm), restore))

	// The preview takes the picker's place, so dismissing it returns to
	// whatever the picker was opened from.
	add(on(EventPresentMediaUploadPreview, from(MediaUploadPicker), func(State, Event) target {
		return statemachine.Replace(State{Kind: MediaUploadPreview})
	}))

	add(on(EventPresentInviteUsersScreen, anyState, push(InviteUsersScreen)))
	add(on(EventDismissInviteUsersScreen, from(InviteUsersScreen), restore))
	add(on(EventPresentTransferOwnership, anyState, push(TransferOwnership)))
	add(on(EventDismissTransferOwnership, from(TransferOwnership), restore))
}
