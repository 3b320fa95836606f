package room

// ScreenAction is a payload-free user action sent to one of the room
// flow's screens.
type ScreenAction int

const (
	Back ScreenAction = iota
	Join
	Submitted
	Declined
	ShowDetails
	ShowLocation
	CreatePoll
	ShowPinnedEvents
	StartCall
	ShowGlobalNotificationSettings
	ManageAuthorizedSpaces
)

// DetailsAction is sent to the room details screen.
type DetailsAction int

const (
	DetailsEdit DetailsAction = iota
	DetailsNotifications
	DetailsPollsHistory
	DetailsRolesAndPermissions
	DetailsMediaEvents
	DetailsSecurityAndPrivacy
	DetailsReportRoom
	DetailsPinnedEvents
	DetailsMembers
	DetailsInvite
	DetailsKnockRequests
	DetailsTransferOwnership
	DetailsLeftRoom
	DetailsStartCall
)

// Timeline screen actions.
type (
	OpenThread struct {
		RootID       string
		FocusEventID string
	}
	ReportEvent struct {
		EventID  string
		SenderID string
	}
	PickMedia      struct{ Mode string }
	ShareMedia     struct{ Files []string }
	PickEmoji      struct{ EventID string }
	Forward        struct{ EventID string }
	FixSendFailure struct{ EventID string }
	OpenRoom       struct {
		RoomID  string
		Via     []string
		EventID string
	}
	OpenUser   struct{ UserID string }
	VerifyUser struct{ UserID string }
)

// Sheet and join screen actions.
type (
	MediaSelected   struct{ Files []string }
	ForwardTo       struct{ RoomID string }
	InviteUsers     struct{ UserIDs []string }
	DeclineAndBlock struct{ UserID string }
)
