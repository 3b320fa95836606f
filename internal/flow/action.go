package flow

import "fmt"

// ActionKind enumerates the actions room-like flows report to their parent.
type ActionKind int

const (
	ActionFinished ActionKind = iota + 1
	ActionPresentCallScreen
	ActionVerifyUser
	ActionContinueWithSpaceFlow
	ActionDisplayUser
	ActionForwardMessage
	ActionShowSettings
	ActionPresentRoom
)

func (k ActionKind) String() string {
	switch k {
	case ActionFinished:
		return "finished"
	case ActionPresentCallScreen:
		return "presentCallScreen"
	case ActionVerifyUser:
		return "verifyUser"
	case ActionContinueWithSpaceFlow:
		return "continueWithSpaceFlow"
	case ActionDisplayUser:
		return "displayUser"
	case ActionForwardMessage:
		return "forwardMessage"
	case ActionShowSettings:
		return "showSettings"
	case ActionPresentRoom:
		return "presentRoom"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is emitted by the room, space, members and timeline flows.
type Action struct {
	Kind    ActionKind
	RoomID  string
	UserID  string
	EventID string
}

func Finished() Action { return Action{Kind: ActionFinished} }

func PresentCallScreen(roomID string) Action {
	return Action{Kind: ActionPresentCallScreen, RoomID: roomID}
}

func VerifyUser(userID string) Action { return Action{Kind: ActionVerifyUser, UserID: userID} }

func ContinueWithSpaceFlow(spaceID string) Action {
	return Action{Kind: ActionContinueWithSpaceFlow, RoomID: spaceID}
}

func DisplayUser(userID string) Action { return Action{Kind: ActionDisplayUser, UserID: userID} }

func ForwardMessage(eventID string) Action {
	return Action{Kind: ActionForwardMessage, EventID: eventID}
}

func ShowSettings() Action { return Action{Kind: ActionShowSettings} }

func PresentRoom(roomID string) Action { return Action{Kind: ActionPresentRoom, RoomID: roomID} }

func (a Action) String() string {
	switch {
	case a.RoomID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.RoomID)
	case a.UserID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.UserID)
	case a.EventID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.EventID)
	}
	return a.Kind.String()
}
