package sqlite

import "time"

// RecentRoom is a room the user opened, with the time of the last visit.
type RecentRoom struct {
	RoomID    string
	VisitedAt time.Time
}

// recentRoomModel is a recent_rooms row. Times are Unix milliseconds.
type recentRoomModel struct {
	UserID    string
	RoomID    string
	VisitedAt int64
}

func (m recentRoomModel) toRecentRoom() RecentRoom {
	return RecentRoom{RoomID: m.RoomID, VisitedAt: time.UnixMilli(m.VisitedAt)}
}
