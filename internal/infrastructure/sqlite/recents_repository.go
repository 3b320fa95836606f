package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zjrosen/roomflow/internal/session"
)

// DefaultRecentsLimit is the number of rooms kept per user when no limit
// is configured.
const DefaultRecentsLimit = 20

// RecentsRepository records the rooms each user visited, keeping the
// newest limit entries per user.
type RecentsRepository struct {
	db    *sql.DB
	limit int
}

var _ session.RecentsStore = (*RecentsRepository)(nil)

func NewRecentsRepository(db *sql.DB, limit int) *RecentsRepository {
	if limit <= 0 {
		limit = DefaultRecentsLimit
	}
	return &RecentsRepository{db: db, limit: limit}
}

// Track records a visit to roomID at at and drops the user's oldest
// entries beyond the limit.
func (r *RecentsRepository) Track(ctx context.Context, userID, roomID string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recent_rooms (user_id, room_id, visited_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, room_id) DO UPDATE SET visited_at = excluded.visited_at`,
		userID, roomID, at.UnixMilli(),
	); err != nil {
		return fmt.Errorf("upsert recent room: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_rooms WHERE user_id = ? AND room_id NOT IN (
			SELECT room_id FROM recent_rooms WHERE user_id = ?
			ORDER BY visited_at DESC, room_id LIMIT ?
		)`,
		userID, userID, r.limit,
	); err != nil {
		return fmt.Errorf("prune recent rooms: %w", err)
	}
	return tx.Commit()
}

// List returns the user's recent rooms, newest first.
func (r *RecentsRepository) List(ctx context.Context, userID string) ([]RecentRoom, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, room_id, visited_at FROM recent_rooms
		 WHERE user_id = ? ORDER BY visited_at DESC, room_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rooms []RecentRoom
	for rows.Next() {
		var m recentRoomModel
		if err := rows.Scan(&m.UserID, &m.RoomID, &m.VisitedAt); err != nil {
			return nil, fmt.Errorf("scan recent room: %w", err)
		}
		rooms = append(rooms, m.toRecentRoom())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent rooms: %w", err)
	}
	return rooms, nil
}

// Clear forgets every recent room of the user.
func (r *RecentsRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recent_rooms WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear recent rooms: %w", err)
	}
	return nil
}
