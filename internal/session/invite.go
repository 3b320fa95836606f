package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/roomflow/internal/log"
)

// maxConcurrentInvites bounds in-flight invite requests.
const maxConcurrentInvites = 4

// InviteAll invites every user to roomID concurrently. A failed invite does
// not stop the others; all failures are reported in one *InviteError.
func InviteAll(ctx context.Context, client Client, roomID string, userIDs []string) error {
	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInvites)
	for _, userID := range userIDs {
		g.Go(func() error {
			if err := client.Invite(gctx, roomID, userID); err != nil {
				mu.Lock()
				failed[userID] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		log.Warn(log.CatSession, "invites failed", "room", roomID, "failed", len(failed), "total", len(userIDs))
		return &InviteError{RoomID: roomID, Failed: failed}
	}
	log.Debug(log.CatSession, "invites sent", "room", roomID, "count", len(userIDs))
	return nil
}
