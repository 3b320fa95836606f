package sqlite

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/roomflow/internal/testutil"
)

func newRepo(t *testing.T, limit int) *RecentsRepository {
	t.Helper()
	db := testutil.NewTestDB(t)
	require.NoError(t, Migrate(db))
	return NewRecentsRepository(db, limit)
}

func roomIDs(rooms []RecentRoom) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.RoomID
	}
	return ids
}

func TestRecents_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 10)
	base := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomABC, base))
	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomDEF, base.Add(time.Second)))
	require.NoError(t, repo.Track(ctx, "@other:example.org", testutil.RoomInvite, base))

	rooms, err := repo.List(ctx, testutil.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{testutil.RoomDEF, testutil.RoomABC}, roomIDs(rooms))
	require.True(t, rooms[0].VisitedAt.Equal(base.Add(time.Second)))
}

func TestRecents_RevisitMovesToFront(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 10)
	base := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomABC, base))
	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomDEF, base.Add(time.Second)))
	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomABC, base.Add(2*time.Second)))

	rooms, err := repo.List(ctx, testutil.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{testutil.RoomABC, testutil.RoomDEF}, roomIDs(rooms))
}

func TestRecents_PrunesBeyondLimit(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 2)
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"!a", "!b", "!c"} {
		require.NoError(t, repo.Track(ctx, testutil.UserID, id, base.Add(time.Duration(i)*time.Second)))
	}

	rooms, err := repo.List(ctx, testutil.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{"!c", "!b"}, roomIDs(rooms))
}

func TestRecents_Clear(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 0)
	require.Equal(t, DefaultRecentsLimit, repo.limit)

	require.NoError(t, repo.Track(ctx, testutil.UserID, testutil.RoomABC, time.Now()))
	require.NoError(t, repo.Clear(ctx, testutil.UserID))

	rooms, err := repo.List(ctx, testutil.UserID)
	require.NoError(t, err)
	require.Empty(t, rooms)
}

func TestRecents_Properties(t *testing.T) {
	repo := newRepo(t, 5)
	user := 0

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		user++
		userID := fmt.Sprintf("@prop%d:example.org", user)
		visits := rapid.SliceOfN(rapid.SampledFrom([]string{"!a", "!b", "!c", "!d", "!e", "!f", "!g"}), 1, 30).Draw(rt, "visits")

		base := time.UnixMilli(1_700_000_000_000)
		var want []string
		for i, id := range visits {
			if err := repo.Track(ctx, userID, id, base.Add(time.Duration(i)*time.Millisecond)); err != nil {
				rt.Fatal(err)
			}
			want = slices.DeleteFunc(want, func(s string) bool { return s == id })
			want = append([]string{id}, want...)
		}
		if len(want) > 5 {
			want = want[:5]
		}

		rooms, err := repo.List(ctx, userID)
		if err != nil {
			rt.Fatal(err)
		}
		if got := roomIDs(rooms); !slices.Equal(want, got) {
			rt.Fatalf("recents = %v, want %v", got, want)
		}
	})
}
