package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/session"
)

func TestStandardSession(t *testing.T) {
	client := StandardSession().Build()
	ctx := context.Background()

	info, err := client.RoomSummary(ctx, RoomInvite)
	require.NoError(t, err)
	require.Equal(t, session.MembershipInvited, info.Membership)

	res, err := client.ResolveAlias(ctx, AliasGeneral)
	require.NoError(t, err)
	require.Equal(t, RoomABC, res.RoomID)

	details, err := client.EventDetails(ctx, RoomABC, ThreadReply)
	require.NoError(t, err)
	require.Equal(t, ThreadRoot, details.ThreadRootID)

	space, err := client.RoomSummary(ctx, SpaceHQ)
	require.NoError(t, err)
	require.True(t, space.IsSpace)
	require.Equal(t, []string{SpaceChild}, space.Children)
}

func TestHarness_DoWaitsForFollowUpTasks(t *testing.T) {
	h := NewHarness(t)

	ran := false
	h.Do(func() {
		h.Loop.After("follow-up", 0, func() { ran = true })
	})
	require.True(t, ran)
	require.True(t, h.Params.Flags.Enabled(flags.FlagThreads))
	require.Same(t, h.Client, h.Params.Client())
}

func TestHarness_DetailStack(t *testing.T) {
	h := NewHarness(t)
	stack := h.NewDetailStack()
	require.Same(t, stack, Get(h, h.Split.Detail))
}

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)
	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	require.Equal(t, 1, one)
}
