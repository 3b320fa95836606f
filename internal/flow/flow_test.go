package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/mainloop"
	"github.com/zjrosen/roomflow/internal/pubsub"
)

func startLoop(t *testing.T) *mainloop.Loop {
	t.Helper()
	l := mainloop.New()
	l.Start(context.Background())
	t.Cleanup(l.Stop)
	return l
}

func idle(t *testing.T, l *mainloop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.WaitIdle(ctx))
}

func TestActions_DeliveredInOrderAndNeverInline(t *testing.T) {
	l := startLoop(t)
	actions := NewActions[Action]("room", l, NewLifetime(), nil)

	var got []Action
	actions.Subscribe(func(a Action) { got = append(got, a) })

	deliveredDuringEmit := -1
	require.NoError(t, l.Do(context.Background(), "emit", func() {
		actions.Emit(PresentCallScreen("!abc"))
		actions.Emit(Finished())
		deliveredDuringEmit = len(got)
	}))
	idle(t, l)

	require.Equal(t, 0, deliveredDuringEmit)
	require.Equal(t, []Action{PresentCallScreen("!abc"), Finished()}, got)
}

func TestActions_CancelDropsPendingDeliveries(t *testing.T) {
	l := startLoop(t)
	actions := NewActions[Action]("room", l, NewLifetime(), nil)

	var got []Action
	require.NoError(t, l.Do(context.Background(), "emit", func() {
		cancel := actions.Subscribe(func(a Action) { got = append(got, a) })
		actions.Emit(Finished())
		cancel()
	}))
	idle(t, l)

	require.Empty(t, got)
}

func TestActions_EndedLifetimeDropsDeliveries(t *testing.T) {
	l := startLoop(t)
	life := NewLifetime()
	actions := NewActions[Action]("room", l, life, nil)

	var got []Action
	actions.Subscribe(func(a Action) { got = append(got, a) })
	require.NoError(t, l.Do(context.Background(), "emit", func() {
		actions.Emit(Finished())
		life.End()
	}))
	idle(t, l)

	require.Empty(t, got)
}

func TestActions_PublishesRecords(t *testing.T) {
	l := startLoop(t)
	bus := pubsub.NewBroker[any]()
	defer bus.Close()
	ch := bus.Subscribe(context.Background())

	actions := NewActions[Action]("members", l, NewLifetime(), bus)
	actions.Emit(DisplayUser("@bob:example.org"))

	event := <-ch
	require.Equal(t, pubsub.ActionEvent, event.Type)
	require.Equal(t, ActionRecord{Flow: "members", Action: "displayUser(@bob:example.org)"}, event.Payload)
}

func TestLifetime_OnEndRunsOnce(t *testing.T) {
	life := NewLifetime()
	calls := 0
	life.OnEnd(func() { calls++ })

	require.True(t, life.Alive())
	life.End()
	life.End()
	require.False(t, life.Alive())
	require.Equal(t, 1, calls)
	require.Error(t, life.Context().Err())

	// Registering after the end runs immediately.
	life.OnEnd(func() { calls++ })
	require.Equal(t, 2, calls)

	var nilLife *Lifetime
	require.True(t, nilLife.Alive())
}

func TestParameters_GoDropsContinuationAfterEnd(t *testing.T) {
	l := startLoop(t)
	p := &Parameters{Loop: l}
	life := NewLifetime()

	release := make(chan struct{})
	var cancelled bool
	applied := false
	p.Go(life, "room.resolve", func(ctx context.Context) func() {
		select {
		case <-release:
		case <-ctx.Done():
			cancelled = true
		}
		return func() { applied = true }
	})

	require.NoError(t, l.Do(context.Background(), "end", life.End))
	idle(t, l)

	require.True(t, cancelled)
	require.False(t, applied)
	close(release)
}

func TestParameters_GoAppliesContinuationOnLoop(t *testing.T) {
	l := startLoop(t)
	p := &Parameters{Loop: l}

	applied := false
	p.Go(NewLifetime(), "room.resolve", func(ctx context.Context) func() {
		return func() { applied = true }
	})
	idle(t, l)

	require.True(t, applied)
}

func TestParameters_AfterChecksLiveness(t *testing.T) {
	l := startLoop(t)
	p := &Parameters{Loop: l}
	life := NewLifetime()

	fired := 0
	p.After(life, "first", 0, func() { fired++ })
	idle(t, l)
	life.End()
	p.After(life, "second", 0, func() { fired++ })
	idle(t, l)

	require.Equal(t, 1, fired)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
