package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualScheduler collects delayed work so tests decide when it fires.
type manualScheduler struct {
	queued []func()
	delays []time.Duration
}

func (s *manualScheduler) After(_ string, d time.Duration, fn func()) {
	s.queued = append(s.queued, fn)
	s.delays = append(s.delays, d)
}

func (s *manualScheduler) fireAll() {
	queued := s.queued
	s.queued = nil
	for _, fn := range queued {
		fn()
	}
}

func TestController_ImmediateSubmit(t *testing.T) {
	c := NewController(&manualScheduler{})
	c.Submit(Failure("ChatsFlow-Failure"), 0)

	require.True(t, c.IsShowing("ChatsFlow-Failure"))
	require.Equal(t, []Indicator{Failure("ChatsFlow-Failure")}, c.Active())
}

func TestController_DelayedSubmitShowsAfterDelay(t *testing.T) {
	s := &manualScheduler{}
	c := NewController(s)

	c.Submit(Loading("ChatsFlow-Loading"), 500*time.Millisecond)
	require.False(t, c.IsShowing("ChatsFlow-Loading"))
	require.Equal(t, []time.Duration{500 * time.Millisecond}, s.delays)

	s.fireAll()
	require.True(t, c.IsShowing("ChatsFlow-Loading"))

	c.Retract("ChatsFlow-Loading")
	require.False(t, c.IsShowing("ChatsFlow-Loading"))
}

func TestController_RetractBeforeDelayNeverShows(t *testing.T) {
	s := &manualScheduler{}
	c := NewController(s)

	c.Submit(Loading("ChatsFlow-Loading"), 500*time.Millisecond)
	c.Retract("ChatsFlow-Loading")
	s.fireAll()

	require.False(t, c.IsShowing("ChatsFlow-Loading"))
	require.False(t, c.WasShown("ChatsFlow-Loading"))
	history := c.History()
	require.Len(t, history, 1)
	require.Equal(t, OpCancelled, history[0].Op)
}

func TestController_IndicatorsAreKeyedPerFlow(t *testing.T) {
	c := NewController(&manualScheduler{})
	c.Submit(Loading("ChatsFlow-Loading"), 0)
	c.Submit(Loading("Authentication-Loading"), 0)

	c.Retract("Authentication-Loading")

	require.True(t, c.IsShowing("ChatsFlow-Loading"))
	require.False(t, c.IsShowing("Authentication-Loading"))
}

func TestController_ToastExpiry(t *testing.T) {
	s := &manualScheduler{}
	c := NewController(s, WithToastDuration(2*time.Second))

	c.Submit(Failure("RoomFlow-Failure"), 0)
	require.True(t, c.IsShowing("RoomFlow-Failure"))
	s.fireAll()
	require.False(t, c.IsShowing("RoomFlow-Failure"))
	require.True(t, c.WasShown("RoomFlow-Failure"))
}

func TestController_ResubmitDuringExpiryKeepsNewToast(t *testing.T) {
	s := &manualScheduler{}
	c := NewController(s, WithToastDuration(2*time.Second))

	c.Submit(Failure("RoomFlow-Failure"), 0)
	c.Submit(Failure("RoomFlow-Failure"), 0)
	// Only the expiry for the latest submission may retract it.
	first := s.queued[0]
	first()
	require.True(t, c.IsShowing("RoomFlow-Failure"))
}
