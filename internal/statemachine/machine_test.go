package statemachine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/roomflow/internal/pubsub"
)

type testState struct {
	Kind string
	ID   string
}

func (s testState) String() string {
	if s.ID == "" {
		return s.Kind
	}
	return s.Kind + "(" + s.ID + ")"
}

type testEvent struct {
	Kind string
	ID   string
}

type testInfo struct {
	Animated bool
}

func st(kind string) testState { return testState{Kind: kind} }
func ev(kind string) testEvent { return testEvent{Kind: kind} }

// on builds a rule matching a single (from kind, event kind) pair.
func on(from, event string, target func(testEvent) Target[testState]) Rule[testState, testEvent] {
	return func(f testState, e testEvent) (Target[testState], bool) {
		if f.Kind != from || e.Kind != event {
			return Target[testState]{}, false
		}
		return target(e), true
	}
}

func newRecordingMachine(t *testing.T) (*Machine[testState, testEvent, testInfo], *[]ErrorContext[testState, testEvent, testInfo]) {
	t.Helper()
	m := New[testState, testEvent, testInfo]("test", st("initial"))
	var errs []ErrorContext[testState, testEvent, testInfo]
	m.SetErrorHandler(func(c ErrorContext[testState, testEvent, testInfo]) {
		errs = append(errs, c)
	})
	return m, &errs
}

func TestMachine_FirstMatchingRuleWins(t *testing.T) {
	m, errs := newRecordingMachine(t)
	m.AddRule(on("initial", "start", func(testEvent) Target[testState] { return Set(st("first")) }))
	m.AddRule(on("initial", "start", func(testEvent) Target[testState] { return Set(st("second")) }))

	require.True(t, m.TryEvent(ev("start"), testInfo{}))
	require.Equal(t, st("first"), m.State())
	require.Empty(t, *errs)
}

func TestMachine_HandlersRunInOrderWithTransition(t *testing.T) {
	m, _ := newRecordingMachine(t)
	var calls []string
	m.AddRoute(on("initial", "start", func(testEvent) Target[testState] { return Set(st("room")) }),
		func(tr Transition[testState, testEvent, testInfo]) {
			calls = append(calls, "route:"+tr.To.Kind)
		})
	m.AddHandler(func(tr Transition[testState, testEvent, testInfo]) {
		calls = append(calls, fmt.Sprintf("any1:%s->%s animated=%v", tr.From, tr.To, tr.Payload.Animated))
	})
	m.AddHandler(func(tr Transition[testState, testEvent, testInfo]) {
		calls = append(calls, "any2")
	})

	require.True(t, m.TryEvent(ev("start"), testInfo{Animated: true}))
	require.Equal(t, []string{"route:room", "any1:initial->room animated=true", "any2"}, calls)
}

func TestMachine_UnmatchedEventLeavesStateAndReportsOnce(t *testing.T) {
	m, errs := newRecordingMachine(t)
	m.AddRule(on("initial", "start", func(testEvent) Target[testState] { return Set(st("room")) }))
	handled := 0
	m.AddHandler(func(Transition[testState, testEvent, testInfo]) { handled++ })

	require.False(t, m.TryEvent(ev("dismiss"), testInfo{}))
	require.Equal(t, st("initial"), m.State())
	require.Equal(t, 0, handled)
	require.Len(t, *errs, 1)

	got := (*errs)[0]
	require.Equal(t, st("initial"), got.From)
	require.Equal(t, st("initial"), got.To)
	require.Equal(t, ev("dismiss"), got.Event)
	require.ErrorIs(t, got.Reason, ErrNoRule)
	require.False(t, got.Duplicate)
}

func TestMachine_PushRestoreReplace(t *testing.T) {
	m, errs := newRecordingMachine(t)
	m.AddRule(on("initial", "open", func(testEvent) Target[testState] { return Set(st("room")) }))
	m.AddRule(on("room", "details", func(testEvent) Target[testState] { return Push(st("details")) }))
	m.AddRule(on("details", "picker", func(testEvent) Target[testState] { return Push(st("picker")) }))
	m.AddRule(on("picker", "preview", func(testEvent) Target[testState] { return Replace(st("preview")) }))
	m.AddRule(func(_ testState, e testEvent) (Target[testState], bool) {
		return Restore[testState](), e.Kind == "back"
	})

	require.True(t, m.TryEvent(ev("open"), testInfo{}))
	require.True(t, m.TryEvent(ev("details"), testInfo{}))
	require.True(t, m.TryEvent(ev("picker"), testInfo{}))
	require.True(t, m.TryEvent(ev("preview"), testInfo{}))

	require.Equal(t, []testState{st("room"), st("details"), st("preview")}, m.Chain())
	prev, ok := m.Previous()
	require.True(t, ok)
	require.Equal(t, st("details"), prev)

	require.True(t, m.TryEvent(ev("back"), testInfo{}))
	require.Equal(t, st("details"), m.State())
	require.True(t, m.TryEvent(ev("back"), testInfo{}))
	require.Equal(t, st("room"), m.State())
	require.Equal(t, 1, m.Depth())

	require.False(t, m.Can(ev("back")))
	require.False(t, m.TryEvent(ev("back"), testInfo{}))
	require.Len(t, *errs, 1)
	require.ErrorIs(t, (*errs)[0].Reason, ErrNothingToRestore)
	require.Equal(t, st("room"), m.State())
}

func TestMachine_SetClearsHistory(t *testing.T) {
	m, _ := newRecordingMachine(t)
	m.AddRule(on("initial", "open", func(testEvent) Target[testState] { return Set(st("room")) }))
	m.AddRule(on("room", "details", func(testEvent) Target[testState] { return Push(st("details")) }))
	m.AddRule(on("details", "join", func(testEvent) Target[testState] { return Set(st("join")) }))

	m.TryEvent(ev("open"), testInfo{})
	m.TryEvent(ev("details"), testInfo{})
	m.TryEvent(ev("join"), testInfo{})

	require.Equal(t, []testState{st("join")}, m.Chain())
	_, ok := m.Previous()
	require.False(t, ok)
}

func TestMachine_DuplicateDetection(t *testing.T) {
	m, errs := newRecordingMachine(t)
	m.AddRule(on("initial", "open", func(testEvent) Target[testState] { return Set(st("list")) }))
	m.AddRule(on("list", "settings", func(testEvent) Target[testState] { return Set(st("settings")) }))
	m.AddRule(on("settings", "dismissedSettings", func(testEvent) Target[testState] { return Set(st("list")) }))

	m.TryEvent(ev("open"), testInfo{})
	m.TryEvent(ev("settings"), testInfo{})
	m.TryEvent(ev("dismissedSettings"), testInfo{Animated: true})

	// Same event, same payload, same resulting state: a duplicate delivery.
	require.False(t, m.TryEvent(ev("dismissedSettings"), testInfo{Animated: true}))
	require.Len(t, *errs, 1)
	require.True(t, (*errs)[0].Duplicate)

	// A different payload is not a duplicate.
	require.False(t, m.TryEvent(ev("dismissedSettings"), testInfo{Animated: false}))
	require.Len(t, *errs, 2)
	require.False(t, (*errs)[1].Duplicate)
}

func TestMachine_DefaultErrorHandlerPanicsWithContext(t *testing.T) {
	m := New[testState, testEvent, testInfo]("rooms", st("initial"))

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(*InvalidTransitionError)
		require.True(t, ok, "panic value should be *InvalidTransitionError, got %T", r)
		require.Equal(t, "rooms", err.Machine)
		require.Equal(t, "initial", err.From)
		require.Equal(t, "initial", err.To)
		require.True(t, errors.Is(err, ErrNoRule))
		require.Contains(t, err.Error(), "invalid transition")
	}()

	m.TryEvent(ev("bogus"), testInfo{})
}

func TestMachine_DefaultErrorHandlerToleratesDuplicates(t *testing.T) {
	m := New[testState, testEvent, testInfo]("rooms", st("initial"))
	m.AddRule(on("initial", "open", func(testEvent) Target[testState] { return Set(st("list")) }))

	require.True(t, m.TryEvent(ev("open"), testInfo{}))
	require.NotPanics(t, func() {
		require.False(t, m.TryEvent(ev("open"), testInfo{}))
	})
}

func TestMachine_LogSameStateNeverPanics(t *testing.T) {
	m := New[testState, testEvent, testInfo]("lenient", st("initial"))
	m.SetErrorHandler(LogSameState[testState, testEvent, testInfo]())
	require.NotPanics(t, func() {
		require.False(t, m.TryEvent(ev("anything"), testInfo{}))
	})
}

func TestMachine_ReentrantTryEvent(t *testing.T) {
	m, errs := newRecordingMachine(t)
	m.AddRule(on("initial", "start", func(testEvent) Target[testState] { return Set(st("loading")) }))
	m.AddRule(on("loading", "loaded", func(testEvent) Target[testState] { return Set(st("room")) }))

	var seen []string
	m.AddHandler(func(tr Transition[testState, testEvent, testInfo]) {
		seen = append(seen, tr.To.Kind)
		if tr.To.Kind == "loading" {
			m.TryEvent(ev("loaded"), tr.Payload)
		}
	})

	require.True(t, m.TryEvent(ev("start"), testInfo{}))
	require.Equal(t, st("room"), m.State())
	require.Equal(t, []string{"loading", "room"}, seen)
	require.Empty(t, *errs)
}

func TestMachine_PublishesRecords(t *testing.T) {
	bus := pubsub.NewBroker[any]()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Subscribe(ctx)

	m, _ := newRecordingMachine(t)
	m.SetEventBus(bus)
	m.AddRule(on("initial", "start", func(testEvent) Target[testState] { return Set(testState{Kind: "room", ID: "!abc"}) }))
	m.TryEvent(ev("start"), testInfo{})

	event := <-ch
	require.Equal(t, pubsub.TransitionEvent, event.Type)
	want := Record{Machine: "test", From: "initial", Event: "{start }", To: "room(!abc)", Op: "set", Depth: 1}
	if diff := cmp.Diff(want, event.Payload); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

var (
	propStates = []string{"a", "b", "c", "d"}
	propEvents = []string{"x", "y", "z"}
)

// TestMachine_RuleTableProperty checks, for random rule tables and event
// sequences, that matched events land in the mapped state with exactly one
// handler call and unmatched events leave the state alone with exactly one
// error report.
func TestMachine_RuleTableProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		table := map[[2]string]string{}
		for _, from := range propStates {
			for _, event := range propEvents {
				if rapid.Bool().Draw(r, "has-"+from+event) {
					table[[2]string{from, event}] = rapid.SampledFrom(propStates).Draw(r, "to-"+from+event)
				}
			}
		}

		m := New[testState, testEvent, testInfo]("prop", st("a"))
		errCount := 0
		m.SetErrorHandler(func(ErrorContext[testState, testEvent, testInfo]) { errCount++ })
		handlerCount := 0
		m.AddHandler(func(Transition[testState, testEvent, testInfo]) { handlerCount++ })
		for key, to := range table {
			m.AddRule(on(key[0], key[1], func(testEvent) Target[testState] { return Set(st(to)) }))
		}

		steps := rapid.SliceOfN(rapid.SampledFrom(propEvents), 1, 30).Draw(r, "events")
		for _, e := range steps {
			before := m.State()
			errsBefore, handledBefore := errCount, handlerCount
			want, ok := table[[2]string{before.Kind, e}]

			applied := m.TryEvent(ev(e), testInfo{})
			if applied != ok {
				r.Fatalf("TryEvent(%s) from %s = %v, want %v", e, before, applied, ok)
			}
			if ok {
				if m.State() != st(want) {
					r.Fatalf("state = %s, want %s", m.State(), want)
				}
				if handlerCount != handledBefore+1 || errCount != errsBefore {
					r.Fatalf("handler calls %d, error calls %d after matched event", handlerCount-handledBefore, errCount-errsBefore)
				}
			} else {
				if m.State() != before {
					r.Fatalf("state changed on unmatched event: %s -> %s", before, m.State())
				}
				if errCount != errsBefore+1 || handlerCount != handledBefore {
					r.Fatalf("error calls %d, handler calls %d after unmatched event", errCount-errsBefore, handlerCount-handledBefore)
				}
			}
		}
	})
}

// TestMachine_PushRestoreRoundTripProperty checks that any sequence of pushes
// unwound by the same number of restores returns to the starting state.
func TestMachine_PushRestoreRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		m := New[testState, testEvent, testInfo]("stack", testState{Kind: "root"})
		m.SetErrorHandler(func(c ErrorContext[testState, testEvent, testInfo]) {
			r.Fatalf("unexpected error: %v", c.Err())
		})
		m.AddRule(func(_ testState, e testEvent) (Target[testState], bool) {
			switch e.Kind {
			case "push":
				return Push(testState{Kind: "child", ID: e.ID}), true
			case "pop":
				return Restore[testState](), true
			}
			return Target[testState]{}, false
		})

		ids := rapid.SliceOfN(rapid.StringMatching(`![a-z]{3}`), 1, 12).Draw(r, "ids")
		for _, id := range ids {
			m.TryEvent(testEvent{Kind: "push", ID: id}, testInfo{})
		}
		if m.Depth() != len(ids)+1 {
			r.Fatalf("depth = %d, want %d", m.Depth(), len(ids)+1)
		}
		for range ids {
			m.TryEvent(testEvent{Kind: "pop"}, testInfo{})
		}
		if m.State() != (testState{Kind: "root"}) {
			r.Fatalf("state = %s after round trip", m.State())
		}
	})
}
