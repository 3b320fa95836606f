package bugreport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func start(t *testing.T, mode Mode, reporter Reporter) (*testutil.Harness, *navigation.Stack, *Flow, *[]Action) {
	h := testutil.NewHarness(t)
	stack := navigation.NewStack("host")
	f := New(h.Params, mode, stack, reporter)
	var got []Action
	h.Do(func() {
		stack.SetRoot(navigation.NewScreen("Host", nil), false, nil)
		f.Actions().Subscribe(func(a Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, stack, f, &got
}

func TestFlow_SubmitAsSheet(t *testing.T) {
	var sent []Report
	reporter := ReporterFunc(func(_ context.Context, r Report) error {
		sent = append(sent, r)
		return nil
	})
	h, stack, f, got := start(t, Sheet, reporter)
	require.NotNil(t, stack.Sheet())

	h.Do(func() { f.screen.Send(SubmitReport{Report: Report{Text: "crash"}}) })

	require.Equal(t, Done, f.State())
	require.Nil(t, stack.Sheet())
	require.Equal(t, []Report{{Text: "crash"}}, sent)
	require.Equal(t, []Action{{Outcome: Submitted}}, *got)
	require.False(t, h.Indicators.IsShowing(f.LoadingID()))
}

func TestFlow_FailedSubmitReturnsToScreen(t *testing.T) {
	reporter := ReporterFunc(func(context.Context, Report) error { return errors.New("offline") })
	h, stack, f, got := start(t, Push, reporter)
	require.Equal(t, "BugReportScreen", navigation.KindOf(stack.Top()))

	h.Do(func() { f.screen.Send(SubmitReport{Report: Report{Text: "crash"}}) })

	require.Equal(t, BugReportScreen, f.State())
	require.True(t, h.Indicators.IsShowing(f.FailureID()))
	require.Empty(t, *got)
	require.True(t, stack.Contains(f.screen))
}

func TestFlow_CancelAndClearRoute(t *testing.T) {
	reporter := ReporterFunc(func(context.Context, Report) error { return nil })

	h, stack, f, got := start(t, Push, reporter)
	h.Do(func() { f.screen.Send(CancelReport{}) })
	require.Equal(t, Done, f.State())
	require.Equal(t, 0, stack.Count())
	require.Equal(t, []Action{{Outcome: Cancelled}}, *got)

	h2, stack2, f2, got2 := start(t, Sheet, reporter)
	h2.Do(func() { f2.ClearRoute(false) })
	require.Nil(t, stack2.Sheet())
	require.Equal(t, []Action{{Outcome: Cancelled}}, *got2)

	h2.Do(func() { f2.ClearRoute(false) })
	require.Len(t, *got2, 1)
}
