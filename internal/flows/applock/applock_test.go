package applock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

type fixture struct {
	h       *testutil.Harness
	service *MemoryService
	stack   *navigation.Stack
	flow    *Flow
	now     time.Time
	actions []Action
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		h:       testutil.NewHarness(t),
		service: NewMemoryService(time.Minute),
		stack:   navigation.NewStack("lock"),
		now:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.h.Do(func() {
		fx.flow = New(fx.h.Params, fx.service, fx.stack, WithClock(func() time.Time { return fx.now }))
		fx.flow.Actions().Subscribe(func(a Action) { fx.actions = append(fx.actions, a) })
	})
	return fx
}

func (fx *fixture) send(kinds ...EventKind) {
	fx.h.Do(func() {
		for _, k := range kinds {
			fx.flow.Send(k)
		}
	})
}

func (fx *fixture) root() string {
	return navigation.KindOf(fx.stack.Root())
}

func TestFlow_LaunchRequiresPin(t *testing.T) {
	fx := newFixture(t)
	require.Equal(t, "PlaceholderScreen", fx.root())

	fx.send(DidBecomeActive)
	require.Equal(t, PinCodeUnlock, fx.flow.State().Kind)
	require.Equal(t, "AppLockScreen", fx.root())

	fx.h.Do(func() { fx.stack.Root().(*navigation.Screen).Send(PinAccepted) })
	require.Equal(t, Unlocked, fx.flow.State().Kind)
	require.Equal(t, UnlockApp, fx.actions[len(fx.actions)-1])
}

func TestFlow_GracePeriod(t *testing.T) {
	fx := newFixture(t)
	fx.send(ServiceEnabled)
	require.Equal(t, Unlocked, fx.flow.State().Kind)

	fx.send(WillResignActive)
	require.Equal(t, ObscuringApp, fx.flow.State().Kind)
	fx.send(DidEnterBackground)
	require.Equal(t, Backgrounded, fx.flow.State().Kind)

	fx.now = fx.now.Add(10 * time.Second)
	fx.send(DidBecomeActive)
	require.Equal(t, Unlocked, fx.flow.State().Kind)

	fx.send(DidEnterBackground)
	fx.now = fx.now.Add(2 * time.Minute)
	fx.send(DidBecomeActive)
	require.Equal(t, PinCodeUnlock, fx.flow.State().Kind)
}

func TestFlow_BiometricUnlock(t *testing.T) {
	fx := newFixture(t)
	fx.service.SetBiometrics(true, true, BiometricFailed)

	fx.send(DidBecomeActive)
	require.Equal(t, State{Kind: BiometricUnlockDismissing, Result: BiometricFailed}, fx.flow.State())

	fx.send(DidBecomeActive)
	require.Equal(t, PinCodeUnlock, fx.flow.State().Kind)
}

func TestFlow_DisabledServiceStaysPut(t *testing.T) {
	fx := newFixture(t)
	fx.service.SetEnabled(false)

	fx.send(DidBecomeActive, WillResignActive, DidEnterBackground)
	require.Equal(t, Initial, fx.flow.State().Kind)
	require.Equal(t, []Action{LockApp}, fx.actions)
}

func TestFlow_ForgottenPinLogsOut(t *testing.T) {
	fx := newFixture(t)
	fx.send(DidBecomeActive)
	fx.h.Do(func() { fx.stack.Root().(*navigation.Screen).Send(PinForgotten) })
	require.Equal(t, LoggingOut, fx.flow.State().Kind)
	require.Contains(t, fx.actions, ForceLogout)

	fx.service.SetEnabled(false)
	fx.send(ServiceDisabled)
	require.Equal(t, Unlocked, fx.flow.State().Kind)
}
