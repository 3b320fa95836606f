package applocksetup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/flows/applock"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/testutil"
)

func newFlow(t *testing.T, presenting PresentingFlow, service applock.Service) (*testutil.Harness, *navigation.Stack, *Flow, *[]Action) {
	h := testutil.NewHarness(t)
	stack := navigation.NewStack("host")
	f := New(h.Params, presenting, service, stack)
	var got []Action
	h.Do(func() {
		stack.SetRoot(navigation.NewScreen("Host", nil), false, nil)
		f.Actions().Subscribe(func(a Action) { got = append(got, a) })
		f.Start(false)
	})
	return h, stack, f, &got
}

func send(h *testutil.Harness, m navigation.Module, action any) {
	h.Do(func() { m.(*navigation.Screen).Send(action) })
}

func TestFlow_AuthenticationWithBiometrics(t *testing.T) {
	service := applock.NewMemoryService(time.Minute)
	service.SetBiometrics(true, false)
	h, stack, f, got := newFlow(t, Authentication, service)

	require.Equal(t, State{Kind: CreatePIN}, f.State())
	require.Equal(t, "true", stack.Top().(*navigation.Screen).Attr("mandatory"))

	send(h, stack.Top(), PinComplete)
	require.Equal(t, BiometricsPrompt, f.State().Kind)
	require.Equal(t, "AppLockSetupBiometricsScreen", navigation.KindOf(stack.Top()))

	send(h, stack.Top(), BiometricsAction{})
	require.Equal(t, Complete, f.State().Kind)
	require.Equal(t, []Action{ActionComplete}, *got)
}

func TestFlow_SettingsChangePIN(t *testing.T) {
	service := applock.NewMemoryService(time.Minute)
	h, stack, f, got := newFlow(t, Settings, service)

	require.Equal(t, Unlock, f.State().Kind)
	modal := stack.Sheet().(*navigation.Stack)
	send(h, modal.Root(), PinComplete)
	require.Equal(t, SettingsScreen, f.State().Kind)
	require.Nil(t, stack.Sheet())
	require.Equal(t, "AppLockSetupSettingsScreen", navigation.KindOf(stack.Top()))

	send(h, stack.Top(), SettingsChangePIN)
	require.Equal(t, State{Kind: CreatePIN, Replacing: true}, f.State())
	require.NotNil(t, stack.Sheet())

	send(h, modal.Root(), PinCancel)
	require.Equal(t, SettingsScreen, f.State().Kind)
	require.Nil(t, stack.Sheet())

	send(h, stack.Top(), SettingsDisable)
	require.Equal(t, Complete, f.State().Kind)
	require.Equal(t, 0, stack.Count())
	require.Equal(t, []Action{ActionComplete}, *got)
}

func TestFlow_UnlockForceLogout(t *testing.T) {
	service := applock.NewMemoryService(time.Minute)
	h, stack, f, got := newFlow(t, Settings, service)

	send(h, stack.Sheet().(*navigation.Stack).Root(), PinForceLogout)
	require.Equal(t, LoggingOut, f.State().Kind)
	require.Equal(t, []Action{ActionForceLogout}, *got)
}

func TestFlow_SettingsWithoutServiceCreatesPIN(t *testing.T) {
	service := applock.NewMemoryService(time.Minute)
	service.SetEnabled(false)
	_, _, f, _ := newFlow(t, Settings, service)
	require.Equal(t, State{Kind: CreatePIN}, f.State())
}
