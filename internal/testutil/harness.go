package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/mainloop"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/session"
)

// Harness wires a running coordination loop, a fixture session and a split
// view into flow.Parameters.
type Harness struct {
	t          *testing.T
	Loop       *mainloop.Loop
	Client     *session.Memory
	Timelines  *session.MemoryTimelines
	Indicators *indicator.Controller
	Bus        *pubsub.Broker[any]
	Split      *navigation.Split
	Params     *flow.Parameters
}

type harnessConfig struct {
	client *session.Memory
	delays config.DelaysConfig
	flags  map[string]bool
}

// HarnessOption configures NewHarness.
type HarnessOption func(*harnessConfig)

// WithClient uses client instead of the standard fixture session.
func WithClient(client *session.Memory) HarnessOption {
	return func(c *harnessConfig) { c.client = client }
}

// WithDelays sets presentation delays. The default is no delay at all.
func WithDelays(d config.DelaysConfig) HarnessOption {
	return func(c *harnessConfig) { c.delays = d }
}

// WithFlags sets the feature flags. The default enables every known flag.
func WithFlags(f map[string]bool) HarnessOption {
	return func(c *harnessConfig) { c.flags = f }
}

// NewHarness starts a loop that is stopped when the test ends.
func NewHarness(t *testing.T, opts ...HarnessOption) *Harness {
	t.Helper()
	cfg := harnessConfig{flags: make(map[string]bool)}
	for _, name := range flags.Known() {
		cfg.flags[name] = true
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.client == nil {
		cfg.client = StandardSession().Build()
	}

	loop := mainloop.New()
	loop.Start(context.Background())
	t.Cleanup(loop.Stop)

	bus := pubsub.NewBroker[any]()
	t.Cleanup(bus.Close)

	timelines := session.NewMemoryTimelines()
	indicators := indicator.NewController(loop, indicator.WithBus(bus), indicator.WithToastDuration(cfg.delays.ToastDuration))

	h := &Harness{
		t:          t,
		Loop:       loop,
		Client:     cfg.client,
		Timelines:  timelines,
		Indicators: indicators,
		Bus:        bus,
		Split:      navigation.NewSplit("main", bus),
	}
	h.Params = &flow.Parameters{
		Loop:       loop,
		Resolver:   session.NewResolver(cfg.client),
		Timelines:  timelines,
		Indicators: indicators,
		Flags:      flags.New(cfg.flags),
		Delays:     cfg.delays,
		Bus:        bus,
	}
	return h
}

// Do runs fn on the loop and waits until every task it caused has run.
func (h *Harness) Do(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.Loop.Do(context.Background(), "test", fn))
	h.Idle()
}

// Idle waits until the loop has nothing queued or in flight.
func (h *Harness) Idle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.Loop.WaitIdle(ctx))
}

// Get reads a value on the loop, where flow state lives.
func Get[T any](h *Harness, fn func() T) T {
	h.t.Helper()
	var v T
	require.NoError(h.t, h.Loop.Do(context.Background(), "read", func() { v = fn() }))
	return v
}

// NewStack creates a stack placed in the harness split's detail column.
func (h *Harness) NewDetailStack() *navigation.Stack {
	stack := h.Split.NewStack("detail")
	h.Do(func() { h.Split.SetDetail(stack, false, nil) })
	return stack
}
