// Package app assembles a signed-in navigation session: the coordination
// loop, the shared flow parameters, and the chats and space explorer tabs
// presented on their own split views.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/roomflow/internal/cachemanager"
	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/flows/bugreport"
	"github.com/zjrosen/roomflow/internal/flows/chats"
	"github.com/zjrosen/roomflow/internal/flows/spaceexplorer"
	"github.com/zjrosen/roomflow/internal/flows/startchat"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/mainloop"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/tracing"
)

// Tab selects which split view receives routes.
type Tab int

const (
	TabChats Tab = iota
	TabSpaces
)

func (t Tab) String() string {
	if t == TabSpaces {
		return "spaces"
	}
	return "chats"
}

// Option configures New.
type Option func(*options)

type options struct {
	reporter bugreport.Reporter
	domain   string
	bus      *pubsub.Broker[any]
}

// WithReporter sets where bug reports are submitted. The default logs them.
func WithReporter(r bugreport.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithDomain sets the server name used for created room ids.
func WithDomain(domain string) Option {
	return func(o *options) { o.domain = domain }
}

// WithBus publishes transitions, navigation changes and actions on bus
// instead of a private broker.
func WithBus(bus *pubsub.Broker[any]) Option {
	return func(o *options) { o.bus = bus }
}

// App is one signed-in session. Flow state is only touched on Loop; use Do
// to read or drive it from another goroutine.
type App struct {
	Config     config.Config
	Client     *session.Memory
	Loop       *mainloop.Loop
	Bus        *pubsub.Broker[any]
	Timelines  *session.MemoryTimelines
	Indicators *indicator.Controller
	Params     *flow.Parameters

	ChatsSplit  *navigation.Split
	SpacesSplit *navigation.Split
	Chats       *chats.Flow
	Explorer    *spaceexplorer.Flow

	tracing *tracing.Provider
	ownsBus bool

	mu      sync.Mutex
	actions []string
	tab     Tab
}

// New wires an App around client. Call Start before driving it.
func New(cfg config.Config, client *session.Memory, opts ...Option) (*App, error) {
	o := options{domain: "example.org"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reporter == nil {
		o.reporter = bugreport.ReporterFunc(func(_ context.Context, report bugreport.Report) error {
			log.Info(log.CatFlow, "bug report submitted", "text", report.Text, "logs", report.IncludeLogs)
			return nil
		})
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	a := &App{
		Config:    cfg,
		Client:    client,
		Bus:       o.bus,
		Timelines: session.NewMemoryTimelines(),
		tracing:   provider,
	}
	if a.Bus == nil {
		a.Bus = pubsub.NewBroker[any]()
		a.ownsBus = true
	}

	a.Loop = mainloop.New(
		mainloop.WithQueueCapacity(cfg.Loop.QueueCapacity),
		mainloop.WithMiddleware(
			mainloop.NewLoggingMiddleware(mainloop.LoggingMiddlewareConfig{SlowTaskThreshold: cfg.Loop.SlowTaskThreshold}),
			tracing.NewMiddleware(tracing.MiddlewareConfig{Tracer: provider.Tracer()}),
		),
		mainloop.WithRecover(func(task mainloop.Task, v any) {
			log.Error(log.CatLoop, "task panicked", "task", task.Name, "panic", v)
		}),
	)

	aliasCache := cachemanager.NewInMemoryCacheManager[string, session.AliasResolution](
		"aliases", cfg.Cache.AliasTTL, cfg.Cache.CleanupInterval)

	a.Indicators = indicator.NewController(a.Loop,
		indicator.WithBus(a.Bus),
		indicator.WithToastDuration(cfg.Delays.ToastDuration))

	a.Params = &flow.Parameters{
		Loop: a.Loop,
		Resolver: session.NewResolver(client,
			session.WithAliasCache(aliasCache, cfg.Cache.AliasTTL),
			session.WithTracer(provider.Tracer())),
		Timelines:  a.Timelines,
		Indicators: a.Indicators,
		Flags:      flags.New(cfg.Flags),
		Delays:     cfg.Delays,
		Bus:        a.Bus,
		Tracer:     provider.Tracer(),
	}

	a.ChatsSplit = navigation.NewSplit("chats", a.Bus)
	a.SpacesSplit = navigation.NewSplit("spaces", a.Bus)
	a.Chats = chats.New(a.Params, a.ChatsSplit, chats.Dependencies{
		Reporter: o.reporter,
		Creator:  startchat.MemoryCreator{Client: client, Domain: o.domain},
	})
	a.Explorer = spaceexplorer.New(a.Params, a.SpacesSplit)

	a.Chats.Actions().Subscribe(func(action chats.Action) { a.record("chats", action.String()) })
	a.Explorer.Actions().Subscribe(func(action flow.Action) {
		a.record("spaces", action.String())
		a.explorerAction(action)
	})
	return a, nil
}

// Start runs the loop and presents both tabs.
func (a *App) Start(ctx context.Context) error {
	a.Loop.Start(ctx)
	return a.Loop.Do(ctx, "app.start", func() {
		a.Chats.Start(false)
		a.Explorer.Start(false)
	})
}

// Do runs fn on the loop.
func (a *App) Do(ctx context.Context, name string, fn func()) error {
	return a.Loop.Do(ctx, name, fn)
}

// WaitIdle blocks until every queued and in-flight task has finished.
func (a *App) WaitIdle(ctx context.Context) error {
	return a.Loop.WaitIdle(ctx)
}

// SelectTab switches the tab routes are delivered to.
func (a *App) SelectTab(tab Tab) {
	a.mu.Lock()
	a.tab = tab
	a.mu.Unlock()
}

// Tab returns the selected tab.
func (a *App) Tab() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

// Split returns the split view of the selected tab.
func (a *App) Split() *navigation.Split {
	if a.Tab() == TabSpaces {
		return a.SpacesSplit
	}
	return a.ChatsSplit
}

// HandleRoute parses raw and delivers the route to the selected tab on the
// loop.
func (a *App) HandleRoute(ctx context.Context, raw string) (route.Route, error) {
	r, err := route.Parse(raw)
	if err != nil {
		return route.Route{}, err
	}
	coordinator := flow.Coordinator(a.Chats)
	if a.Tab() == TabSpaces {
		coordinator = a.Explorer
	}
	log.Info(log.CatRoute, "handling route", "tab", a.Tab(), "route", r)
	return r, a.Loop.Do(ctx, "app.route", func() { coordinator.HandleAppRoute(r, true) })
}

// Snapshot describes both tabs.
func (a *App) Snapshot(ctx context.Context) ([]flow.Snapshot, error) {
	var snaps []flow.Snapshot
	err := a.Loop.Do(ctx, "app.snapshot", func() {
		snaps = []flow.Snapshot{a.Chats.Snapshot(), a.Explorer.Snapshot()}
	})
	return snaps, err
}

// Actions lists the actions the tabs emitted to the session owner, oldest
// first.
func (a *App) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.actions...)
}

// Close stops the loop and flushes traces.
func (a *App) Close(ctx context.Context) error {
	a.Loop.Stop()
	err := a.tracing.Shutdown(ctx)
	if a.ownsBus {
		a.Bus.Close()
	}
	if err != nil {
		return fmt.Errorf("shutdown tracing: %w", err)
	}
	return nil
}

func (a *App) record(tab, action string) {
	a.mu.Lock()
	a.actions = append(a.actions, tab+":"+action)
	a.mu.Unlock()
	log.Info(log.CatFlow, "session action", "tab", tab, "action", action)
}

// explorerAction handles what the spaces tab asks of the session owner. Call
// screens and settings belong to the chats tab, so the request is moved
// there.
func (a *App) explorerAction(action flow.Action) {
	switch action.Kind {
	case flow.ActionPresentCallScreen:
		a.SelectTab(TabChats)
		a.Chats.HandleAppRoute(route.Call(action.RoomID), true)
	case flow.ActionShowSettings:
		a.SelectTab(TabChats)
		a.Chats.HandleAppRoute(route.Settings(), true)
	}
}
