package scenario

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/zjrosen/roomflow/internal/app"
	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/navigation"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/session"
)

// DefaultStepTimeout bounds how long a step may take to settle.
const DefaultStepTimeout = 10 * time.Second

var dismissals = map[string]func(*navigation.Split){
	"sheet":   func(s *navigation.Split) { s.SetSheet(nil, true, nil) },
	"cover":   func(s *navigation.Split) { s.SetFullScreenCover(nil, true, nil) },
	"overlay": func(s *navigation.Split) { s.SetOverlay(nil, true, nil) },
	"detail":  func(s *navigation.Split) { s.SetDetail(nil, true, nil) },
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index int
	Step  string
	Err   error
}

// Result is the outcome of a run.
type Result struct {
	Name      string
	Steps     []StepResult
	Snapshots []flow.Snapshot
	Tree      string
	Actions   []string
}

// Failed reports whether any step failed.
func (r *Result) Failed() bool {
	return r.Err() != nil
}

// Err joins every step failure.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", s.Index+1, s.Step, s.Err))
		}
	}
	return errors.Join(errs...)
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	memory      []session.MemoryOption
	bus         *pubsub.Broker[any]
	stepTimeout time.Duration
	onStep      func(StepResult)
}

// WithMemoryOptions passes options to the fixture session, such as a
// persistent recents store.
func WithMemoryOptions(opts ...session.MemoryOption) RunOption {
	return func(c *runConfig) { c.memory = append(c.memory, opts...) }
}

// WithBus publishes the run's transitions and navigation changes on bus.
func WithBus(bus *pubsub.Broker[any]) RunOption {
	return func(c *runConfig) { c.bus = bus }
}

// WithStepTimeout overrides DefaultStepTimeout.
func WithStepTimeout(d time.Duration) RunOption {
	return func(c *runConfig) { c.stepTimeout = d }
}

// WithStepHook is called after every step.
func WithStepHook(fn func(StepResult)) RunOption {
	return func(c *runConfig) { c.onStep = fn }
}

// Run plays script against a fresh session built from its fixtures.
// Failed expectations are reported in the Result; the returned error is
// for runs that could not start or were cancelled.
func Run(ctx context.Context, script *Script, cfg config.Config, opts ...RunOption) (*Result, error) {
	rc := newRunConfig(opts)
	cfg = script.Apply(cfg)

	var appOpts []app.Option
	if rc.bus != nil {
		appOpts = append(appOpts, app.WithBus(rc.bus))
	}
	a, err := app.New(cfg, script.Session(rc.memory...), appOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			log.ErrorErr(log.CatFlow, "close scenario session", cerr)
		}
	}()
	if err := a.Start(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return Play(ctx, a, script, opts...)
}

// Apply returns cfg with the script's user and feature flags applied. The
// flags map is copied.
func (s *Script) Apply(cfg config.Config) config.Config {
	cfg.Flags = maps.Clone(cfg.Flags)
	if cfg.Flags == nil {
		cfg.Flags = make(map[string]bool)
	}
	for name, on := range s.Flags {
		cfg.Flags[name] = on
	}
	cfg.UserID = s.User
	return cfg
}

// Play runs the script's steps on an app that is already started. The
// fixtures are not applied; the app's session is used as it is.
func Play(ctx context.Context, a *app.App, script *Script, opts ...RunOption) (*Result, error) {
	rc := newRunConfig(opts)
	r := &runner{app: a, timeout: rc.stepTimeout}
	res := &Result{Name: script.Name}
	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sr := StepResult{Index: i, Step: step.String(), Err: r.step(ctx, step)}
		if sr.Err != nil {
			log.Warn(log.CatFlow, "scenario step failed", "scenario", script.Name, "step", sr.Step, "error", sr.Err)
		}
		res.Steps = append(res.Steps, sr)
		if rc.onStep != nil {
			rc.onStep(sr)
		}
	}

	var err error
	res.Snapshots, err = a.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	res.Actions = a.Actions()
	err = a.Do(ctx, "scenario.tree", func() { res.Tree = a.Split().Tree() })
	return res, err
}

func newRunConfig(opts []RunOption) runConfig {
	rc := runConfig{stepTimeout: DefaultStepTimeout}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

type runner struct {
	app     *app.App
	timeout time.Duration
}

func (r *runner) step(ctx context.Context, step Step) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var err error
	switch step.Kind() {
	case "route":
		_, err = r.app.HandleRoute(ctx, step.Route)
	case "tab":
		tab := app.TabChats
		if step.Tab == "spaces" {
			tab = app.TabSpaces
		}
		r.app.SelectTab(tab)
	case "tap":
		err = r.tap(ctx, *step.Tap)
	case "dismiss":
		split := r.app.Split()
		err = r.app.Do(ctx, "scenario.dismiss", func() { dismissals[step.Dismiss](split) })
	case "wait":
		select {
		case <-time.After(step.Wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	case "expect":
		if err := r.app.WaitIdle(ctx); err != nil {
			return fmt.Errorf("settle: %w", err)
		}
		return r.expect(ctx, *step.Expect)
	}
	if err != nil {
		return err
	}
	if err := r.app.WaitIdle(ctx); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	return nil
}

func (r *runner) tap(ctx context.Context, tap Tap) error {
	split := r.app.Split()
	var found bool
	err := r.app.Do(ctx, "scenario.tap", func() {
		screen := split.Find(tap.Screen)
		if screen == nil {
			return
		}
		found = true
		for _, action := range taps[tap.Action](tap.Arg) {
			screen.Send(action)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no %s is presented", tap.Screen)
	}
	return nil
}

func (r *runner) expect(ctx context.Context, e Expect) error {
	split := r.app.Split()
	var errs []error
	fail := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	err := r.app.Do(ctx, "scenario.expect", func() {
		if e.State != "" {
			got := r.app.Chats.State().String()
			if r.app.Tab() == app.TabSpaces {
				got = r.app.Explorer.State().String()
			}
			if got != e.State {
				fail("state is %s, want %s", got, e.State)
			}
		}
		if e.Screen != "" && split.Find(e.Screen) == nil {
			fail("%s is not presented", e.Screen)
		}
		if e.Absent != "" && split.Find(e.Absent) != nil {
			fail("%s is presented", e.Absent)
		}
		if e.Detail != "" {
			if got := detailKind(split.Detail()); got != e.Detail {
				fail("detail shows %q, want %q", got, e.Detail)
			}
		}
		if e.Toast != "" && !r.app.Indicators.WasShown(e.Toast) {
			fail("indicator %s was never shown", e.Toast)
		}
		if e.Tree != "" && !strings.Contains(split.Tree(), e.Tree) {
			fail("tree does not contain %q", e.Tree)
		}
	})
	if err != nil {
		return err
	}
	if e.Action != "" && !slices.Contains(r.app.Actions(), e.Action) {
		fail("action %s was not emitted, got %v", e.Action, r.app.Actions())
	}
	if e.Recent != "" && !slices.Contains(r.app.Client.Recents(), e.Recent) {
		fail("%s is not a recent room", e.Recent)
	}
	return errors.Join(errs...)
}

// detailKind returns the kind of the screen the detail column starts with,
// or "" when it is empty.
func detailKind(m navigation.Module) string {
	switch m := m.(type) {
	case *navigation.Screen:
		return m.Kind
	case *navigation.Stack:
		if root := m.Root(); root != nil {
			return detailKind(root)
		}
	}
	return ""
}
