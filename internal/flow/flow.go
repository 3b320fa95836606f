// Package flow defines the contract every navigation flow coordinator
// implements, the immutable Parameters bundle shared by the flows of a
// signed-in session, and the action streams children use to talk to their
// parents.
package flow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flags"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/mainloop"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/session"
)

// Coordinator is a navigation flow. All methods run on the coordination
// loop.
type Coordinator interface {
	// Start presents the flow's initial screen.
	Start(animated bool)
	// HandleAppRoute navigates to r, recursing into child flows as needed.
	HandleAppRoute(r route.Route, animated bool)
	// ClearRoute unwinds the flow back to its base state. It is a no-op
	// from terminal states.
	ClearRoute(animated bool)
}

// Child is a coordinator owned by a parent flow, reporting back through its
// action stream.
type Child[A any] interface {
	Coordinator
	Actions() *Actions[A]
	// Detach ends the child's lifetime once the parent releases it.
	Detach()
}

// EventInfo is the payload every flow state machine carries alongside its
// events.
type EventInfo struct {
	Animated bool
}

// Snapshot describes a flow and its active children for the inspector and
// scenario assertions.
type Snapshot struct {
	Flow     string
	State    string
	Children []Snapshot
}

// Snapshotter is implemented by flows that can describe themselves.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Parameters is the bundle of collaborators built once per signed-in
// session and passed unchanged to every flow.
type Parameters struct {
	Loop       *mainloop.Loop
	Resolver   *session.Resolver
	Timelines  session.TimelineFactory
	Indicators *indicator.Controller
	Flags      *flags.Registry
	Delays     config.DelaysConfig
	Bus        *pubsub.Broker[any]
	Tracer     trace.Tracer
}

// Client returns the session client behind the resolver.
func (p *Parameters) Client() session.Client {
	return p.Resolver.Client()
}

// tracer returns the configured tracer or a no-op one.
func (p *Parameters) tracer() trace.Tracer {
	if p.Tracer == nil {
		return noop.NewTracerProvider().Tracer("flow")
	}
	return p.Tracer
}

// Go runs work off the loop on behalf of the flow owning life. The
// continuation work returns is applied on the loop only if the flow is
// still alive; ctx is cancelled when the flow ends.
func (p *Parameters) Go(life *Lifetime, name string, work func(ctx context.Context) func()) {
	p.Loop.Go(name, func(loopCtx context.Context) func() {
		ctx, cancel := context.WithCancel(loopCtx)
		defer cancel()
		stop := context.AfterFunc(life.Context(), cancel)
		defer stop()

		ctx, span := p.tracer().Start(ctx, name)
		then := work(ctx)
		span.End()

		if then == nil {
			return nil
		}
		return func() {
			if !life.Alive() {
				log.Debug(log.CatFlow, "dropping continuation of ended flow", "task", name)
				return
			}
			then()
		}
	})
}

// After runs fn on the loop once d has elapsed, if the flow owning life is
// still alive.
func (p *Parameters) After(life *Lifetime, name string, d time.Duration, fn func()) {
	p.Loop.After(name, d, func() {
		if life.Alive() {
			fn()
		}
	})
}

// Sleep blocks the calling goroutine for d or until ctx is done. It is used
// inside Go work to sequence presentation steps.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
