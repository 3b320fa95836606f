// Package mainloop provides the single coordination goroutine every flow
// coordinator runs on. Tasks are processed in strict FIFO order, so state
// machines and navigation surfaces are never mutated concurrently.
// Asynchronous work runs on its own goroutine and re-enters the loop with a
// continuation when it completes.
package mainloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity is the default buffer size for the task queue.
const DefaultQueueCapacity = 1024

var (
	// ErrQueueFull is returned by Submit when the queue is at capacity.
	ErrQueueFull = errors.New("loop queue is full")
	// ErrStopped is returned when submitting to a loop that is not running.
	ErrStopped = errors.New("loop is not running")
)

// Task is a unit of work executed on the loop.
type Task struct {
	// Name identifies the task in logs and spans.
	Name string
	Fn   func()
}

// Runner executes a task. Middleware wraps runners.
type Runner func(ctx context.Context, task Task)

// Option configures the Loop.
type Option func(*Loop)

// WithQueueCapacity sets the task queue buffer capacity.
func WithQueueCapacity(capacity int) Option {
	return func(l *Loop) {
		if capacity > 0 {
			l.queueCapacity = capacity
		}
	}
}

// WithMiddleware adds middleware applied to every task.
// The first middleware wraps outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(l *Loop) {
		l.middlewares = append(l.middlewares, middlewares...)
	}
}

// WithRecover installs a handler for panics raised by tasks. Without it a
// panicking task crashes the process, which is the intended behaviour for
// invalid state machine transitions.
func WithRecover(fn func(task Task, v any)) Option {
	return func(l *Loop) {
		l.recoverFn = fn
	}
}

// Loop processes tasks sequentially in FIFO order.
type Loop struct {
	queue         chan queueItem
	queueCapacity int
	queueMu       sync.RWMutex

	middlewares []Middleware
	runner      Runner
	recoverFn   func(Task, any)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	asyncs sync.WaitGroup

	running atomic.Bool
	started atomic.Bool
	readyCh chan struct{}

	pending        atomic.Int64
	processedCount atomic.Int64
	panicCount     atomic.Int64
}

type queueItem struct {
	task   Task
	doneCh chan struct{} // nil for fire-and-forget Submit
}

// New creates a Loop with the given options.
func New(opts ...Option) *Loop {
	l := &Loop{
		queueCapacity: DefaultQueueCapacity,
		readyCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.runner = ChainMiddleware(func(_ context.Context, task Task) { task.Fn() }, l.middlewares...)
	l.queue = make(chan queueItem, l.queueCapacity)
	return l
}

// Run starts the processing loop and blocks until ctx is cancelled or Stop
// or Drain is called. Run can only be called once.
func (l *Loop) Run(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}

	l.ctx, l.cancel = context.WithCancel(ctx)

	// Add to wait group BEFORE setting running to avoid race with Drain()
	l.wg.Add(1)
	l.running.Store(true)
	close(l.readyCh)

	defer func() {
		l.running.Store(false)
		l.wg.Done()
	}()

	for {
		select {
		case <-l.ctx.Done():
			return
		case item, ok := <-l.queue:
			if !ok {
				return
			}
			l.process(item)
		}
	}
}

// Start runs the loop on a new goroutine and returns once it accepts tasks.
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
	<-l.readyCh
}

// WaitForReady blocks until the loop accepts tasks.
func (l *Loop) WaitForReady(ctx context.Context) error {
	select {
	case <-l.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues fn without waiting. Returns ErrQueueFull when at capacity.
func (l *Loop) Submit(name string, fn func()) error {
	return l.enqueue(queueItem{task: Task{Name: name, Fn: fn}}, false)
}

// Do queues fn and waits until it has run. It must not be called from a
// task running on the loop.
func (l *Loop) Do(ctx context.Context, name string, fn func()) error {
	done := make(chan struct{})
	if err := l.enqueue(queueItem{task: Task{Name: name, Fn: fn}, doneCh: done}, false); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return context.Canceled
	}
}

// Go runs work on its own goroutine. The continuation it returns (if any)
// is queued back onto the loop, so results are applied in completion order.
// work receives a context cancelled when the loop stops.
func (l *Loop) Go(name string, work func(ctx context.Context) func()) {
	if !l.running.Load() {
		return
	}
	l.pending.Add(1)
	l.asyncs.Add(1)
	go func() {
		defer l.asyncs.Done()
		defer l.pending.Add(-1)

		then := work(l.ctx)
		if then == nil || l.ctx.Err() != nil {
			return
		}
		_ = l.enqueue(queueItem{task: Task{Name: name, Fn: then}}, true)
	}()
}

// After queues fn once d has elapsed. A zero delay still defers fn to a
// later task instead of running it inline.
func (l *Loop) After(name string, d time.Duration, fn func()) {
	l.Go(name, func(ctx context.Context) func() {
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil
			}
		}
		return fn
	})
}

// WaitIdle blocks until no task is queued or running and no Go work is in
// flight.
func (l *Loop) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if l.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop cancels the loop and waits for it to exit. Queued tasks are dropped.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.asyncs.Wait()
}

// Drain runs every queued task, then stops the loop.
func (l *Loop) Drain() {
	if !l.running.Load() {
		return
	}
	l.queueMu.Lock()
	l.running.Store(false)
	close(l.queue)
	l.queueMu.Unlock()

	l.wg.Wait()
	if l.cancel != nil {
		l.cancel()
	}
	l.asyncs.Wait()
}

// IsRunning returns true if the loop is accepting tasks.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// ProcessedCount returns the total number of tasks run.
func (l *Loop) ProcessedCount() int64 {
	return l.processedCount.Load()
}

// PanicCount returns the number of recovered task panics.
func (l *Loop) PanicCount() int64 {
	return l.panicCount.Load()
}

// QueueLength returns the number of queued tasks.
func (l *Loop) QueueLength() int {
	return len(l.queue)
}

// Pending returns queued tasks plus in-flight Go work.
func (l *Loop) Pending() int64 {
	return l.pending.Load()
}

func (l *Loop) enqueue(item queueItem, block bool) error {
	l.queueMu.RLock()
	defer l.queueMu.RUnlock()

	if !l.running.Load() {
		return ErrStopped
	}

	l.pending.Add(1)
	if block {
		select {
		case l.queue <- item:
			return nil
		case <-l.ctx.Done():
			l.pending.Add(-1)
			return ErrStopped
		}
	}
	select {
	case l.queue <- item:
		return nil
	default:
		l.pending.Add(-1)
		return ErrQueueFull
	}
}

func (l *Loop) process(item queueItem) {
	defer func() {
		l.processedCount.Add(1)
		l.pending.Add(-1)
		if item.doneCh != nil {
			close(item.doneCh)
		}
	}()

	if l.recoverFn != nil {
		defer func() {
			if v := recover(); v != nil {
				l.panicCount.Add(1)
				l.recoverFn(item.task, v)
			}
		}()
	}

	l.runner(l.ctx, item.task)
}
