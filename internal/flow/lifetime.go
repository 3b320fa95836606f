package flow

import (
	"context"
	"sync"
)

// Lifetime tracks whether a flow is still attached to its parent. Async
// continuations and action deliveries check it before touching the flow.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	onEnd []func()
}

func NewLifetime() *Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifetime{ctx: ctx, cancel: cancel}
}

// Alive reports whether End has not been called. A nil Lifetime is always
// alive.
func (l *Lifetime) Alive() bool {
	if l == nil {
		return true
	}
	return l.ctx.Err() == nil
}

// Context is cancelled when the lifetime ends.
func (l *Lifetime) Context() context.Context {
	if l == nil {
		return context.Background()
	}
	return l.ctx
}

// OnEnd registers fn to run when the lifetime ends. fn runs immediately if
// it already has.
func (l *Lifetime) OnEnd(fn func()) {
	l.mu.Lock()
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		fn()
		return
	}
	l.onEnd = append(l.onEnd, fn)
	l.mu.Unlock()
}

// End marks the flow as detached. It is idempotent.
func (l *Lifetime) End() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		return
	}
	l.cancel()
	callbacks := l.onEnd
	l.onEnd = nil
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
