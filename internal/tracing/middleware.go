package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/roomflow/internal/mainloop"
)

// MiddlewareConfig configures the loop tracing middleware.
type MiddlewareConfig struct {
	// Tracer creates task spans. A nil tracer makes the middleware a
	// pass-through.
	Tracer trace.Tracer
}

// NewMiddleware wraps every loop task in a span. A task that panics has
// the panic recorded on its span before the panic continues to the loop's
// recover handler.
func NewMiddleware(cfg MiddlewareConfig) mainloop.Middleware {
	if cfg.Tracer == nil {
		return func(next mainloop.Runner) mainloop.Runner { return next }
	}

	return func(next mainloop.Runner) mainloop.Runner {
		return func(ctx context.Context, task mainloop.Task) {
			ctx, span := cfg.Tracer.Start(ctx, SpanPrefixTask+task.Name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attribute.String(AttrTaskName, task.Name)),
			)
			defer span.End()
			defer func() {
				if v := recover(); v != nil {
					span.AddEvent(EventTaskPanicked, trace.WithAttributes(
						attribute.String(AttrPanicValue, fmt.Sprint(v)),
					))
					span.SetStatus(codes.Error, "task panicked")
					panic(v)
				}
			}()

			next(ctx, task)
			span.SetStatus(codes.Ok, "")
		}
	}
}
