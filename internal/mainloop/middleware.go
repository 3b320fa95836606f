package mainloop

import (
	"context"
	"time"

	"github.com/zjrosen/roomflow/internal/log"
)

// Middleware wraps a Runner to add cross-cutting behaviour.
type Middleware func(Runner) Runner

// ChainMiddleware applies middlewares so that the first one is outermost.
// ChainMiddleware(r, logging, tracing) results in logging(tracing(r)).
func ChainMiddleware(runner Runner, middlewares ...Middleware) Runner {
	for i := len(middlewares) - 1; i >= 0; i-- {
		runner = middlewares[i](runner)
	}
	return runner
}

// LoggingMiddlewareConfig configures the logging middleware.
type LoggingMiddlewareConfig struct {
	// SlowTaskThreshold logs tasks that hold the loop longer than this at
	// warn level. Zero disables the warning.
	SlowTaskThreshold time.Duration
}

// NewLoggingMiddleware logs every task with its duration.
func NewLoggingMiddleware(cfg LoggingMiddlewareConfig) Middleware {
	return func(next Runner) Runner {
		return func(ctx context.Context, task Task) {
			start := time.Now()
			next(ctx, task)
			duration := time.Since(start)

			if cfg.SlowTaskThreshold > 0 && duration > cfg.SlowTaskThreshold {
				log.Warn(log.CatLoop, "slow task held the loop",
					"task", task.Name,
					"duration", duration,
					"threshold", cfg.SlowTaskThreshold,
				)
				return
			}
			log.Debug(log.CatLoop, "task completed",
				"task", task.Name,
				"duration", duration,
			)
		}
	}
}
