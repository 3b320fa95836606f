package statemachine

import (
	"fmt"

	"github.com/zjrosen/roomflow/internal/log"
)

// ErrorContext describes an event that could not be applied. To always
// equals From because the recorded state is left unchanged.
type ErrorContext[S, E, P any] struct {
	Machine string
	From    S
	Event   E
	To      S
	Payload P
	Reason  error
	// Duplicate is true when Event and Payload equal the last applied event
	// and the machine still sits in the state that event produced.
	Duplicate bool
}

// Err converts the context into an *InvalidTransitionError.
func (c ErrorContext[S, E, P]) Err() *InvalidTransitionError {
	return &InvalidTransitionError{
		Machine: c.Machine,
		From:    fmt.Sprint(c.From),
		Event:   fmt.Sprint(c.Event),
		To:      fmt.Sprint(c.To),
		Payload: fmt.Sprintf("%+v", c.Payload),
		Reason:  c.Reason,
	}
}

// ErrorHandler is invoked once per event that could not be applied.
type ErrorHandler[S, E, P any] func(ErrorContext[S, E, P])

// InvalidTransitionError is the panic value raised for an event a state
// never expects to receive. It is a programming error.
type InvalidTransitionError struct {
	Machine string
	From    string
	Event   string
	To      string
	Payload string
	Reason  error
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid transition from %s on %s (to %s, payload %s): %v",
		e.Machine, e.From, e.Event, e.To, e.Payload, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error {
	return e.Reason
}

// DefaultErrorHandler logs duplicate deliveries and panics on anything else.
func DefaultErrorHandler[S, E, P any](c ErrorContext[S, E, P]) {
	err := c.Err()
	if c.Duplicate {
		log.Warn(log.CatSM, "ignoring duplicate event",
			"machine", err.Machine,
			"state", err.From,
			"event", err.Event,
		)
		return
	}
	log.ErrorErr(log.CatSM, "invalid transition", err,
		"machine", err.Machine,
		"from", err.From,
		"event", err.Event,
	)
	panic(err)
}

// LogSameState returns a policy that only logs. It is used by flows whose
// rules legitimately race with dismissal callbacks, where every unmatched
// event leaves the state where it was.
func LogSameState[S, E, P any]() ErrorHandler[S, E, P] {
	return func(c ErrorContext[S, E, P]) {
		err := c.Err()
		log.Warn(log.CatSM, "ignoring event with no transition",
			"machine", err.Machine,
			"state", err.From,
			"event", err.Event,
			"duplicate", c.Duplicate,
		)
	}
}
