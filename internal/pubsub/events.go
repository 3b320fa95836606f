// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"

	// Navigation bus event types.
	TransitionEvent EventType = "transition" // a state machine applied an event
	PresentedEvent  EventType = "presented"  // a screen appeared on a surface
	DismissedEvent  EventType = "dismissed"  // a screen left a surface
	ActionEvent     EventType = "action"     // a flow emitted an action to its parent
	IndicatorEvent  EventType = "indicator"  // an indicator was shown or retracted
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
