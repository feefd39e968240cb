// Package eventbus provides pub/sub infrastructure for conversion
// lifecycle notifications.
package eventbus

import (
	"context"

	"github.com/dukex/journeyc/pkg/events"
)

// Event is any conversion lifecycle event carrying its own type tag.
type Event interface {
	GetType() events.EventType
}

// EventPublisher is the write side of the bus. The key partitions events by
// workflow id so per-workflow ordering survives kafka transport.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber is the read side: handlers are registered per event type
// before Subscribe starts the delivery loop.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event interface{}) error

// EventBus joins both sides with lifecycle management.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
