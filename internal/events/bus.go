package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Unknown event types are dropped.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case SessionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ViewChangedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureSuccessEvent:
		event.Publish(b.dispatcher, e)
	case CaptureErrorEvent:
		event.Publish(b.dispatcher, e)
	case SaveResultEvent:
		event.Publish(b.dispatcher, e)
	case NavigationEvent:
		event.Publish(b.dispatcher, e)
	case AvailabilityChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the events it receives.
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e NavigationEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ViewChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureSuccessEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SaveResultEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NavigationEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AvailabilityChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
