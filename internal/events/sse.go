package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels
// This is needed for SSE integration where Huma expects a channel-based select loop.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if channel is full (non-blocking)
		}
	})
}

// SubscribeAll forwards every scanner event type to ch and returns a single unsubscribe.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[SessionStateChangedEvent](bus, ch),
		SubscribeToChannel[ViewChangedEvent](bus, ch),
		SubscribeToChannel[CaptureSuccessEvent](bus, ch),
		SubscribeToChannel[CaptureErrorEvent](bus, ch),
		SubscribeToChannel[SaveResultEvent](bus, ch),
		SubscribeToChannel[NavigationEvent](bus, ch),
		SubscribeToChannel[AvailabilityChangedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
