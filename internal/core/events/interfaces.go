package events

import "time"

// Bus is a synchronous in-process pub/sub used by trees, pools and the engine to
// report what they did during a frame.
//
// - Type-based fan-out: handlers subscribe by Event.Type().
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish.
// - All methods are safe for concurrent use.
type Bus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// Subscribe registers a handler for an event type. An empty type receives every event.
	Subscribe(eventType string, handler Handler) Subscription
	// Unsubscribe cancels the subscription. Nil is ignored.
	Unsubscribe(sub Subscription)

	// AddObserver registers an observer notified after each delivery.
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of delivery counters.
	Metrics() Metrics
}

// Event is an immutable message transported by the Bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// Handler is invoked per delivered event.
type Handler func(event Event) error

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel()
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnDelivered(eventType string, handlers int, err error, elapsed time.Duration)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
