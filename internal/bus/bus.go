// Package bus is the in-process event bus connecting the sync orchestrator to
// the loop selector. Publishing is synchronous: handlers run one after another
// on the publisher's goroutine, so hosts that serialize selector access per
// the selector's locking contract get invalidation ordering for free.
package bus

import "sync"

// Event names published by the sync orchestrator.
const (
	// EventPackagesSynced fires after a whole-library sync completes.
	EventPackagesSynced = "assets:emotion_packages_synced"
	// EventPackageUpdated fires after one package's clips change; the event
	// carries the package uuid.
	EventPackageUpdated = "assets:emotion_package_updated"
)

// Event is a named notification with an optional package payload.
type Event struct {
	Name        string
	PackageUUID string
}

// Handler consumes one event.
type Handler func(Event)

// Bus fans events out to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for an event name. Handlers for one name run
// in subscription order.
func (b *Bus) Subscribe(name string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish runs every handler subscribed to the event's name. Events with no
// subscribers are dropped.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Name]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
