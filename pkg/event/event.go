// Package event is a small in-process event dispatcher. Services fire
// named events; listeners (the admin live feed, metrics) subscribe at boot.
package event

import "sync"

// Handler receives an event payload.
type Handler func(payload interface{})

// Bus holds listeners keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire calls every listener synchronously, in registration order.
func (b *Bus) Fire(event string, payload interface{}) {
	for _, h := range b.listeners(event) {
		h(payload)
	}
}

// FireAsync runs each listener on its own goroutine and returns at once.
func (b *Bus) FireAsync(event string, payload interface{}) {
	for _, h := range b.listeners(event) {
		go h(payload)
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

var std = NewBus()

// Default returns the process-wide bus.
func Default() *Bus { return std }

func Listen(event string, handler Handler)     { std.Listen(event, handler) }
func Fire(event string, payload interface{})      { std.Fire(event, payload) }
func FireAsync(event string, payload interface{}) { std.FireAsync(event, payload) }
func Flush()                                      { std.Flush() }
