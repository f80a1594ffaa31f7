package session

import (
	"context"
	"slices"
	"sync"
)

// EventType names something the session layer wants the application shell
// to react to.
type EventType string

// EventSessionInvalidated fires after a 401 response cleared stored
// credentials. The shell typically navigates to the login view.
const EventSessionInvalidated EventType = "session_invalidated"

type Event struct {
	Type       EventType
	Method     string
	Path       string
	StatusCode int
}

// Handler receives events synchronously on the publishing goroutine.
type Handler func(ctx context.Context, e Event)

// Events is a small synchronous fan-out hub.
type Events struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewEvents() *Events {
	return &Events{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (e *Events) Subscribe(h Handler) (unsubscribe func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.handlers[id] = h
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

// Publish calls every subscriber in registration order.
func (e *Events) Publish(ctx context.Context, evt Event) {
	e.mu.RLock()
	ids := make([]int, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
}

