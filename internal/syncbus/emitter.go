package syncbus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

// Handler receives an emitted change event
type Handler func(event *entities.ChangeEvent)

// ListenerID identifies a registered handler for Off
type ListenerID uint64

type listener struct {
	id      ListenerID
	handler Handler
}

// Emitter is an in-process publish/subscribe hub. Handlers run synchronously
// on the emitting goroutine.
type Emitter struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners map[string][]listener
	logger    zerolog.Logger
}

// NewEmitter creates an emitter
func NewEmitter(logger zerolog.Logger) *Emitter {
	return &Emitter{
		listeners: make(map[string][]listener),
		logger:    logger,
	}
}

// On registers handler for name, or for every event when name is Wildcard
func (e *Emitter) On(name string, handler Handler) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.listeners[name] = append(e.listeners[name], listener{id: e.nextID, handler: handler})
	return e.nextID
}

// Off removes a handler and reports whether it was registered
func (e *Emitter) Off(name string, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.listeners[name]
	for i, l := range list {
		if l.id != id {
			continue
		}
		e.listeners[name] = append(list[:i:i], list[i+1:]...)
		if len(e.listeners[name]) == 0 {
			delete(e.listeners, name)
		}
		return true
	}
	return false
}

// Emit delivers event to the handlers of name, then to wildcard handlers.
// Each group runs in its own registration order. It returns how many
// handlers ran.
func (e *Emitter) Emit(name string, event *entities.ChangeEvent) int {
	e.mu.RLock()
	targets := make([]listener, 0, len(e.listeners[name])+len(e.listeners[Wildcard]))
	targets = append(targets, e.listeners[name]...)
	if name != Wildcard {
		targets = append(targets, e.listeners[Wildcard]...)
	}
	e.mu.RUnlock()

	for _, l := range targets {
		e.invoke(name, l.handler, event)
	}
	return len(targets)
}

func (e *Emitter) invoke(name string, handler Handler, event *entities.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("event", name).Msg("change handler panicked")
		}
	}()
	handler(event)
}
