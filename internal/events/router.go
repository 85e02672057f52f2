package events

import (
	"sync"

	"github.com/binhbb2204/nocturne/pkg/logger"
)

type Handler func(event Event) error

type Filter func(event Event) bool

// Router delivers an event to every handler registered for its type,
// after all filters accept it.
type Router struct {
	log      *logger.Logger
	handlers map[EventType][]Handler
	filters  []Filter
	mu       sync.RWMutex
}

func NewRouter(log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Router{
		log:      log,
		handlers: make(map[EventType][]Handler),
	}
}

func (r *Router) RegisterHandler(eventType EventType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
	r.log.Debug("event_handler_registered", "event_type", eventType)
}

func (r *Router) AddFilter(f Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
}

// Route runs the handlers concurrently and waits for them. Handler errors
// are logged, not returned.
func (r *Router) Route(event Event) {
	if !r.accept(event) {
		r.log.Debug("event_filtered", "event_id", event.ID, "type", event.Type)
		return
	}

	r.mu.RLock()
	handlers := r.handlers[event.Type]
	r.mu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(event); err != nil {
				r.log.Error("event_handler_failed",
					"event_id", event.ID,
					"event_type", event.Type,
					"error", err.Error())
			}
		}(h)
	}
	wg.Wait()
	r.log.Debug("event_routed", "event_id", event.ID, "event_type", event.Type, "handlers", len(handlers))
}

func (r *Router) accept(event Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.filters {
		if !f(event) {
			return false
		}
	}
	return true
}

func (r *Router) HandlerCount(eventType EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[eventType])
}
