package stream

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"krx-trader/internal/models"
)

// TickHandler consumes one streaming tick.
type TickHandler func(models.Tick)

// Hub is the publish/subscribe registry for streaming ticks.
// Subscribers are invoked synchronously in registration order; a
// panicking subscriber is contained and does not block delivery to the
// rest.
type Hub struct {
	mu     sync.RWMutex
	subs   []subscriber
	logger zerolog.Logger
}

type subscriber struct {
	id string
	fn TickHandler
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger.With().Str("component", "hub").Logger(),
	}
}

// Subscribe registers a tick handler and returns an unsubscribe
// function. Subscribers registered while a frame is in flight need not
// receive that frame.
func (h *Hub) Subscribe(fn TickHandler) (unsubscribe func()) {
	id := uuid.NewString()

	h.mu.Lock()
	h.subs = append(h.subs, subscriber{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers one tick to a snapshot of the current subscribers.
func (h *Hub) Publish(tick models.Tick) {
	h.mu.RLock()
	subs := make([]subscriber, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		h.deliver(s, tick)
	}
}

func (h *Hub) deliver(s subscriber, tick models.Tick) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Str("subscriber", s.id).
				Interface("panic", r).
				Msg("tick subscriber panicked")
		}
	}()
	s.fn(tick)
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
