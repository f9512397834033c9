// Package feed fans todo change notifications out to live subscribers.
package feed

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/surrealdb/todoapi/pkg/models"
)

var ErrClosed = errors.New("feed is closed")

// Hub delivers each published Notification to every current subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	buffer int
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[string]chan models.Notification
	closed      bool
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer:      buffer,
		logger:      logger,
		subscribers: make(map[string]chan models.Notification),
	}
}

// Subscribe registers a new subscriber. The returned channel is closed by
// Unsubscribe or Close.
func (h *Hub) Subscribe() (string, <-chan models.Notification, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", nil, ErrClosed
	}

	id := models.NewTodoID()
	ch := make(chan models.Notification, h.buffer)
	h.subscribers[id] = ch
	return id, ch, nil
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

func (h *Hub) Publish(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- n:
		default:
			h.logger.Warn().
				Str("subscriber", id).
				Str("todo", n.ID).
				Str("action", string(n.Action)).
				Msg("feed subscriber is lagging, dropping notification")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber. Later Subscribe calls fail with
// ErrClosed and Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
