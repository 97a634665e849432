// Package notify provides fan-out of playback events to stream subscribers.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osa030/qplay/internal/app/playback"
)

// Stream receives broadcast events for one subscriber.
type Stream interface {
	Send(seq uint64, e playback.Event) error
}

type subscription struct {
	id     string
	stream Stream
}

// Hub manages subscriptions and broadcasts playback events to all of them.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscription
	seq  uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscription)}
}

// Subscribe adds a subscriber and returns its subscription ID.
func (h *Hub) Subscribe(stream Stream) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	h.subs[id] = &subscription{id: id, stream: stream}
	return id
}

// Unsubscribe removes a subscription.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Broadcast delivers the event to every subscriber. Sends run in parallel
// with a timeout so one stalled stream cannot block the event pump.
func (h *Hub) Broadcast(e playback.Event) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	subs := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(seq, e)
			}()
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}(sub)
	}
	wg.Wait()
}
