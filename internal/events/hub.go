package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the kind of mutation an Event reports.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Event tells subscribers that a record changed. It carries no record
// data; clients re-fetch the list when they see one.
type Event struct {
	Type Kind      `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}

// subscriberBuffer is the per-subscriber queue length. Events published
// while the queue is full are dropped for that subscriber.
const subscriberBuffer = 16

// Hub is a thread-safe, in-memory fan-out of change events. All public
// methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	closed bool
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its generated ID and
// the channel its events arrive on. The channel is closed by Unsubscribe
// or Close.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown IDs
// are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
}

// Publish delivers e to every subscriber without blocking.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later subscribers receive an
// already-closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
