// Package events is the in-process pub/sub that carries front-end
// notifications and bridge activity to websocket sessions, the SSE stream and
// the monitor.
package events

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/debugbridge/internal/log"
)

const (
	DefaultCapacity  = 256
	subscriberBuffer = 128
)

// Event is one published notification. Type is the front-end method name
// (e.g. "Debugger.paused") or a bridge event such as "bridge.command".
type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Domain returns the part of Type before the first dot.
func (e Event) Domain() string {
	domain, _, _ := strings.Cut(e.Type, ".")
	return domain
}

// Hub is an in-memory pub/sub with a ring buffer for late subscribers.
type Hub struct {
	nextID  atomic.Int64
	dropped atomic.Int64
	logger  *slog.Logger

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		logger: log.WithComponent("events"),
		ring:   make([]Event, capacity),
		subs:   make(map[int]chan Event),
	}
}

// Publish encodes data and delivers the event to every subscriber. Subscribers
// that are not keeping up miss the event.
func (h *Hub) Publish(eventType string, data any) {
	payload := json.RawMessage("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			h.logger.Error("cannot encode event", "type", eventType, "error", err)
			return
		}
		payload = b
	}

	ev := Event{
		ID:   h.nextID.Add(1),
		Type: eventType,
		At:   time.Now().UTC(),
		Data: payload,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushLocked(ev)
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
			h.logger.Warn("subscriber lagging, event dropped", "subscriber", id, "type", eventType)
		}
	}
}

// Subscribe returns a channel of events published from now on and a cancel
// func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest first.
// lastID 0 returns the whole buffer.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
