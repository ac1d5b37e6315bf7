// Package backend carries backend requests from the bridge to the debuggee.
//
// The debuggee side is a Host: it sequences requests one at a time through the
// single outstanding operation window, routes agent commands (Debugger.*) to
// the dispatcher and native commands to the engine, and broadcasts events.
// The bridge side talks to a Host through a Client: Local in-process, or Conn
// over a websocket served by Host.ServeHTTP.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Client issues backend requests.
type Client interface {
	// Request sends one command and returns the response body. A failed
	// response is returned as a *protocol.BackendError.
	Request(ctx context.Context, command string, args any) (json.RawMessage, error)
	// Ready blocks until the backend can serve requests.
	Ready(ctx context.Context) error
	// Running reports whether the debuggee is running.
	Running(ctx context.Context) (bool, error)
}

// EventSource delivers backend events in order.
type EventSource interface {
	Subscribe() (<-chan protocol.Event, func())
}

func marshalArgs(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	return data, nil
}

const subscriberBuffer = 256

// broadcaster fans events out to subscribers without blocking the producer.
type broadcaster struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan protocol.Event
	nextID int
	closed bool
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{logger: logger, subs: make(map[int]chan protocol.Event)}
}

func (b *broadcaster) Subscribe() (<-chan protocol.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan protocol.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *broadcaster) publish(ev protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping backend event for slow subscriber", "event", ev.Event, "subscriber", id)
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
