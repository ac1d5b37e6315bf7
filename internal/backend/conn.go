package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// ErrClosed is returned for requests on a closed connection.
var ErrClosed = errors.New("backend connection closed")

// ErrNotConnected is returned for requests issued before Start succeeds.
var ErrNotConnected = errors.New("backend not connected")

const defaultRetryInterval = 250 * time.Millisecond

// Conn is a Client talking to a Host over a websocket.
type Conn struct {
	url           string
	dialer        *websocket.Dialer
	retryInterval time.Duration
	logger        *slog.Logger

	ws      *websocket.Conn
	writeMu sync.Mutex

	seq     atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan *protocol.Response

	running atomic.Bool
	events  *broadcaster

	// connected is closed once the websocket is up; ready once the running
	// flag has been seeded from the host's status.
	connected chan struct{}
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type ConnOption func(*Conn)

func WithRetryInterval(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

func WithConnLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConn prepares a connection to the websocket at url. Call Start to dial.
func NewConn(url string, opts ...ConnOption) *Conn {
	c := &Conn{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 3 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		retryInterval: defaultRetryInterval,
		logger:        log.WithComponent("backend-conn"),
		pending:       make(map[int64]chan *protocol.Response),
		connected:     make(chan struct{}),
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.events = newBroadcaster(c.logger)
	return c
}

// Start dials until the host accepts or ctx ends, then seeds the running flag.
func (c *Conn) Start(ctx context.Context) error {
	attempt := 0
	for {
		attempt++
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.ws = ws
			break
		}
		c.logger.Debug("dial failed", "url", c.url, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("dial %s: %w", c.url, err)
		case <-time.After(c.retryInterval):
		}
	}

	go c.readLoop()
	close(c.connected)
	c.logger.Info("connected to debuggee", "url", c.url, "attempts", attempt)

	body, err := c.Request(ctx, protocol.CmdStatus, nil)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	var status protocol.StatusBody
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	c.running.Store(status.Running)
	close(c.ready)
	return nil
}

// Ready blocks until Start has connected and learned whether the debuggee is
// running.
func (c *Conn) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Running(ctx context.Context) (bool, error) {
	if err := c.Ready(ctx); err != nil {
		return false, err
	}
	return c.running.Load(), nil
}

func (c *Conn) Subscribe() (<-chan protocol.Event, func()) {
	return c.events.Subscribe()
}

// Done is closed when the read loop ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Request(ctx context.Context, command string, args any) (json.RawMessage, error) {
	select {
	case <-c.connected:
	default:
		return nil, ErrNotConnected
	}

	raw, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}
	req := &protocol.Request{
		Seq:       c.seq.Add(1),
		Type:      protocol.TypeRequest,
		Command:   command,
		Arguments: raw,
	}

	ch := make(chan *protocol.Response, 1)
	c.mu.Lock()
	c.pending[req.Seq] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
	}()

	var buf bytes.Buffer
	if err := protocol.EncodeRequest(&buf, req); err != nil {
		return nil, err
	}
	c.writeMu.Lock()
	err = c.ws.WriteMessage(websocket.TextMessage, buf.Bytes())
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", command, err)
	}

	select {
	case resp := <-ch:
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return resp.Body, nil
	case <-c.done:
		return nil, fmt.Errorf("%s: %w", command, ErrClosed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) readLoop() {
	defer c.shutdown()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Warn("backend connection lost", "error", err)
			}
			return
		}

		msg, err := protocol.DecodeMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed backend message", "error", err)
			continue
		}

		switch m := msg.(type) {
		case *protocol.Response:
			c.running.Store(m.Running)
			c.mu.Lock()
			ch, ok := c.pending[m.RequestSeq]
			c.mu.Unlock()
			if !ok {
				c.logger.Debug("response without pending request", "request_seq", m.RequestSeq)
				continue
			}
			ch <- m
		case *protocol.Event:
			switch m.Event {
			case protocol.EventBreak, protocol.EventException:
				c.running.Store(false)
			case protocol.EventResumed:
				c.running.Store(true)
			}
			c.events.publish(*m)
		}
	}
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.events.close()
	})
}

// Close closes the websocket and waits for the read loop to end.
func (c *Conn) Close() error {
	select {
	case <-c.connected:
	default:
		c.shutdown()
		return nil
	}

	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}
