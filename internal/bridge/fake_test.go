package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
	"github.com/mattjoyce/debugbridge/internal/scriptstore"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

type request struct {
	Command string
	Args    json.RawMessage
}

type reply func(args json.RawMessage) (any, error)

// fakeClient answers backend requests from a per-command script.
type fakeClient struct {
	mu       sync.Mutex
	replies  map[string]reply
	requests []request
	running  bool
	readyErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{replies: make(map[string]reply), running: true}
}

func (f *fakeClient) on(command string, r reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[command] = r
}

func (f *fakeClient) Request(_ context.Context, command string, args any) (json.RawMessage, error) {
	var raw json.RawMessage
	switch v := args.(type) {
	case nil:
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	f.mu.Lock()
	f.requests = append(f.requests, request{Command: command, Args: raw})
	r, ok := f.replies[command]
	f.mu.Unlock()

	if !ok {
		return nil, nil
	}
	body, err := r(raw)
	if err != nil || body == nil {
		return nil, err
	}
	return json.Marshal(body)
}

func (f *fakeClient) Ready(ctx context.Context) error {
	if f.readyErr != nil {
		return f.readyErr
	}
	return ctx.Err()
}

func (f *fakeClient) Running(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, nil
}

func (f *fakeClient) setRunning(running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = running
}

// sent returns the requests issued for command, in order.
func (f *fakeClient) sent(command string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, r := range f.requests {
		if r.Command == command {
			out = append(out, r.Args)
		}
	}
	return out
}

func (f *fakeClient) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Command)
	}
	return out
}

type published struct {
	Type string
	Data any
}

type recordingSink struct {
	mu     sync.Mutex
	events []published
}

func (s *recordingSink) Publish(eventType string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, published{Type: eventType, Data: data})
}

func (s *recordingSink) of(eventType string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e.Data)
		}
	}
	return out
}

// warnings returns the texts of Console.messageAdded events.
func (s *recordingSink) warnings() []string {
	var out []string
	for _, e := range s.of(NotifyConsole) {
		out = append(out, e.(ConsoleEvent).Message.Text)
	}
	return out
}

type fakeSaver struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func (f *fakeSaver) Save(_ context.Context, scriptID int, path, text string) (scriptstore.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return scriptstore.Record{}, f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[path] = text
	return scriptstore.Record{Path: path, ScriptID: scriptID, Outcome: scriptstore.OutcomeWritten}, nil
}

func backendErr(command, kind string) error {
	return &protocol.BackendError{Command: command, Message: fmt.Sprintf("%s failed", command), Kind: kind}
}

var errBoom = errors.New("boom")
