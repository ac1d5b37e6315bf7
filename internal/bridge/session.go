package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// DefaultRequestTimeout bounds one front-end command.
const DefaultRequestTimeout = 30 * time.Second

type methodFunc func(s *Session, ctx context.Context, method string, params json.RawMessage) (any, error)

var methods = map[string]methodFunc{
	"Debugger.enable":               (*Session).enable,
	"Debugger.continueToLocation":   (*Session).continueToLocation,
	"Debugger.getScriptSource":      (*Session).getScriptSource,
	"Debugger.setScriptSource":      (*Session).setScriptSource,
	"Debugger.setPauseOnExceptions": (*Session).setPauseOnExceptions,
	"Debugger.setSkipAllPauses":     (*Session).setSkipAllPauses,
}

// forwarded commands are served by the debuggee's dispatcher unchanged.
var forwarded = []string{
	"Debugger.getBacktrace",
	"Debugger.pause",
	"Debugger.resume",
	"Debugger.stepInto",
	"Debugger.stepOver",
	"Debugger.stepOut",
	"Debugger.restartFrame",
	"Debugger.setBreakpointByUrl",
	"Debugger.removeBreakpoint",
	"Debugger.setBreakpointsActive",
	"Debugger.setVariableValue",
	"Debugger.evaluateOnCallFrame",
	"Debugger.getFunctionDetails",
}

func init() {
	for _, name := range forwarded {
		methods[name] = (*Session).forward
	}
}

// Methods returns every front-end method a Session serves, sorted.
func Methods() []string {
	out := make([]string, 0, len(methods))
	for name := range methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type enablement int

const (
	disabled enablement = iota
	enabling
	enabled
)

func (e enablement) String() string {
	switch e {
	case enabling:
		return "enabling"
	case enabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// Session is one front-end connection to an Agent.
type Session struct {
	id             string
	agent          *Agent
	sink           Sink
	logger         *slog.Logger
	requestTimeout time.Duration

	mu    sync.Mutex
	state enablement
}

type SessionOption func(*Session)

func WithRequestTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewSession binds a new front-end session to agent. sink may be nil.
func NewSession(agent *Agent, sink Sink, opts ...SessionOption) *Session {
	if sink == nil {
		sink = discard{}
	}
	id := uuid.NewString()
	s := &Session{
		id:             id,
		agent:          agent,
		sink:           sink,
		logger:         log.WithSession(id),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Enabled reports whether this session's Debugger.enable has completed.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == enabled
}

// Handle runs one front-end command. A command without a result body yields
// an empty object.
func (s *Session) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	start := time.Now()

	result, err := s.handle(ctx, method, params)

	ev := CommandEvent{
		Session:    s.id,
		Method:     method,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
		s.logger.Debug("command failed", "method", method, "error", err)
	}
	s.sink.Publish(EventCommand, ev)

	if err != nil {
		return nil, err
	}
	if result == nil {
		return struct{}{}, nil
	}
	return result, nil
}

func (s *Session) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	fn, ok := methods[method]
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, protocol.ErrUnknownCommand)
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return fn(s, ctx, method, params)
}

func decodeParams(method string, raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: bad params: %v: %w", method, err, protocol.ErrInvalidArgument)
	}
	return nil
}
