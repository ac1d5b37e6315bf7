package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/mattjoyce/debugbridge/internal/backend"
	"github.com/mattjoyce/debugbridge/internal/protocol"
	"github.com/mattjoyce/debugbridge/internal/scripts"
)

const cmdGetBacktrace = "Debugger.getBacktrace"

// BreakHandler turns backend events into front-end notifications and owns the
// one-shot breakpoint used by continueToLocation.
type BreakHandler struct {
	client   backend.Client
	registry *scripts.Registry
	sink     Sink
	logger   *slog.Logger

	mu             sync.Mutex
	continueTarget int
	hasTarget      bool
}

func newBreakHandler(client backend.Client, registry *scripts.Registry, sink Sink, logger *slog.Logger) *BreakHandler {
	return &BreakHandler{
		client:   client,
		registry: registry,
		sink:     sink,
		logger:   logger.With("handler", "breaks"),
	}
}

func (b *BreakHandler) setContinueTarget(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.continueTarget = id
	b.hasTarget = true
}

func (b *BreakHandler) clearContinueTarget() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasTarget = false
}

// ContinueTarget returns the pending one-shot breakpoint, if any.
func (b *BreakHandler) ContinueTarget() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.continueTarget, b.hasTarget
}

// takeTargetIfHit forgets the one-shot breakpoint when it is among hits.
func (b *BreakHandler) takeTargetIfHit(hits []int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasTarget || !slices.Contains(hits, b.continueTarget) {
		return 0, false
	}
	b.hasTarget = false
	return b.continueTarget, true
}

// HandleEvent processes one backend event. Failures are logged.
func (b *BreakHandler) HandleEvent(ctx context.Context, ev protocol.Event) {
	var err error
	switch ev.Event {
	case protocol.EventBreak:
		err = b.onBreak(ctx, ev.Body)
	case protocol.EventException:
		err = b.onException(ctx, ev.Body)
	case protocol.EventResumed:
		b.sink.Publish(NotifyResumed, struct{}{})
	case protocol.EventAfterCompile:
		err = b.onAfterCompile(ev.Body)
	default:
		b.logger.Debug("ignoring backend event", "event", ev.Event)
	}
	if err != nil {
		b.logger.Warn("cannot handle backend event", "event", ev.Event, "error", err)
	}
}

func (b *BreakHandler) onBreak(ctx context.Context, body json.RawMessage) error {
	var brk protocol.BreakEvent
	if err := decodeEvent(body, &brk); err != nil {
		return err
	}

	hits := brk.Breakpoints
	if target, ok := b.takeTargetIfHit(hits); ok {
		if _, err := b.client.Request(ctx, protocol.CmdClearBreakpoint, protocol.ClearBreakpointArgs{Breakpoint: target}); err != nil {
			b.logger.Warn("cannot clear continue-to-location breakpoint", "breakpoint", target, "error", err)
		}
		hits = slices.DeleteFunc(slices.Clone(hits), func(id int) bool { return id == target })
	}

	var hitIDs []string
	for _, id := range hits {
		hitIDs = append(hitIDs, strconv.Itoa(id))
	}
	return b.SendBacktrace(ctx, "other", hitIDs, nil)
}

func (b *BreakHandler) onException(ctx context.Context, body json.RawMessage) error {
	var brk protocol.BreakEvent
	if err := decodeEvent(body, &brk); err != nil {
		return err
	}
	return b.SendBacktrace(ctx, "exception", nil, brk.Exception)
}

func (b *BreakHandler) onAfterCompile(body json.RawMessage) error {
	var ev protocol.CompileEvent
	if err := decodeEvent(body, &ev); err != nil {
		return err
	}
	b.registry.Add(ev.Script)
	b.sink.Publish(NotifyScriptParsed, scriptParsed(ev.Script))
	return nil
}

// SendBacktrace publishes Debugger.paused with the current call stack. Nothing
// is published when the debuggee reports no stack.
func (b *BreakHandler) SendBacktrace(ctx context.Context, reason string, hits []string, data json.RawMessage) error {
	frames, err := b.backtrace(ctx)
	if err != nil {
		return err
	}
	if frames == nil {
		return nil
	}
	b.sink.Publish(NotifyPaused, PausedEvent{
		CallFrames:     frames,
		Reason:         reason,
		HitBreakpoints: hits,
		Data:           data,
	})
	return nil
}

// backtrace returns nil when the debuggee answered without a body.
func (b *BreakHandler) backtrace(ctx context.Context) ([]protocol.CallFrame, error) {
	body, err := b.client.Request(ctx, cmdGetBacktrace, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var bt protocol.BacktraceResult
	if err := json.Unmarshal(body, &bt); err != nil {
		return nil, fmt.Errorf("decode backtrace: %w", err)
	}
	if bt.CallFrames == nil {
		bt.CallFrames = []protocol.CallFrame{}
	}
	return bt.CallFrames, nil
}

func decodeEvent(body json.RawMessage, v any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}
