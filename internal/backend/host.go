package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mattjoyce/debugbridge/internal/dispatch"
	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Engine is the debuggee as seen by the host: the dispatcher's views plus the
// native command surface.
type Engine interface {
	dispatch.Debuggee
	dispatch.Evaluator
	SetEmitter(fn dispatch.EmitFunc)
	// Resume lets the debuggee run, consuming any prepared step.
	Resume()
	ChangeLive(scriptID int, source string, previewOnly bool) (protocol.LiveEditResult, error)
	SetExceptionBreak(kind string, enabled bool) error
}

type nativeFunc func(h *Host, args json.RawMessage) (dispatch.Result, error)

var natives = map[string]nativeFunc{
	protocol.CmdScripts:          (*Host).scripts,
	protocol.CmdListBreakpoints:  (*Host).listBreakpoints,
	protocol.CmdSetBreakpoint:    (*Host).setBreakpoint,
	protocol.CmdClearBreakpoint:  (*Host).clearBreakpoint,
	protocol.CmdChangeBreakpoint: (*Host).changeBreakpoint,
	protocol.CmdContinue:         (*Host).continueExecution,
	protocol.CmdChangeLive:       (*Host).changeLive,
	protocol.CmdSetExceptionBrk:  (*Host).setExceptionBreak,
	protocol.CmdStatus:           (*Host).status,
}

// Host serves backend requests against one engine.
type Host struct {
	engine     Engine
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	// window admits one outstanding operation at a time.
	window chan struct{}
	seq    atomic.Int64
	events *broadcaster

	connected atomic.Bool
}

type Option func(*hostOptions)

type hostOptions struct {
	logger       *slog.Logger
	dispatchOpts []dispatch.Option
}

func WithLogger(l *slog.Logger) Option {
	return func(o *hostOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDispatchOptions forwards options to the host's dispatcher.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(o *hostOptions) {
		o.dispatchOpts = append(o.dispatchOpts, opts...)
	}
}

// NewHost wires a dispatcher to engine and routes engine events to subscribers.
func NewHost(engine Engine, opts ...Option) *Host {
	o := hostOptions{logger: log.WithComponent("backend")}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{
		engine: engine,
		logger: o.logger,
		window: make(chan struct{}, 1),
		events: newBroadcaster(o.logger),
	}
	h.dispatcher = dispatch.New(engine, engine, h.emit, o.dispatchOpts...)
	engine.SetEmitter(h.emit)
	return h
}

// Dispatcher exposes the host's dispatcher for inspection.
func (h *Host) Dispatcher() *dispatch.Dispatcher {
	return h.dispatcher
}

// Subscribe returns a channel of backend events and a cancel func.
func (h *Host) Subscribe() (<-chan protocol.Event, func()) {
	return h.events.Subscribe()
}

// Running reports the engine's execution state.
func (h *Host) Running() bool {
	return h.engine.Running()
}

func (h *Host) emit(event string, body any) {
	ev := protocol.Event{Seq: h.seq.Add(1), Type: protocol.TypeEvent, Event: event}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.logger.Error("cannot encode event body", "event", event, "error", err)
			return
		}
		ev.Body = data
	}
	h.events.publish(ev)
}

// Do executes one request inside the operation window. The returned error is
// non-nil only when ctx ends before the window opens; command failures are
// reported in the response.
func (h *Host) Do(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	select {
	case h.window <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-h.window }()

	logger := h.logger.With("command", req.Command, "request_seq", req.Seq)

	var (
		res dispatch.Result
		err error
	)
	if h.dispatcher.Has(req.Command) {
		res, err = h.dispatcher.Handle(req.Command, req.Arguments)
	} else if native, ok := natives[req.Command]; ok {
		res, err = native(h, req.Arguments)
	} else {
		err = fmt.Errorf("%s: %w", req.Command, protocol.ErrUnknownCommand)
	}

	resp := &protocol.Response{
		Type:       protocol.TypeResponse,
		RequestSeq: req.Seq,
		Command:    req.Command,
	}
	if err != nil {
		logger.Debug("command failed", "error", err)
		resp.Message = err.Error()
		resp.Code = protocol.KindOf(err)
	} else {
		resp.Success = true
		if res.Body != nil {
			body, merr := json.Marshal(res.Body)
			if merr != nil {
				resp.Success = false
				resp.Message = fmt.Sprintf("encode body: %v", merr)
			} else {
				resp.Body = body
			}
		}
	}

	if res.Running {
		h.engine.Resume()
	}
	resp.Running = h.engine.Running()
	resp.Seq = h.seq.Add(1)
	return resp, nil
}

func decodeArgs(command string, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: bad arguments: %v: %w", command, err, protocol.ErrInvalidArgument)
	}
	return nil
}

func (h *Host) scripts(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ScriptsArgs
	if err := decodeArgs(protocol.CmdScripts, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	scripts := h.engine.Scripts()
	if !args.IncludeSource {
		for i := range scripts {
			scripts[i].Source = ""
		}
	}
	return dispatch.Result{Body: scripts}, nil
}

func (h *Host) listBreakpoints(raw json.RawMessage) (dispatch.Result, error) {
	body := protocol.ListBreakpointsBody{Breakpoints: h.engine.ListBreakpoints()}
	if lister, ok := h.engine.(interface{ ExceptionBreaks() (bool, bool) }); ok {
		body.BreakOnExceptions, body.BreakOnUncaughtExceptions = lister.ExceptionBreaks()
	}
	return dispatch.Result{Body: body}, nil
}

func (h *Host) setBreakpoint(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.SetBreakpointArgs
	if err := decodeArgs(protocol.CmdSetBreakpoint, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	if args.Type != "scriptId" {
		return dispatch.Result{}, fmt.Errorf("breakpoint target type %q: %w", args.Type, protocol.ErrUnsupported)
	}
	id, ok := h.engine.SetBreakpoint(dispatch.BreakpointSpec{
		ScriptID:  args.Target,
		Line:      args.Line,
		Column:    args.Column,
		Condition: args.Condition,
	})
	if !ok {
		return dispatch.Result{}, fmt.Errorf("no breakable location at script %d line %d: %w", args.Target, args.Line, protocol.ErrNotFound)
	}
	return dispatch.Result{Body: protocol.SetBreakpointBody{Breakpoint: id}}, nil
}

func (h *Host) clearBreakpoint(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ClearBreakpointArgs
	if err := decodeArgs(protocol.CmdClearBreakpoint, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	h.engine.RemoveBreakpoint(args.Breakpoint)
	return dispatch.Result{Body: protocol.SetBreakpointBody{Breakpoint: args.Breakpoint}}, nil
}

func (h *Host) changeBreakpoint(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ChangeBreakpointArgs
	if err := decodeArgs(protocol.CmdChangeBreakpoint, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	if err := h.engine.ChangeBreakpoint(args.Breakpoint, args.Enabled); err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{}, nil
}

var stepActions = map[string]dispatch.StepAction{
	"in":   dispatch.StepIn,
	"next": dispatch.StepNext,
	"out":  dispatch.StepOut,
}

func (h *Host) continueExecution(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ContinueArgs
	if err := decodeArgs(protocol.CmdContinue, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	if args.StepAction != "" {
		action, ok := stepActions[args.StepAction]
		if !ok {
			return dispatch.Result{}, fmt.Errorf("step action %q: %w", args.StepAction, protocol.ErrInvalidArgument)
		}
		h.engine.PrepareStep(action)
	}
	if h.engine.Running() {
		return dispatch.Result{}, nil
	}
	h.emit(protocol.EventResumed, nil)
	return dispatch.Result{Running: true}, nil
}

func (h *Host) changeLive(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ChangeLiveArgs
	if err := decodeArgs(protocol.CmdChangeLive, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	result, err := h.engine.ChangeLive(args.ScriptID, args.NewSource, args.PreviewOnly)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Body: protocol.LiveEditResponse{Result: result}}, nil
}

func (h *Host) setExceptionBreak(raw json.RawMessage) (dispatch.Result, error) {
	var args protocol.ExceptionBreakArgs
	if err := decodeArgs(protocol.CmdSetExceptionBrk, raw, &args); err != nil {
		return dispatch.Result{}, err
	}
	if err := h.engine.SetExceptionBreak(args.Type, args.Enabled); err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Body: args}, nil
}

func (h *Host) status(json.RawMessage) (dispatch.Result, error) {
	return dispatch.Result{Body: protocol.StatusBody{Running: h.engine.Running()}}, nil
}
