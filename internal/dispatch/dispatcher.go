package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

const (
	// DefaultStackTraceLimit caps the number of frames returned by getBacktrace.
	DefaultStackTraceLimit = 50

	// DefaultCallerSkip is the number of innermost frames that belong to the
	// agent's own call path and are hidden from the front end.
	DefaultCallerSkip = 3

	// backtraceObjectGroup is released on every resume.
	backtraceObjectGroup = "backtrace"
)

// Result is the outcome of one command.
type Result struct {
	Body any
	// Running asks the host to let the debuggee run after the command returns.
	Running bool
}

type handlerFunc func(d *Dispatcher, c *Call) (Result, error)

// command is one entry of the dispatch table: the declared parameter list plus
// the handler bound to it.
type command struct {
	params []string
	run    handlerFunc
}

var commands = map[string]command{
	"Debugger.evaluateOnCallFrame": {
		params: []string{"callFrameId", "expression", "objectGroup", "includeCommandLineAPI", "returnByValue", "generatePreview"},
		run:    (*Dispatcher).evaluateOnCallFrame,
	},
	"Debugger.getFunctionDetails": {
		params: []string{"functionId"},
		run:    (*Dispatcher).getFunctionDetails,
	},
	"Debugger.setVariableValue": {
		params: []string{"callFrameId", "functionObjectId", "scopeNumber", "variableName", "newValue"},
		run:    (*Dispatcher).setVariableValue,
	},
	"Debugger.setBreakpointByUrl": {
		params: []string{"url", "urlRegex", "lineNumber", "columnNumber", "condition"},
		run:    (*Dispatcher).setBreakpointByURL,
	},
	"Debugger.removeBreakpoint": {
		params: []string{"breakpointId"},
		run:    (*Dispatcher).removeBreakpoint,
	},
	protocol.CmdRemoveAllBreakpoints: {
		run: (*Dispatcher).removeAllBreakpoints,
	},
	"Debugger.setBreakpointsActive": {
		params: []string{"active"},
		run:    (*Dispatcher).setBreakpointsActive,
	},
	"Debugger.pause":        {run: (*Dispatcher).pause},
	"Debugger.resume":       {run: (*Dispatcher).resume},
	"Debugger.stepOver":     {run: (*Dispatcher).stepOver},
	"Debugger.stepInto":     {run: (*Dispatcher).stepInto},
	"Debugger.stepOut":      {run: (*Dispatcher).stepOut},
	"Debugger.getBacktrace": {run: (*Dispatcher).getBacktrace},
	"Debugger.restartFrame": {
		params: []string{"callFrameId"},
		run:    (*Dispatcher).restartFrame,
	},
}

// Dispatcher executes agent commands against one debuggee. One instance per
// debugged process.
type Dispatcher struct {
	debuggee Debuggee
	eval     Evaluator
	emit     EmitFunc
	logger   *slog.Logger

	stackTraceLimit int
	callerSkip      int

	// cookies holds every registered logical breakpoint by identity key.
	cookies map[string]breakpointCookie
	// physical maps an identity key to the engine breakpoints it owns.
	physical map[string][]int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithStackTraceLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.stackTraceLimit = n
		}
	}
}

func WithCallerSkip(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.callerSkip = n
		}
	}
}

// New creates a Dispatcher. emit may be nil.
func New(debuggee Debuggee, eval Evaluator, emit EmitFunc, opts ...Option) *Dispatcher {
	if emit == nil {
		emit = func(string, any) {}
	}
	d := &Dispatcher{
		debuggee:        debuggee,
		eval:            eval,
		emit:            emit,
		logger:          log.WithComponent("dispatch"),
		stackTraceLimit: DefaultStackTraceLimit,
		callerSkip:      DefaultCallerSkip,
		cookies:         make(map[string]breakpointCookie),
		physical:        make(map[string][]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Has reports whether name is an agent command.
func (d *Dispatcher) Has(name string) bool {
	_, ok := commands[name]
	return ok
}

// Commands returns the sorted list of agent command names.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Handle runs one command. The caller must hold the debuggee's single
// outstanding operation window.
func (d *Dispatcher) Handle(name string, args json.RawMessage) (Result, error) {
	cmd, ok := commands[name]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", name, protocol.ErrUnknownCommand)
	}

	call, err := newCall(name, cmd.params, args)
	if err != nil {
		return Result{}, err
	}

	d.logger.Debug("handling command", "command", name)
	return cmd.run(d, call)
}

// wrapCallFrames returns the visible part of the paused stack.
func (d *Dispatcher) wrapCallFrames(limit int) []protocol.CallFrame {
	frames := d.debuggee.CallFrames(limit, d.callerSkip)
	if frames == nil {
		frames = []protocol.CallFrame{}
	}
	return frames
}
