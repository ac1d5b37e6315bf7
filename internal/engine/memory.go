// Package engine provides Memory, an in-memory debuggee. It implements the
// dispatcher's Debuggee, Evaluator and VariableSetter views plus the native
// command surface the backend host serves, and exposes helpers to drive it
// (load scripts, pause, throw) the way a real engine would.
package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/debugbridge/internal/dispatch"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Memory is an in-memory debuggee. All methods are safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	emit dispatch.EmitFunc

	running     bool
	frames      []protocol.CallFrame
	scripts     map[int]protocol.Script
	declined    map[int]bool
	breakpoints map[int]protocol.BreakpointInfo
	nextBP      int

	activated       bool
	pauseOnNext     bool
	step            *dispatch.StepAction
	lastStep        *dispatch.StepAction
	released        []string
	breakOnAll      bool
	breakOnUncaught bool
	failExcBreak    map[string]error

	liveEdit  protocol.LiveEditResult
	vars      map[string]map[string]json.RawMessage
	consts    map[string]bool
	functions map[string]json.RawMessage
}

// NewMemory returns a running debuggee with no scripts.
func NewMemory() *Memory {
	return &Memory{
		emit:         func(string, any) {},
		running:      true,
		scripts:      make(map[int]protocol.Script),
		declined:     make(map[int]bool),
		breakpoints:  make(map[int]protocol.BreakpointInfo),
		nextBP:       1,
		activated:    true,
		failExcBreak: make(map[string]error),
		liveEdit:     protocol.LiveEditResult{Updated: true},
		vars:         make(map[string]map[string]json.RawMessage),
		consts:       make(map[string]bool),
		functions:    make(map[string]json.RawMessage),
	}
}

// SetEmitter installs the sink for engine events.
func (m *Memory) SetEmitter(fn dispatch.EmitFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		fn = func(string, any) {}
	}
	m.emit = fn
}

func (m *Memory) emitter() dispatch.EmitFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emit
}

// AddScript loads a script and announces it with afterCompile.
func (m *Memory) AddScript(s protocol.Script) {
	if s.LineCount == 0 && s.Source != "" {
		s.LineCount = strings.Count(s.Source, "\n")
	}
	m.mu.Lock()
	m.scripts[s.ID] = s
	m.mu.Unlock()

	m.emitter()(protocol.EventAfterCompile, protocol.CompileEvent{Script: s})
}

// Decline makes the engine refuse breakpoints in the given script.
func (m *Memory) Decline(scriptID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declined[scriptID] = true
}

// Pause stops the debuggee with the given stack (innermost first) and emits a
// break event naming the hit breakpoints.
func (m *Memory) Pause(frames []protocol.CallFrame, hit ...int) {
	m.mu.Lock()
	m.running = false
	m.pauseOnNext = false
	m.step = nil
	m.frames = slices.Clone(frames)
	m.mu.Unlock()

	m.emitter()(protocol.EventBreak, protocol.BreakEvent{Breakpoints: hit})
}

// Throw stops the debuggee on an exception.
func (m *Memory) Throw(frames []protocol.CallFrame, uncaught bool, exception json.RawMessage) {
	m.mu.Lock()
	m.running = false
	m.step = nil
	m.frames = slices.Clone(frames)
	m.mu.Unlock()

	m.emitter()(protocol.EventException, protocol.BreakEvent{Uncaught: uncaught, Exception: exception})
}

// SetLiveEditResult scripts the outcome of the next changelive requests.
func (m *Memory) SetLiveEditResult(r protocol.LiveEditResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liveEdit = r
}

// FailExceptionBreak makes setexceptionbreak of the given type fail with err.
func (m *Memory) FailExceptionBreak(kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failExcBreak[kind] = err
}

// SetVariable defines a variable visible from a call frame.
func (m *Memory) SetVariable(callFrameID, name string, value json.RawMessage, constant bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vars[callFrameID] == nil {
		m.vars[callFrameID] = make(map[string]json.RawMessage)
	}
	m.vars[callFrameID][name] = value
	if constant {
		m.consts[callFrameID+"\x00"+name] = true
	}
}

// DefineFunction registers details returned by GetFunctionDetails.
func (m *Memory) DefineFunction(id string, details json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[id] = details
}

func (m *Memory) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Memory) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *Memory) CallFrames(limit, skip int) []protocol.CallFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if skip >= len(m.frames) {
		return []protocol.CallFrame{}
	}
	end := min(skip+limit, len(m.frames))
	return slices.Clone(m.frames[skip:end])
}

func (m *Memory) Scripts() []protocol.Script {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) SetBreakpoint(spec dispatch.BreakpointSpec) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scripts[spec.ScriptID]
	if !ok || m.declined[spec.ScriptID] || !s.Covers(spec.Line) {
		return 0, false
	}
	id := m.nextBP
	m.nextBP++
	m.breakpoints[id] = protocol.BreakpointInfo{
		Number:    id,
		ScriptID:  spec.ScriptID,
		Line:      spec.Line,
		Column:    spec.Column,
		Condition: spec.Condition,
		Active:    true,
	}
	return id, true
}

func (m *Memory) RemoveBreakpoint(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakpoints, id)
}

func (m *Memory) ListBreakpoints() []protocol.BreakpointInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.BreakpointInfo, 0, len(m.breakpoints))
	for _, bp := range m.breakpoints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *Memory) ChangeBreakpoint(id int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.breakpoints[id]
	if !ok {
		return fmt.Errorf("breakpoint %d: %w", id, protocol.ErrNotFound)
	}
	bp.Active = enabled
	m.breakpoints[id] = bp
	return nil
}

func (m *Memory) SetBreakpointsActivated(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activated = active
}

func (m *Memory) SetPauseOnNextStatement(pause bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseOnNext = pause
}

func (m *Memory) ReleaseObjectGroup(group string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, group)
}

func (m *Memory) PrepareStep(action dispatch.StepAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = &action
}

func (m *Memory) RestartFrame(frames []protocol.CallFrame, callFrameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.frames {
		if f.CallFrameID == callFrameID {
			m.frames = slices.Clone(m.frames[i:])
			return nil
		}
	}
	return fmt.Errorf("call frame %s: %w", callFrameID, protocol.ErrNotFound)
}

// Resume lets the debuggee run. A prepared step is consumed.
func (m *Memory) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.frames = nil
	m.lastStep = m.step
	m.step = nil
}

// ChangeLive replaces a script's source and reports the scripted outcome.
func (m *Memory) ChangeLive(scriptID int, source string, previewOnly bool) (protocol.LiveEditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scripts[scriptID]
	if !ok {
		return protocol.LiveEditResult{}, fmt.Errorf("script %d: %w", scriptID, protocol.ErrNotFound)
	}
	if !previewOnly {
		s.Source = source
		s.LineCount = strings.Count(source, "\n")
		m.scripts[scriptID] = s
	}
	return m.liveEdit, nil
}

// SetExceptionBreak toggles breaking on "all" or "uncaught" exceptions.
func (m *Memory) SetExceptionBreak(kind string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failExcBreak[kind]; err != nil {
		return err
	}
	switch kind {
	case "all":
		m.breakOnAll = enabled
	case "uncaught":
		m.breakOnUncaught = enabled
	default:
		return fmt.Errorf("exception break type %q: %w", kind, protocol.ErrInvalidArgument)
	}
	return nil
}

// ExceptionBreaks reports the exception-break flags.
func (m *Memory) ExceptionBreaks() (all, uncaught bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.breakOnAll, m.breakOnUncaught
}

// LastStep returns the step consumed by the most recent Resume.
func (m *Memory) LastStep() (dispatch.StepAction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastStep == nil {
		return 0, false
	}
	return *m.lastStep, true
}

func (m *Memory) PauseOnNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseOnNext
}

func (m *Memory) Activated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activated
}

func (m *Memory) ReleasedGroups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.released)
}

// Source returns the current source of a script.
func (m *Memory) Source(scriptID int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scripts[scriptID]
	return s.Source, ok
}

type evalResult struct {
	Result    json.RawMessage `json:"result"`
	WasThrown bool            `json:"wasThrown,omitempty"`
}

var undefined = json.RawMessage(`{"type":"undefined"}`)

// EvaluateOnCallFrame resolves a bare variable name in the selected frame.
func (m *Memory) EvaluateOnCallFrame(frames []protocol.CallFrame, req dispatch.EvaluateRequest) (json.RawMessage, error) {
	if !hasFrame(frames, req.CallFrameID) {
		return nil, fmt.Errorf("call frame %s: %w", req.CallFrameID, protocol.ErrNotFound)
	}

	m.mu.Lock()
	value, ok := m.vars[req.CallFrameID][strings.TrimSpace(req.Expression)]
	m.mu.Unlock()

	res := evalResult{Result: undefined}
	if ok {
		res.Result = value
	}
	return json.Marshal(res)
}

func (m *Memory) GetFunctionDetails(functionID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	details, ok := m.functions[functionID]
	if !ok {
		return nil, fmt.Errorf("function %s: %w", functionID, protocol.ErrNotFound)
	}
	return details, nil
}

func (m *Memory) SetVariableValue(frames []protocol.CallFrame, req dispatch.SetVariableRequest) error {
	if !hasFrame(frames, req.CallFrameID) {
		return fmt.Errorf("call frame %s not found", req.CallFrameID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consts[req.CallFrameID+"\x00"+req.VariableName] {
		return fmt.Errorf("assignment to constant variable %s", req.VariableName)
	}
	if m.vars[req.CallFrameID] == nil {
		m.vars[req.CallFrameID] = make(map[string]json.RawMessage)
	}
	m.vars[req.CallFrameID][req.VariableName] = req.NewValue
	return nil
}

func hasFrame(frames []protocol.CallFrame, id string) bool {
	for _, f := range frames {
		if f.CallFrameID == id {
			return true
		}
	}
	return false
}
