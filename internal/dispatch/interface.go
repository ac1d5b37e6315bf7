package dispatch

import (
	"encoding/json"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

//go:generate mockgen -destination=mocks/mock_debuggee.go -package=mocks github.com/mattjoyce/debugbridge/internal/dispatch Debuggee,Evaluator,VariableSetter

// StepAction is the kind of step requested from the engine.
type StepAction int

const (
	StepIn StepAction = iota
	StepNext
	StepOut
)

func (a StepAction) String() string {
	switch a {
	case StepIn:
		return "in"
	case StepNext:
		return "next"
	case StepOut:
		return "out"
	default:
		return "unknown"
	}
}

// BreakpointSpec asks the engine for one physical breakpoint in one script.
type BreakpointSpec struct {
	ScriptID  int
	Line      int
	Column    int
	Condition string
}

// Debuggee is the view of the debugged process the dispatcher works against.
type Debuggee interface {
	// Running reports whether the debuggee is currently running (not paused).
	Running() bool
	// FrameCount returns the depth of the paused call stack.
	FrameCount() int
	// CallFrames wraps up to limit frames of the paused stack, skipping the
	// innermost skip frames.
	CallFrames(limit, skip int) []protocol.CallFrame
	// Scripts returns the loaded-script inventory.
	Scripts() []protocol.Script

	// SetBreakpoint sets one engine breakpoint. ok is false when the engine
	// declines the location.
	SetBreakpoint(spec BreakpointSpec) (id int, ok bool)
	RemoveBreakpoint(id int)
	ListBreakpoints() []protocol.BreakpointInfo
	ChangeBreakpoint(id int, enabled bool) error
	SetBreakpointsActivated(active bool)

	SetPauseOnNextStatement(pause bool)
	ReleaseObjectGroup(group string)
	// PrepareStep arms a step that takes effect when the debuggee resumes.
	PrepareStep(action StepAction)
	RestartFrame(frames []protocol.CallFrame, callFrameID string) error
}

// EvaluateRequest carries the parameters of Debugger.evaluateOnCallFrame.
type EvaluateRequest struct {
	CallFrameID           string `json:"callFrameId"`
	Expression            string `json:"expression"`
	ObjectGroup           string `json:"objectGroup,omitempty"`
	IncludeCommandLineAPI bool   `json:"includeCommandLineAPI,omitempty"`
	ReturnByValue         bool   `json:"returnByValue,omitempty"`
	GeneratePreview       bool   `json:"generatePreview,omitempty"`
}

// SetVariableRequest carries the parameters of Debugger.setVariableValue.
type SetVariableRequest struct {
	CallFrameID      string          `json:"callFrameId,omitempty"`
	FunctionObjectID string          `json:"functionObjectId,omitempty"`
	ScopeNumber      int             `json:"scopeNumber"`
	VariableName     string          `json:"variableName"`
	NewValue         json.RawMessage `json:"newValue"`
}

// Evaluator evaluates expressions against wrapped call frames. Its result
// formats are opaque to the dispatcher.
type Evaluator interface {
	EvaluateOnCallFrame(frames []protocol.CallFrame, req EvaluateRequest) (json.RawMessage, error)
	GetFunctionDetails(functionID string) (json.RawMessage, error)
}

// VariableSetter is implemented by evaluators that can assign scope variables.
type VariableSetter interface {
	SetVariableValue(frames []protocol.CallFrame, req SetVariableRequest) error
}

// EmitFunc publishes a backend event (e.g. Debugger.resumed).
type EmitFunc func(event string, body any)
