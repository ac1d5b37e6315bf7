package protocol

import "encoding/json"

// Native backend commands served by the debuggee itself.
const (
	CmdScripts          = "scripts"
	CmdListBreakpoints  = "listbreakpoints"
	CmdSetBreakpoint    = "setbreakpoint"
	CmdClearBreakpoint  = "clearbreakpoint"
	CmdChangeBreakpoint = "changebreakpoint"
	CmdContinue         = "continue"
	CmdChangeLive       = "changelive"
	CmdSetExceptionBrk  = "setexceptionbreak"
	CmdStatus           = "status"
)

// CmdRemoveAllBreakpoints resets the dispatcher's logical breakpoints. It is
// sent by the bridge on connect and is not exposed to front ends.
const CmdRemoveAllBreakpoints = "Debugger.removeAllBreakpoints"

// Backend events.
const (
	EventBreak        = "break"
	EventException    = "exception"
	EventAfterCompile = "afterCompile"
	EventResumed      = "Debugger.resumed"
)

// ScriptTypeNormal selects ordinary (non-native, non-extension) scripts.
const ScriptTypeNormal = 4

type ScriptsArgs struct {
	IncludeSource bool `json:"includeSource"`
	Types         int  `json:"types,omitempty"`
}

// SetBreakpointArgs targets one script by id.
type SetBreakpointArgs struct {
	Type      string `json:"type"` // "scriptId"
	Target    int    `json:"target"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Condition string `json:"condition,omitempty"`
}

type SetBreakpointBody struct {
	Breakpoint int `json:"breakpoint"`
}

type ClearBreakpointArgs struct {
	Breakpoint int `json:"breakpoint"`
}

type ChangeBreakpointArgs struct {
	Breakpoint int  `json:"breakpoint"`
	Enabled    bool `json:"enabled"`
}

type ListBreakpointsBody struct {
	Breakpoints               []BreakpointInfo `json:"breakpoints"`
	BreakOnExceptions         bool             `json:"breakOnExceptions"`
	BreakOnUncaughtExceptions bool             `json:"breakOnUncaughtExceptions"`
}

type ContinueArgs struct {
	StepAction string `json:"stepaction,omitempty"`
}

type ChangeLiveArgs struct {
	ScriptID    int    `json:"script_id"`
	NewSource   string `json:"new_source"`
	PreviewOnly bool   `json:"preview_only"`
}

// ExceptionBreakArgs toggles one exception-break flavour ("all" or "uncaught").
type ExceptionBreakArgs struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// BreakEvent is the body of break and exception events.
type BreakEvent struct {
	Breakpoints []int           `json:"breakpoints,omitempty"`
	Uncaught    bool            `json:"uncaught,omitempty"`
	Exception   json.RawMessage `json:"exception,omitempty"`
}

// CompileEvent is the body of afterCompile.
type CompileEvent struct {
	Script Script `json:"script"`
}

// StatusBody is the body of the status command.
type StatusBody struct {
	Running bool `json:"running"`
}
