package protocol

import (
	"encoding/json"
	"strings"
)

// Message types on the engine-facing wire.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Request is the backend request envelope sent to the debuggee.
type Request struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"` // always "request"
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response is the backend response envelope produced by the debuggee.
type Response struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"` // always "response"
	RequestSeq int64           `json:"request_seq"`
	Command    string          `json:"command"`
	Success    bool            `json:"success"`
	Running    bool            `json:"running"`
	Body       json.RawMessage `json:"body,omitempty"`
	Message    string          `json:"message,omitempty"`
	Code       string          `json:"code,omitempty"` // error kind, see KindOf
}

// Event is an unsolicited backend notification (break, exception, afterCompile,
// Debugger.resumed).
type Event struct {
	Seq   int64           `json:"seq"`
	Type  string          `json:"type"` // always "event"
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Envelope is used to sniff the type of an incoming backend message before
// decoding it fully.
type Envelope struct {
	Type string `json:"type"`
}

// FrontendRequest is a command issued by the front end.
type FrontendRequest struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// FrontendResponse answers a FrontendRequest. Exactly one of Result or Error is set.
type FrontendResponse struct {
	ID     int64          `json:"id"`
	Result any            `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// FrontendNotification is an event pushed to the front end.
type FrontendNotification struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// ErrorResponse is the error object of a FrontendResponse.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SplitMethod splits "Debugger.enable" into ("Debugger", "enable").
// A method without a dot yields an empty domain.
func SplitMethod(method string) (domain, command string) {
	i := strings.IndexByte(method, '.')
	if i < 0 {
		return "", method
	}
	return method[:i], method[i+1:]
}

// Location is a position inside a loaded script.
type Location struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber"`
}

// CallFrame is a single frame of the paused call stack.
type CallFrame struct {
	CallFrameID  string   `json:"callFrameId"`
	FunctionName string   `json:"functionName"`
	Location     Location `json:"location"`
	URL          string   `json:"url,omitempty"`
	IsAtReturn   bool     `json:"isAtReturn,omitempty"`
}

// Script is a loaded script instance as reported by the engine.
type Script struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	LineOffset int    `json:"lineOffset"`
	LineCount  int    `json:"lineCount"`
	Source     string `json:"source,omitempty"`
}

// Covers reports whether line falls inside the script's line range.
func (s Script) Covers(line int) bool {
	return s.LineOffset <= line && line <= s.LineOffset+s.LineCount
}

// BreakpointInfo describes one engine-level breakpoint.
type BreakpointInfo struct {
	Number    int    `json:"number"`
	ScriptID  int    `json:"script_id"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Condition string `json:"condition,omitempty"`
	Active    bool   `json:"active"`
}

// LiveEditResult is the engine's verdict on a source replacement.
type LiveEditResult struct {
	StackModified          bool            `json:"stack_modified"`
	StackUpdateNeedsStepIn bool            `json:"stack_update_needs_step_in"`
	Updated                bool            `json:"updated"`
	ChangeLog              json.RawMessage `json:"change_log,omitempty"`
}

// LiveEditResponse is the body of a changelive response.
type LiveEditResponse struct {
	Result LiveEditResult `json:"result"`
}

// BacktraceResult is the body of Debugger.getBacktrace.
type BacktraceResult struct {
	CallFrames []CallFrame `json:"callFrames"`
}
