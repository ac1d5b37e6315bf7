package bridge

import (
	"encoding/json"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Sink receives front-end notifications.
type Sink interface {
	Publish(eventType string, data any)
}

// Front-end notification methods.
const (
	NotifyPaused       = "Debugger.paused"
	NotifyResumed      = "Debugger.resumed"
	NotifyScriptParsed = "Debugger.scriptParsed"
	NotifyConsole      = "Console.messageAdded"

	// EventCommand is published for every handled front-end command.
	EventCommand = "bridge.command"
)

// PausedEvent is the body of Debugger.paused.
type PausedEvent struct {
	CallFrames     []protocol.CallFrame `json:"callFrames"`
	Reason         string               `json:"reason"`
	HitBreakpoints []string             `json:"hitBreakpoints,omitempty"`
	Data           json.RawMessage      `json:"data,omitempty"`
}

// ScriptParsedEvent is the body of Debugger.scriptParsed.
type ScriptParsedEvent struct {
	ScriptID    string `json:"scriptId"`
	URL         string `json:"url"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

type consoleMessage struct {
	Source string `json:"source"`
	Level  string `json:"level"`
	Text   string `json:"text"`
}

// ConsoleEvent is the body of Console.messageAdded.
type ConsoleEvent struct {
	Message consoleMessage `json:"message"`
}

// CommandEvent describes one handled front-end command.
type CommandEvent struct {
	Session    string `json:"session"`
	Method     string `json:"method"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func scriptParsed(s protocol.Script) ScriptParsedEvent {
	return ScriptParsedEvent{
		ScriptID:  itoa(s.ID),
		URL:       nameToURL(s.Name),
		StartLine: s.LineOffset,
		EndLine:   s.LineOffset + s.LineCount,
	}
}
