package tui

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattjoyce/debugbridge/internal/bridge"
	"github.com/mattjoyce/debugbridge/internal/events"
)

const (
	maxEventLog = 50
	maxCommands = 50
)

// ExecState is the debuggee's execution state as seen through the bridge.
type ExecState struct {
	Paused         bool
	Known          bool
	Reason         string
	Function       string
	Location       string
	Frames         int
	HitBreakpoints []string
	Since          time.Time
}

// CommandRow is one handled front-end command.
type CommandRow struct {
	At       time.Time
	Method   string
	Duration time.Duration
	Error    string
}

// State is everything the monitor derives from the event stream.
type State struct {
	Exec     ExecState
	Scripts  map[string]string
	Commands []CommandRow
	Warnings int
	EventLog []events.Event
}

func NewState() *State {
	return &State{Scripts: make(map[string]string)}
}

// Apply folds one event into the state.
func (s *State) Apply(e events.Event) {
	s.EventLog = append([]events.Event{e}, s.EventLog...)
	if len(s.EventLog) > maxEventLog {
		s.EventLog = s.EventLog[:maxEventLog]
	}

	switch e.Type {
	case bridge.NotifyPaused:
		var p bridge.PausedEvent
		if json.Unmarshal(e.Data, &p) != nil {
			return
		}
		s.Exec = ExecState{
			Paused:         true,
			Known:          true,
			Reason:         p.Reason,
			Frames:         len(p.CallFrames),
			HitBreakpoints: p.HitBreakpoints,
			Since:          e.At,
		}
		if len(p.CallFrames) > 0 {
			top := p.CallFrames[0]
			s.Exec.Function = top.FunctionName
			s.Exec.Location = fmt.Sprintf("%s:%d:%d", s.scriptName(top.Location.ScriptID), top.Location.LineNumber, top.Location.ColumnNumber)
		}

	case bridge.NotifyResumed:
		s.Exec = ExecState{Known: true, Since: e.At}

	case bridge.NotifyScriptParsed:
		var p bridge.ScriptParsedEvent
		if json.Unmarshal(e.Data, &p) == nil {
			s.Scripts[p.ScriptID] = p.URL
		}

	case bridge.NotifyConsole:
		s.Warnings++

	case bridge.EventCommand:
		var c bridge.CommandEvent
		if json.Unmarshal(e.Data, &c) != nil {
			return
		}
		s.Commands = append([]CommandRow{{
			At:       e.At,
			Method:   c.Method,
			Duration: time.Duration(c.DurationMS) * time.Millisecond,
			Error:    c.Error,
		}}, s.Commands...)
		if len(s.Commands) > maxCommands {
			s.Commands = s.Commands[:maxCommands]
		}
	}
}

func (s *State) scriptName(id string) string {
	if url, ok := s.Scripts[id]; ok && url != "" {
		return url
	}
	return "script " + id
}
