package tui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/debugbridge/internal/bridge"
	"github.com/mattjoyce/debugbridge/internal/events"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

func ev(t *testing.T, id int64, typ string, data any) events.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return events.Event{ID: id, Type: typ, At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Data: raw}
}

func TestState_PauseResume(t *testing.T) {
	s := NewState()
	s.Apply(ev(t, 1, bridge.NotifyScriptParsed, bridge.ScriptParsedEvent{ScriptID: "4", URL: "file:///srv/app.js"}))
	s.Apply(ev(t, 2, bridge.NotifyPaused, bridge.PausedEvent{
		Reason:         "other",
		HitBreakpoints: []string{"2"},
		CallFrames: []protocol.CallFrame{
			{FunctionName: "handler", Location: protocol.Location{ScriptID: "4", LineNumber: 12, ColumnNumber: 3}},
			{FunctionName: "main"},
		},
	}))

	assert.True(t, s.Exec.Known)
	assert.True(t, s.Exec.Paused)
	assert.Equal(t, "handler", s.Exec.Function)
	assert.Equal(t, "file:///srv/app.js:12:3", s.Exec.Location)
	assert.Equal(t, 2, s.Exec.Frames)
	assert.Equal(t, []string{"2"}, s.Exec.HitBreakpoints)

	s.Apply(ev(t, 3, bridge.NotifyResumed, struct{}{}))
	assert.True(t, s.Exec.Known)
	assert.False(t, s.Exec.Paused)
	assert.Len(t, s.EventLog, 3)
	assert.Equal(t, int64(3), s.EventLog[0].ID)
}

func TestState_CommandsAndWarnings(t *testing.T) {
	s := NewState()
	for i := range maxCommands + 5 {
		s.Apply(ev(t, int64(i+1), bridge.EventCommand, bridge.CommandEvent{Method: "Debugger.pause", DurationMS: 3}))
	}
	s.Apply(ev(t, 100, bridge.EventCommand, bridge.CommandEvent{Method: "Debugger.nope", Error: "unknown command"}))
	s.Apply(ev(t, 101, bridge.NotifyConsole, bridge.ConsoleEvent{}))

	require.Len(t, s.Commands, maxCommands)
	assert.Equal(t, "Debugger.nope", s.Commands[0].Method)
	assert.Equal(t, "unknown command", s.Commands[0].Error)
	assert.Equal(t, 3*time.Millisecond, s.Commands[1].Duration)
	assert.Equal(t, 1, s.Warnings)
	assert.Len(t, s.EventLog, maxEventLog)
}

func TestState_UnknownScriptLocation(t *testing.T) {
	s := NewState()
	s.Apply(ev(t, 1, bridge.NotifyPaused, bridge.PausedEvent{
		Reason:     "exception",
		CallFrames: []protocol.CallFrame{{FunctionName: "f", Location: protocol.Location{ScriptID: "9", LineNumber: 1}}},
	}))
	assert.Equal(t, "script 9:1:0", s.Exec.Location)
	assert.Equal(t, "exception", s.Exec.Reason)
}

func TestReadSSE(t *testing.T) {
	stream := strings.Join([]string{
		": keep-alive",
		"",
		"id: 7",
		"event: Debugger.resumed",
		"data: {}",
		"",
		"id: 8",
		"event: bridge.command",
		`data: {"method":"Debugger.enable"}`,
		"",
	}, "\n")

	var got []events.Event
	require.NoError(t, readSSE(strings.NewReader(stream), func(e events.Event) { got = append(got, e) }))
	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "Debugger.resumed", got[0].Type)
	assert.Equal(t, "Debugger.enable", eventSummary(got[1]))
}

func TestEventSummary(t *testing.T) {
	warn := ev(t, 1, bridge.NotifyConsole, map[string]any{"message": map[string]any{"text": "first\nsecond"}})
	assert.Equal(t, "first", eventSummary(warn))

	paused := ev(t, 2, bridge.NotifyPaused, map[string]any{"reason": "other"})
	assert.Equal(t, "other", eventSummary(paused))

	long := events.Event{Data: json.RawMessage(`{"x":"` + strings.Repeat("a", 80) + `"}`)}
	assert.True(t, strings.HasSuffix(eventSummary(long), "..."))
}

func TestSpinnerDecay(t *testing.T) {
	var s Spinner
	start := time.Now()
	s.OnEvent(start)
	s.Decay(start.Add(3 * time.Second))
	assert.Equal(t, 4, s.dots)
	s.Decay(start.Add(11 * time.Second))
	assert.Equal(t, 0, s.dots)
}

func TestModel_UpdateAndView(t *testing.T) {
	m := NewMonitor("http://127.0.0.1:0", "")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model := next.(Model)
	assert.Contains(t, model.View(), "DEBUGBRIDGE MONITOR")

	next, _ = model.Update(eventMsg(ev(t, 1, bridge.NotifyPaused, bridge.PausedEvent{Reason: "other"})))
	model = next.(Model)
	assert.True(t, model.health.Connected)
	assert.Contains(t, model.View(), "PAUSED")

	next, _ = model.Update(eventMsg(ev(t, 2, bridge.EventCommand, bridge.CommandEvent{Method: "Debugger.resume"})))
	model = next.(Model)
	assert.Contains(t, model.View(), "Debugger.resume")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
