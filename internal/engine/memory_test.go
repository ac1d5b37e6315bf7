package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/debugbridge/internal/dispatch"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

type recorded struct {
	event string
	body  any
}

func newRecordingMemory() (*Memory, *[]recorded) {
	m := NewMemory()
	var events []recorded
	m.SetEmitter(func(event string, body any) {
		events = append(events, recorded{event, body})
	})
	return m, &events
}

func TestMemory_AddScriptEmitsAfterCompile(t *testing.T) {
	m, events := newRecordingMemory()

	m.AddScript(protocol.Script{ID: 3, Name: "/a.js", Source: "x\ny\nz\n"})

	require.Len(t, *events, 1)
	assert.Equal(t, protocol.EventAfterCompile, (*events)[0].event)
	scripts := m.Scripts()
	require.Len(t, scripts, 1)
	assert.Equal(t, 3, scripts[0].LineCount)
}

func TestMemory_SetBreakpointHonoursRangeAndDeclines(t *testing.T) {
	m := NewMemory()
	m.AddScript(protocol.Script{ID: 1, Name: "/a.js", LineOffset: 0, LineCount: 10})
	m.AddScript(protocol.Script{ID: 2, Name: "/b.js", LineOffset: 0, LineCount: 10})
	m.Decline(2)

	id, ok := m.SetBreakpoint(dispatch.BreakpointSpec{ScriptID: 1, Line: 4})
	require.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = m.SetBreakpoint(dispatch.BreakpointSpec{ScriptID: 1, Line: 40})
	assert.False(t, ok)
	_, ok = m.SetBreakpoint(dispatch.BreakpointSpec{ScriptID: 2, Line: 4})
	assert.False(t, ok)
	_, ok = m.SetBreakpoint(dispatch.BreakpointSpec{ScriptID: 99, Line: 4})
	assert.False(t, ok)

	require.NoError(t, m.ChangeBreakpoint(id, false))
	assert.False(t, m.ListBreakpoints()[0].Active)
	assert.ErrorIs(t, m.ChangeBreakpoint(42, true), protocol.ErrNotFound)

	m.RemoveBreakpoint(id)
	assert.Empty(t, m.ListBreakpoints())
}

func TestMemory_PauseResumeAndStep(t *testing.T) {
	m, events := newRecordingMemory()
	frames := []protocol.CallFrame{{CallFrameID: "0"}, {CallFrameID: "1"}, {CallFrameID: "2"}}

	m.Pause(frames, 5)
	assert.False(t, m.Running())
	assert.Equal(t, 3, m.FrameCount())
	assert.Equal(t, frames[1:2], m.CallFrames(1, 1))
	assert.Empty(t, m.CallFrames(10, 5))

	require.Len(t, *events, 1)
	assert.Equal(t, protocol.BreakEvent{Breakpoints: []int{5}}, (*events)[0].body)

	m.PrepareStep(dispatch.StepOut)
	m.Resume()
	assert.True(t, m.Running())
	step, ok := m.LastStep()
	require.True(t, ok)
	assert.Equal(t, dispatch.StepOut, step)
}

func TestMemory_RestartFrame(t *testing.T) {
	m := NewMemory()
	frames := []protocol.CallFrame{{CallFrameID: "0"}, {CallFrameID: "1"}}
	m.Pause(frames)

	require.NoError(t, m.RestartFrame(frames, "1"))
	assert.Equal(t, frames[1:], m.CallFrames(10, 0))
	assert.ErrorIs(t, m.RestartFrame(frames, "7"), protocol.ErrNotFound)
}

func TestMemory_ChangeLive(t *testing.T) {
	m := NewMemory()
	m.AddScript(protocol.Script{ID: 1, Name: "/a.js", Source: "old\n"})
	m.SetLiveEditResult(protocol.LiveEditResult{StackModified: true, Updated: true})

	res, err := m.ChangeLive(1, "new\nnew\n", true)
	require.NoError(t, err)
	assert.True(t, res.StackModified)
	src, _ := m.Source(1)
	assert.Equal(t, "old\n", src)

	_, err = m.ChangeLive(1, "new\nnew\n", false)
	require.NoError(t, err)
	src, _ = m.Source(1)
	assert.Equal(t, "new\nnew\n", src)

	_, err = m.ChangeLive(9, "", false)
	assert.ErrorIs(t, err, protocol.ErrNotFound)
}

func TestMemory_ExceptionBreaks(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.SetExceptionBreak("all", true))
	require.NoError(t, m.SetExceptionBreak("uncaught", false))
	all, uncaught := m.ExceptionBreaks()
	assert.True(t, all)
	assert.False(t, uncaught)

	assert.ErrorIs(t, m.SetExceptionBreak("sometimes", true), protocol.ErrInvalidArgument)

	boom := errors.New("boom")
	m.FailExceptionBreak("uncaught", boom)
	assert.ErrorIs(t, m.SetExceptionBreak("uncaught", true), boom)
}

func TestMemory_EvaluateAndSetVariable(t *testing.T) {
	m := NewMemory()
	frames := []protocol.CallFrame{{CallFrameID: "0"}}
	m.SetVariable("0", "x", json.RawMessage(`{"type":"number","value":1}`), false)
	m.SetVariable("0", "k", json.RawMessage(`{"type":"number","value":2}`), true)

	out, err := m.EvaluateOnCallFrame(frames, dispatch.EvaluateRequest{CallFrameID: "0", Expression: " x "})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"type":"number","value":1}}`, string(out))

	out, err = m.EvaluateOnCallFrame(frames, dispatch.EvaluateRequest{CallFrameID: "0", Expression: "nope"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"type":"undefined"}}`, string(out))

	_, err = m.EvaluateOnCallFrame(frames, dispatch.EvaluateRequest{CallFrameID: "3", Expression: "x"})
	assert.ErrorIs(t, err, protocol.ErrNotFound)

	require.NoError(t, m.SetVariableValue(frames, dispatch.SetVariableRequest{
		CallFrameID: "0", VariableName: "x", NewValue: json.RawMessage(`{"value":9}`),
	}))
	out, err = m.EvaluateOnCallFrame(frames, dispatch.EvaluateRequest{CallFrameID: "0", Expression: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"value":9}}`, string(out))

	assert.Error(t, m.SetVariableValue(frames, dispatch.SetVariableRequest{CallFrameID: "0", VariableName: "k"}))
}

func TestMemory_GetFunctionDetails(t *testing.T) {
	m := NewMemory()
	m.DefineFunction("fn:1", json.RawMessage(`{"functionName":"f"}`))

	details, err := m.GetFunctionDetails("fn:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"functionName":"f"}`, string(details))

	_, err = m.GetFunctionDetails("fn:2")
	assert.ErrorIs(t, err, protocol.ErrNotFound)
}
