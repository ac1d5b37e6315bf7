package dispatch

import (
	"fmt"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

func (d *Dispatcher) pause(c *Call) (Result, error) {
	if !d.debuggee.Running() {
		return Result{}, nil
	}
	d.debuggee.SetPauseOnNextStatement(true)
	return Result{}, nil
}

// resume releases the backtrace object group, announces the resume and lets the
// debuggee run.
func (d *Dispatcher) resume(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}
	d.debuggee.ReleaseObjectGroup(backtraceObjectGroup)
	d.emit("Debugger.resumed", nil)
	return Result{Running: true}, nil
}

// stepOver degrades to stepInto when the top frame sits on its return point;
// stepping over there would silently skip the return edge.
func (d *Dispatcher) stepOver(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}

	if top := d.debuggee.CallFrames(1, 0); len(top) > 0 && top[0].IsAtReturn {
		return d.stepInto(c)
	}
	return d.step(c, StepNext)
}

func (d *Dispatcher) stepInto(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}
	return d.step(c, StepIn)
}

func (d *Dispatcher) stepOut(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}
	return d.step(c, StepOut)
}

func (d *Dispatcher) step(c *Call, action StepAction) (Result, error) {
	res, err := d.resume(c)
	if err != nil {
		return res, err
	}
	d.debuggee.PrepareStep(action)
	return res, nil
}

func (d *Dispatcher) getBacktrace(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}
	return Result{Body: protocol.BacktraceResult{CallFrames: d.wrapCallFrames(d.stackTraceLimit)}}, nil
}

func (d *Dispatcher) restartFrame(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}

	callFrameID, err := c.String("callFrameId")
	if err != nil {
		return Result{}, err
	}
	if callFrameID == "" {
		return Result{}, fmt.Errorf("callFrameId is required: %w", protocol.ErrInvalidArgument)
	}

	if err := d.debuggee.RestartFrame(d.wrapCallFrames(d.stackTraceLimit), callFrameID); err != nil {
		return Result{}, fmt.Errorf("restart frame %s: %w", callFrameID, err)
	}
	return d.getBacktrace(c)
}
