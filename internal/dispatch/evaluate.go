package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

type functionDetailsResult struct {
	Details json.RawMessage `json:"details"`
}

type setVariableError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (d *Dispatcher) evaluateOnCallFrame(c *Call) (Result, error) {
	if d.debuggee.Running() {
		return Result{}, nil
	}

	var req EvaluateRequest
	if err := c.Object(&req); err != nil {
		return Result{}, err
	}

	frames := d.wrapCallFrames(d.debuggee.FrameCount())
	body, err := d.eval.EvaluateOnCallFrame(frames, req)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate on call frame %s: %w", req.CallFrameID, err)
	}
	return Result{Body: body}, nil
}

func (d *Dispatcher) getFunctionDetails(c *Call) (Result, error) {
	functionID, err := c.String("functionId")
	if err != nil {
		return Result{}, err
	}

	details, err := d.eval.GetFunctionDetails(functionID)
	if err != nil {
		return Result{}, fmt.Errorf("function details %s: %w", functionID, err)
	}
	return Result{Body: functionDetailsResult{Details: details}}, nil
}

// setVariableValue reports engine refusals in the response body rather than as
// a command failure.
func (d *Dispatcher) setVariableValue(c *Call) (Result, error) {
	setter, ok := d.eval.(VariableSetter)
	if !ok {
		return Result{}, fmt.Errorf("setting variable values: %w", protocol.ErrUnsupported)
	}
	if d.debuggee.Running() {
		return Result{}, nil
	}

	var req SetVariableRequest
	if err := c.Object(&req); err != nil {
		return Result{}, err
	}

	frames := d.wrapCallFrames(d.debuggee.FrameCount())
	if err := setter.SetVariableValue(frames, req); err != nil {
		var body setVariableError
		body.Error.Message = err.Error()
		return Result{Body: body}, nil
	}
	return Result{}, nil
}
