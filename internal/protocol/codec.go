package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodeRequest serializes a backend Request to JSON and writes it to w.
// Returns an error if the envelope is invalid or writing fails.
func EncodeRequest(w io.Writer, req *Request) error {
	if req.Type != TypeRequest {
		return fmt.Errorf("unsupported message type: %q", req.Type)
	}
	if req.Command == "" {
		return fmt.Errorf("request missing required field: command")
	}

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(req); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	return nil
}

// DecodeRequest reads and validates a backend Request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields() // Strict parsing

	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}

	if req.Type != TypeRequest {
		return nil, fmt.Errorf("invalid type value: %q (must be 'request')", req.Type)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request missing required field: command")
	}

	return &req, nil
}

// EncodeResponse serializes a backend Response to JSON and writes it to w.
func EncodeResponse(w io.Writer, resp *Response) error {
	if resp.Type != TypeResponse {
		return fmt.Errorf("unsupported message type: %q", resp.Type)
	}
	if !resp.Success && resp.Message == "" {
		return fmt.Errorf("response has success=false but no message")
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// DecodeMessage decodes an incoming backend message, returning either a
// *Response or an *Event.
func DecodeMessage(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty backend message")
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("backend message is not valid JSON: %w", err)
	}

	switch env.Type {
	case TypeResponse:
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if resp.RequestSeq <= 0 {
			return nil, fmt.Errorf("response missing required field: request_seq")
		}
		// If success is false, a message should be present
		if !resp.Success && resp.Message == "" {
			return nil, fmt.Errorf("response has success=false but no message")
		}
		return &resp, nil

	case TypeEvent:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		if ev.Event == "" {
			return nil, fmt.Errorf("event missing required field: event")
		}
		return &ev, nil

	case "":
		return nil, fmt.Errorf("backend message missing required field: type")
	default:
		return nil, fmt.Errorf("invalid type value: %q", env.Type)
	}
}

// DecodeFrontendRequest decodes a front-end command.
func DecodeFrontendRequest(data []byte) (*FrontendRequest, error) {
	var req FrontendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("front-end message is not valid JSON: %w", err)
	}
	if req.Method == "" {
		return nil, fmt.Errorf("front-end request missing required field: method")
	}
	return &req, nil
}

// Err converts a failed Response into a *BackendError. Returns nil on success.
func (r *Response) Err() error {
	if r.Success {
		return nil
	}
	return &BackendError{Command: r.Command, Message: r.Message, Kind: r.Code}
}
