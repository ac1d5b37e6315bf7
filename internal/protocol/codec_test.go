package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
		checkFn func(t *testing.T, output string)
	}{
		{
			name: "valid scripts request",
			req: &Request{
				Seq:       7,
				Type:      TypeRequest,
				Command:   "scripts",
				Arguments: json.RawMessage(`{"includeSource":true,"types":4}`),
			},
			checkFn: func(t *testing.T, output string) {
				if !strings.Contains(output, `"seq":7`) {
					t.Error("missing seq field")
				}
				if !strings.Contains(output, `"command":"scripts"`) {
					t.Error("missing command field")
				}
				if !strings.Contains(output, `"includeSource":true`) {
					t.Error("missing arguments")
				}
			},
		},
		{
			name:    "wrong type",
			req:     &Request{Seq: 1, Type: TypeEvent, Command: "continue"},
			wantErr: true,
		},
		{
			name:    "missing command",
			req:     &Request{Seq: 1, Type: TypeRequest},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeRequest(&buf, tt.req)

			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, buf.String())
			}
		})
	}
}

func TestDecodeRequestStrict(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"seq":1,"type":"request","command":"continue","extra":1}`)); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
	req, err := DecodeRequest([]byte(`{"seq":3,"type":"request","command":"Debugger.pause"}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Seq != 3 || req.Command != "Debugger.pause" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, msg any)
	}{
		{
			name:  "success response",
			input: `{"seq":2,"type":"response","request_seq":1,"command":"scripts","success":true,"running":false,"body":[]}`,
			check: func(t *testing.T, msg any) {
				resp, ok := msg.(*Response)
				if !ok {
					t.Fatalf("expected *Response, got %T", msg)
				}
				if resp.RequestSeq != 1 || resp.Command != "scripts" {
					t.Errorf("unexpected response: %+v", resp)
				}
				if resp.Err() != nil {
					t.Errorf("Err() = %v, want nil", resp.Err())
				}
			},
		},
		{
			name:  "event",
			input: `{"seq":9,"type":"event","event":"break","body":{"breakpoints":[1]}}`,
			check: func(t *testing.T, msg any) {
				ev, ok := msg.(*Event)
				if !ok {
					t.Fatalf("expected *Event, got %T", msg)
				}
				if ev.Event != "break" {
					t.Errorf("event = %q", ev.Event)
				}
			},
		},
		{
			name:    "failed response without message",
			input:   `{"seq":2,"type":"response","request_seq":1,"command":"x","success":false}`,
			wantErr: true,
		},
		{
			name:    "response without request_seq",
			input:   `{"seq":2,"type":"response","command":"x","success":true}`,
			wantErr: true,
		},
		{
			name:    "event without name",
			input:   `{"seq":2,"type":"event"}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			input:   `{"seq":2}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   `{"seq":2,"type":"banana"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `hello`,
			wantErr: true,
		},
		{
			name:    "empty",
			input:   ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

func TestResponseErrKeepsTaxonomy(t *testing.T) {
	resp := &Response{
		Type:       TypeResponse,
		RequestSeq: 1,
		Command:    "Debugger.setBreakpointByUrl",
		Message:    "Breakpoint at specified location already exists.",
		Code:       KindOf(fmt.Errorf("wrapped: %w", ErrAlreadyExists)),
	}

	err := resp.Err()
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Command != "Debugger.setBreakpointByUrl" {
		t.Fatalf("expected BackendError, got %#v", err)
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(fmt.Errorf("x: %w", ErrUnknownCommand)); got != CodeMethodNotFound {
		t.Errorf("unknown command code = %d", got)
	}
	if got := ErrorCode(fmt.Errorf("x: %w", ErrInvalidArgument)); got != CodeInvalidParams {
		t.Errorf("invalid argument code = %d", got)
	}
	if got := ErrorCode(errors.New("boom")); got != CodeServerError {
		t.Errorf("generic code = %d", got)
	}
	if KindOf(errors.New("boom")) != "" {
		t.Error("plain error should have no kind")
	}
}

func TestScriptCovers(t *testing.T) {
	s := Script{ID: 1, Name: "/app/a.js", LineOffset: 10, LineCount: 5}
	if !s.Covers(12) {
		t.Error("expected line 12 to be covered")
	}
	if !s.Covers(15) {
		t.Error("expected end line 15 to be covered")
	}
	if s.Covers(20) {
		t.Error("expected line 20 to be outside")
	}
	if s.Covers(9) {
		t.Error("expected line 9 to be outside")
	}
}

func TestSplitMethod(t *testing.T) {
	d, c := SplitMethod("Debugger.enable")
	if d != "Debugger" || c != "enable" {
		t.Fatalf("got %q %q", d, c)
	}
	d, c = SplitMethod("enable")
	if d != "" || c != "enable" {
		t.Fatalf("got %q %q", d, c)
	}
}

func TestDecodeFrontendRequest(t *testing.T) {
	req, err := DecodeFrontendRequest([]byte(`{"id":4,"method":"Debugger.pause"}`))
	if err != nil {
		t.Fatalf("DecodeFrontendRequest: %v", err)
	}
	if req.ID != 4 || req.Method != "Debugger.pause" {
		t.Fatalf("unexpected: %+v", req)
	}
	if _, err := DecodeFrontendRequest([]byte(`{"id":4}`)); err == nil {
		t.Fatal("expected missing method error")
	}
}
