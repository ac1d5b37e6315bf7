package bridge

import (
	"context"
	"encoding/json"
)

// enable synchronizes with the debuggee on the session's first call. Later
// calls succeed without touching the backend.
func (s *Session) enable(ctx context.Context, _ string, _ json.RawMessage) (any, error) {
	s.mu.Lock()
	if s.state != disabled {
		s.mu.Unlock()
		return nil, nil
	}
	s.state = enabling
	s.mu.Unlock()

	err := s.agent.Enable(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = disabled
		return nil, err
	}
	s.state = enabled
	s.logger.Debug("session enabled", "state", s.state)
	return nil, nil
}

func (s *Session) continueToLocation(ctx context.Context, method string, params json.RawMessage) (any, error) {
	var p struct {
		Location LocationParams `json:"location"`
	}
	if err := decodeParams(method, params, &p); err != nil {
		return nil, err
	}
	return nil, s.agent.ContinueToLocation(ctx, p.Location)
}

func (s *Session) getScriptSource(_ context.Context, method string, params json.RawMessage) (any, error) {
	var p struct {
		ScriptID string `json:"scriptId"`
	}
	if err := decodeParams(method, params, &p); err != nil {
		return nil, err
	}
	return s.agent.GetScriptSource(p.ScriptID)
}

func (s *Session) setScriptSource(ctx context.Context, method string, params json.RawMessage) (any, error) {
	var p struct {
		ScriptID     string `json:"scriptId"`
		ScriptSource string `json:"scriptSource"`
	}
	if err := decodeParams(method, params, &p); err != nil {
		return nil, err
	}
	return s.agent.SetScriptSource(ctx, p.ScriptID, p.ScriptSource)
}

func (s *Session) setPauseOnExceptions(ctx context.Context, method string, params json.RawMessage) (any, error) {
	var p struct {
		State string `json:"state"`
	}
	if err := decodeParams(method, params, &p); err != nil {
		return nil, err
	}
	return nil, s.agent.SetPauseOnExceptions(ctx, p.State)
}

func (s *Session) setSkipAllPauses(_ context.Context, method string, params json.RawMessage) (any, error) {
	var p struct {
		Skipped bool `json:"skipped"`
	}
	if err := decodeParams(method, params, &p); err != nil {
		return nil, err
	}
	return nil, s.agent.SetSkipAllPauses(p.Skipped)
}

func (s *Session) forward(ctx context.Context, method string, params json.RawMessage) (any, error) {
	body, err := s.agent.Forward(ctx, method, params)
	if err != nil || len(body) == 0 {
		return nil, err
	}
	return body, nil
}
