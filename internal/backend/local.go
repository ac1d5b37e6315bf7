package backend

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Local is an in-process Client for a Host.
type Local struct {
	host *Host
	seq  atomic.Int64
}

func NewLocal(h *Host) *Local {
	return &Local{host: h}
}

func (l *Local) Request(ctx context.Context, command string, args any) (json.RawMessage, error) {
	raw, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}
	resp, err := l.host.Do(ctx, &protocol.Request{
		Seq:       l.seq.Add(1),
		Type:      protocol.TypeRequest,
		Command:   command,
		Arguments: raw,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Ready returns immediately; an in-process host is always ready.
func (l *Local) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (l *Local) Running(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.host.Running(), nil
}

func (l *Local) Subscribe() (<-chan protocol.Event, func()) {
	return l.host.Subscribe()
}
