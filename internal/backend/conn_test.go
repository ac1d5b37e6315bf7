package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConn_RoundTrip(t *testing.T) {
	mem, host, _ := newLocal(t)
	srv := httptest.NewServer(host)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := NewConn(wsURL(srv), WithRetryInterval(10*time.Millisecond))
	require.NoError(t, conn.Start(ctx))
	defer conn.Close()

	require.NoError(t, conn.Ready(ctx))
	running, err := conn.Running(ctx)
	require.NoError(t, err)
	assert.True(t, running)

	body, err := conn.Request(ctx, "Debugger.setBreakpointByUrl", map[string]any{"url": "/srv/app.js", "lineNumber": 2})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"breakpointId":"/srv/app.js:2:0"`)

	_, err = conn.Request(ctx, "Debugger.setBreakpointByUrl", map[string]any{"url": "/srv/app.js", "lineNumber": 2})
	assert.ErrorIs(t, err, protocol.ErrAlreadyExists)

	events, stop := conn.Subscribe()
	defer stop()
	mem.Pause([]protocol.CallFrame{{CallFrameID: "0"}}, 1)

	ev := nextEvent(t, events)
	assert.Equal(t, protocol.EventBreak, ev.Event)
	var brk protocol.BreakEvent
	require.NoError(t, json.Unmarshal(ev.Body, &brk))
	assert.Equal(t, []int{1}, brk.Breakpoints)

	running, err = conn.Running(ctx)
	require.NoError(t, err)
	assert.False(t, running)

	_, err = conn.Request(ctx, "Debugger.resume", nil)
	require.NoError(t, err)
	running, err = conn.Running(ctx)
	require.NoError(t, err)
	assert.True(t, running)
}

func TestConn_ReadySeesSeededRunningFlag(t *testing.T) {
	_, host, _ := newLocal(t)
	srv := httptest.NewServer(host)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := NewConn(wsURL(srv), WithRetryInterval(10*time.Millisecond))
	startErr := make(chan error, 1)
	go func() { startErr <- conn.Start(ctx) }()
	defer conn.Close()

	require.NoError(t, conn.Ready(ctx))
	running, err := conn.Running(ctx)
	require.NoError(t, err)
	assert.True(t, running)
	require.NoError(t, <-startErr)
}

func TestConn_ReadyWaitsForStatus(t *testing.T) {
	var upgrader websocket.Upgrader
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
			select {
			case received <- struct{}{}:
			default:
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := NewConn(wsURL(srv))
	startErr := make(chan error, 1)
	go func() { startErr <- conn.Start(ctx) }()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("status request not sent")
	}

	readyCtx, readyCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer readyCancel()
	assert.ErrorIs(t, conn.Ready(readyCtx), context.DeadlineExceeded)

	cancel()
	assert.Error(t, <-startErr)
	assert.NoError(t, conn.Close())
}

func TestConn_SecondBridgeRefused(t *testing.T) {
	_, host, _ := newLocal(t)
	srv := httptest.NewServer(host)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := NewConn(wsURL(srv))
	require.NoError(t, first.Start(ctx))
	defer first.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestConn_RequestBeforeStart(t *testing.T) {
	conn := NewConn("ws://127.0.0.1:1")

	_, err := conn.Request(context.Background(), protocol.CmdStatus, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, conn.Close())
}

func TestConn_StartGivesUpWithContext(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	conn := NewConn(url, WithRetryInterval(10*time.Millisecond))
	assert.Error(t, conn.Start(ctx))
}

func TestConn_CloseFailsPending(t *testing.T) {
	_, host, _ := newLocal(t)
	srv := httptest.NewServer(host)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := NewConn(wsURL(srv))
	require.NoError(t, conn.Start(ctx))
	require.NoError(t, conn.Close())

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop")
	}
	_, err := conn.Request(ctx, protocol.CmdStatus, nil)
	assert.Error(t, err)
}
