package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ServeHTTP upgrades the request to a websocket and serves backend requests
// from a single bridge. A second concurrent connection is refused.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.connected.CompareAndSwap(false, true) {
		http.Error(w, "debuggee already has a bridge attached", http.StatusConflict)
		return
	}
	defer h.connected.Store(false)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("remote", r.RemoteAddr)
	logger.Info("bridge attached")
	defer logger.Info("bridge detached")

	var writeMu sync.Mutex
	write := func(data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	events, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					logger.Error("cannot encode event", "event", ev.Event, "error", err)
					continue
				}
				if err := write(data); err != nil {
					logger.Debug("event write failed", "error", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		req, err := protocol.DecodeRequest(message)
		if err != nil {
			logger.Warn("dropping malformed request", "error", err)
			continue
		}

		resp, err := h.Do(r.Context(), req)
		if err != nil {
			return
		}

		var buf bytes.Buffer
		if err := protocol.EncodeResponse(&buf, resp); err != nil {
			logger.Error("cannot encode response", "command", req.Command, "error", err)
			continue
		}
		if err := write(buf.Bytes()); err != nil {
			logger.Debug("response write failed", "error", err)
			return
		}
	}
}
