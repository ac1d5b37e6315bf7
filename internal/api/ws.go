package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mattjoyce/debugbridge/internal/bridge"
	"github.com/mattjoyce/debugbridge/internal/events"
	"github.com/mattjoyce/debugbridge/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// DevTools front ends connect from devtools:// and chrome-extension origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// notified reports whether a hub event is a front-end notification.
func notified(ev events.Event) bool {
	switch ev.Domain() {
	case "Debugger", "Console":
		return true
	}
	return false
}

// frontendConn serializes writes to one websocket.
type frontendConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *frontendConn) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket serves one front-end session. Commands run concurrently;
// responses and notifications share the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	session := bridge.NewSession(s.agent, s.hub, bridge.WithRequestTimeout(s.config.RequestTimeout))
	logger := s.logger.With("session", session.ID(), "remote", r.RemoteAddr)
	s.sessions.Add(1)
	defer s.sessions.Add(-1)
	logger.Info("front end attached")
	defer logger.Info("front end detached")

	conn := &frontendConn{conn: ws}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	feed, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case ev, ok := <-feed:
				if !ok {
					return
				}
				if !notified(ev) {
					continue
				}
				note := protocol.FrontendNotification{Method: ev.Type, Params: ev.Data}
				if err := conn.send(note); err != nil {
					logger.Debug("notification write failed", "error", err)
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		req, err := protocol.DecodeFrontendRequest(message)
		if err != nil {
			logger.Warn("dropping malformed command", "error", err)
			continue
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			resp := protocol.FrontendResponse{ID: req.ID}
			result, err := session.Handle(ctx, req.Method, req.Params)
			if err != nil {
				resp.Error = protocol.NewErrorResponse(err)
			} else {
				resp.Result = result
			}
			if err := conn.send(resp); err != nil {
				logger.Debug("response write failed", "method", req.Method, "error", err)
			}
		}()
	}
}
