package api

import (
	"encoding/json"
	"net/http"
	"time"
)

const targetID = "debugbridge"

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Enabled:       s.agent.Enabled(),
		Scripts:       s.agent.Registry().Len(),
		Sessions:      s.sessions.Load(),
	})
}

// handleTargets lists the single debuggee in the shape DevTools front ends
// poll for.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	wsAddr := r.Host + "/ws"
	respondJSON(w, http.StatusOK, []Target{{
		Description:          "debugbridge session",
		DevtoolsFrontendURL:  "devtools://devtools/bundled/inspector.html?ws=" + wsAddr,
		ID:                   targetID,
		Title:                "debugbridge",
		Type:                 "node",
		URL:                  "file://",
		WebSocketDebuggerURL: "ws://" + wsAddr,
	}})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, VersionResponse{
		Browser:         "debugbridge/" + s.config.Version,
		ProtocolVersion: "1.1",
	})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.config.Version))
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
