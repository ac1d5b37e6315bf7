// Package api serves the front-end side of the bridge over HTTP: the
// debugger websocket, DevTools target discovery, health and an SSE stream of
// bridge events.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/mattjoyce/debugbridge/internal/bridge"
	"github.com/mattjoyce/debugbridge/internal/events"
)

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey protects /events when set.
	APIKey string
	// RequestTimeout bounds each front-end command.
	RequestTimeout time.Duration
	// Version is reported by /json/version.
	Version string
}

// Server is the front-end HTTP server.
type Server struct {
	config    Config
	agent     *bridge.Agent
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
	sessions  atomic.Int64
}

// New creates a Server bound to one Agent. Notifications published on hub
// reach every connected front end.
func New(config Config, agent *bridge.Agent, hub *events.Hub, logger *slog.Logger) *Server {
	if config.Version == "" {
		config.Version = "dev"
	}
	return &Server{
		config:    config,
		agent:     agent,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        s.config.Listen,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsPolicy().Handler)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/json", s.handleTargets)
	r.Get("/json/list", s.handleTargets)
	r.Get("/json/version", s.handleVersion)
	r.Get("/openapi.json", s.handleOpenAPI)
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// corsPolicy lets browser-hosted front ends read discovery and the event
// stream from another origin.
func corsPolicy() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Last-Event-ID"},
		MaxAge:         600,
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
