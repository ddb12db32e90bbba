package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server holds the HTTP interface, the dataset registry and the task
// manager for background graph builds.
type Server struct {
	store       *Store
	taskManager *TaskManager

	defaults       Config
	authToken      string
	asyncThreshold int

	httpServer *http.Server
}

// NewServer initializes the HTTP server from a configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		store:          NewStore(),
		taskManager:    NewTaskManager(),
		defaults:       cfg,
		authToken:      cfg.AuthToken,
		asyncThreshold: cfg.AsyncThreshold,
	}
	if s.asyncThreshold <= 0 {
		s.asyncThreshold = DefaultConfig().AsyncThreshold
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux.
	// Order matters: Recovery must be outer-most to catch everything.
	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	// Health and metrics stay outside authentication so probes and
	// scrapers need no token.
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", s.handleMetrics())
	rootMux.Handle("/", handler)

	s.httpServer = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: rootMux,
	}
	return s
}

// Handler exposes the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Store exposes the dataset registry, shared with the MCP surface.
func (s *Server) Store() *Store {
	return s.store
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() {
	slog.Info("Starting graceful shutdown of HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}
