package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/selah-app/selah-server/internal/config"
)

// Server wraps the HTTP server and its router.
type Server struct {
	config   config.ServerConfig
	handlers *Handlers
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates the API server around a fully wired Handlers.
func NewServer(cfg config.Config, handlers *Handlers) *Server {
	router := SetupRoutes(handlers, cfg.CORS.AllowedOrigins)
	return &Server{
		config:   cfg.Server,
		handlers: handlers,
		router:   router,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("API server listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}
