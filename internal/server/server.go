// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     server
// Description: HTTP and WebSocket front end for calculator sessions
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/msto63/rechenwerk/internal/agent"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/journal"
	"github.com/msto63/rechenwerk/pkg/core/health"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// Server serves calculator sessions over HTTP and WebSocket
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	deps       Deps
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Version        string
	AllowedOrigins []string
	HealthTimeout  time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          9300,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		Version:       "0.1.0",
		HealthTimeout: 5 * time.Second,
	}
}

// Deps are the collaborators a server needs
type Deps struct {
	// NewSession creates the session bound to one connection or request
	NewSession func() (*dispatch.Session, error)
	// NewAgent binds a model to a session. Nil disables "ask".
	NewAgent func(*dispatch.Session) (*agent.Agent, error)
	// Health is served on /health. A registry with no checks is used when nil.
	Health *health.Registry
	// Journal backs /api/v1/journal. Nil disables the route.
	Journal *journal.Store
}

// New creates a new server
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.NewSession == nil {
		return nil, errors.New("server: session factory is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewRegistry("rechenwerk", cfg.Version)
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}

	logger := logging.New("server")

	api := &apiHandler{deps: deps, version: cfg.Version, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /health", deps.Health.Handler(cfg.HealthTimeout))
	mux.Handle("/ws", NewWebSocketHandler(deps, cfg.AllowedOrigins))
	mux.HandleFunc("POST /api/v1/calc", api.handleCalc)
	mux.HandleFunc("GET /api/v1/operations", api.handleOperations)
	mux.HandleFunc("GET /api/v1/version", api.handleVersion)
	if deps.Journal != nil {
		mux.HandleFunc("GET /api/v1/journal", api.handleJournal)
	}

	handler := loggingMiddleware(logger, mux)

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		deps:    deps,
		logger:  logger,
		config:  cfg,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher
func (w *responseWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker for the WebSocket upgrade
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Handler returns the root handler, including middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting calculator server",
		"host", s.config.Host,
		"port", s.config.Port,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting calculator server (async)",
		"host", s.config.Host,
		"port", s.config.Port,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping calculator server")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.deps.Health
}
