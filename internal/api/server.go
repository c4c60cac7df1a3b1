package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/auth"
	"campus-gate-control/internal/config"
)

// Server represents the HTTP API server
type Server struct {
	config      *config.Config
	logger      *logrus.Logger
	router      *mux.Router
	httpServer  *http.Server
	handlers    *Handlers
	rateLimiter *rateLimiter
	tokens      *auth.Manager
}

// NewServer creates a new API server instance
func NewServer(cfg *config.Config, logger *logrus.Logger, handlers *Handlers, tokens *auth.Manager) *Server {
	server := &Server{
		config:      cfg,
		logger:      logger,
		router:      mux.NewRouter(),
		handlers:    handlers,
		rateLimiter: newRateLimiter(cfg.RequestsPerMin),
		tokens:      tokens,
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      server.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled
// or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"addr":         s.httpServer.Addr,
		"auth_enabled": s.config.AuthEnabled,
	}).Info("Starting API server")

	if s.handlers.wsManager != nil {
		s.handlers.wsManager.Start(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		return s.Shutdown()
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.handlers.wsManager != nil {
		s.handlers.wsManager.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("Error during server shutdown")
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.router.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Public endpoints
	api.HandleFunc("/health", s.handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/auth/login", s.handlers.Login).Methods("POST")

	// Protected endpoints
	protected := api.PathPrefix("").Subrouter()
	protected.Use(s.authMiddleware)

	protected.HandleFunc("/auth/me", s.handlers.CurrentUser).Methods("GET")

	// Access decision endpoint used by gate scanners
	protected.HandleFunc("/access/scan", s.handlers.Scan).Methods("POST")

	// Gate endpoints
	protected.HandleFunc("/gates", s.handlers.ListGates).Methods("GET")
	protected.HandleFunc("/gates", s.handlers.CreateGate).Methods("POST")
	protected.HandleFunc("/gates/{id}", s.handlers.GetGate).Methods("GET")
	protected.HandleFunc("/gates/{id}", s.handlers.UpdateGate).Methods("PUT")
	protected.HandleFunc("/gates/override", s.handlers.OverrideGate).Methods("POST")
	protected.HandleFunc("/gates/{id}/override", s.handlers.OverrideGate).Methods("POST")

	// Vehicle endpoints
	protected.HandleFunc("/vehicles", s.handlers.ListVehicles).Methods("GET")
	protected.HandleFunc("/vehicles", s.handlers.CreateVehicle).Methods("POST")
	protected.HandleFunc("/vehicles/{id}", s.handlers.GetVehicle).Methods("GET")
	protected.HandleFunc("/vehicles/{id}", s.handlers.UpdateVehicle).Methods("PUT")
	protected.HandleFunc("/vehicles/{id}", s.handlers.DeleteVehicle).Methods("DELETE")

	// User endpoints
	protected.HandleFunc("/users", s.handlers.ListUsers).Methods("GET")
	protected.HandleFunc("/users", s.handlers.CreateUser).Methods("POST")
	protected.HandleFunc("/users/{id}", s.handlers.GetUser).Methods("GET")
	protected.HandleFunc("/users/{id}", s.handlers.UpdateUser).Methods("PUT")
	protected.HandleFunc("/users/{id}", s.handlers.DeleteUser).Methods("DELETE")

	// Visitor endpoints
	protected.HandleFunc("/visitors", s.handlers.ListVisitors).Methods("GET")
	protected.HandleFunc("/visitors", s.handlers.CreateVisitor).Methods("POST")
	protected.HandleFunc("/visitors/{id}", s.handlers.GetVisitor).Methods("GET")
	protected.HandleFunc("/visitors/{id}", s.handlers.UpdateVisitor).Methods("PUT")

	// Ledger endpoints
	protected.HandleFunc("/access-logs", s.handlers.ListAccessLogs).Methods("GET")
	protected.HandleFunc("/access-logs/recent", s.handlers.RecentAccessLogs).Methods("GET")
	protected.HandleFunc("/my-access-history", s.handlers.MyAccessHistory).Methods("GET")

	// Dashboard endpoints
	protected.HandleFunc("/stats", s.handlers.Stats).Methods("GET")
	protected.HandleFunc("/my-stats", s.handlers.MyStats).Methods("GET")
	protected.HandleFunc("/reports", s.handlers.Reports).Methods("GET")

	// WebSocket endpoint for live dashboard updates
	protected.HandleFunc("/ws", s.handlers.WebSocket).Methods("GET")
}

// writeError writes a standardized JSON error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	response := NewErrorResponse(code, message, r, "")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.WithError(err).Error("Failed to encode error response")
	}
}
