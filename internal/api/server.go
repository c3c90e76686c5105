// Package api provides the admin HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/accesslog-scanner/internal/logging"
	"github.com/accesslog-scanner/internal/models"
	"github.com/gorilla/mux"
)

// AccountStore defines the account persistence operations the server needs.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, int64, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) error
}

// TrafficReader reports consumed traffic per account.
type TrafficReader interface {
	TrafficTotalSince(ctx context.Context, accountID string, since time.Time) (int64, error)
}

// Server represents the admin HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	accounts   AccountStore
	traffic    TrafficReader
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int // Per-client request rate limit
}

// NewServer creates a new admin API server instance.
func NewServer(config *ServerConfig, accounts AccountStore, traffic TrafficReader) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		accounts: accounts,
		traffic:  traffic,
		config:   config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec)

	// Middleware order matters: logging outermost, rate limiting after CORS
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// API v1 routes
	api := s.router.PathPrefix("/api").Subrouter()

	// Account endpoints
	api.HandleFunc("/accounts", s.handleListAccounts).Methods("GET")
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}", s.handleUpdateAccount).Methods("PUT")
	api.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{id}/traffic", s.handleGetAccountTraffic).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "accesslog-scanner",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().Infof("starting admin API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("shutting down admin API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
