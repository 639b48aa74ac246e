package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tubefetch/internal/cache"
	"tubefetch/internal/download"
	"tubefetch/pkg/models"
)

const serviceVersion = "1.0.0"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
)

// MetadataResolver resolves video metadata without downloading
type MetadataResolver interface {
	ExtractInfo(ctx context.Context, url string) (*models.VideoMetadata, error)
}

// Server represents the HTTP server
type Server struct {
	config       *models.Config
	store        *cache.Store
	resolver     MetadataResolver
	orchestrator *download.Orchestrator
	logger       *log.Logger
	router       *chi.Mux
	server       *http.Server
	listener     net.Listener
	running      bool
	mu           sync.RWMutex
}

// NewServer creates a new HTTP server
func NewServer(cfg *models.Config, store *cache.Store, resolver MetadataResolver, orchestrator *download.Orchestrator, logger *log.Logger) *Server {
	s := &Server{
		config:       cfg,
		store:        store,
		resolver:     resolver,
		orchestrator: orchestrator,
		logger:       logger,
		router:       chi.NewRouter(),
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Metadata and status respond quickly; downloads manage
			// their own deadline and must not be cut off here
			r.Use(middleware.Timeout(30 * time.Second))
			r.Post("/info", s.handleInfo)
			r.Get("/status", s.handleStatus)
		})

		r.Post("/download", s.handleDownload)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerAlreadyRunning
	}

	addr := s.GetAddr()

	// Create listener
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	httpServer := &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: download responses stream transcoded media
		// and can legitimately take minutes
		IdleTimeout: 60 * time.Second,
	}
	s.server = httpServer

	s.running = true

	// Start server in goroutine
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.running = false
	s.server = nil
	s.listener = nil

	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetAddr returns the configured server address
func (s *Server) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.config.ListenHost, s.config.ListenPort)
}

// GetActualAddr returns the actual listening address (useful when port is 0)
func (s *Server) GetActualAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.GetAddr()
}

// handleIndex handles the service descriptor endpoint
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "tubefetch",
		"version": serviceVersion,
		"status":  "active",
		"endpoints": map[string]string{
			"/api/info":     "POST - Get video info",
			"/api/download": "POST - Download video",
			"/api/status":   "GET - Service status",
			"/health":       "GET - Health check",
		},
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleStatus handles the status endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":    running,
		"cacheSize":  s.store.Size(),
		"cacheCount": s.store.Count(),
		"activeJobs": s.orchestrator.Active(),
		"version":    serviceVersion,
	})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the uniform error envelope
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
