// Package server provides the HTTP server for the StrumSpace chord trainer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/server/api"
	"github.com/strumspace/strumspace/internal/session"
	"github.com/strumspace/strumspace/internal/store"
)

// Config holds the server configuration. Every field is optional; routes
// whose collaborators are missing are not registered.
type Config struct {
	StaticDir string
	Table     *chord.Table
	Sessions  *session.Store
	Store     *store.Store
	Detector  detector.Detector
	Verifier  audio.Verifier
	Metrics   *metrics.Metrics
	// Feed carries frames and markers from a live camera pipeline.
	Feed *Feed
}

// Server represents the HTTP server for the StrumSpace application.
type Server struct {
	config  Config
	router  *mux.Router
	handler http.Handler
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Table == nil {
		config.Table = chord.DefaultTable()
	}
	if config.Sessions == nil {
		config.Sessions = session.NewStore(session.DefaultMaxAttempts)
	}

	s := &Server{
		config: config,
		router: mux.NewRouter().UseEncodedPath(),
		start:  time.Now(),
	}
	s.setupRoutes()
	s.handler = cors.AllowAll().Handler(s.router)
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	api.NewChordHandler(s.config.Table, s.config.Store).Register(r)
	api.NewOverlayHandler(s.config.Table).Register(r)
	api.NewSessionHandler(api.SessionConfig{
		Sessions: s.config.Sessions,
		Table:    s.config.Table,
		Detector: s.config.Detector,
		Verifier: s.config.Verifier,
		Store:    s.config.Store,
		Metrics:  s.config.Metrics,
	}).Register(r)

	// Attempt history needs the database
	if s.config.Store != nil {
		api.NewHistoryHandler(s.config.Store).Register(r)
	}

	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Live feed endpoints exist only while a camera pipeline publishes
	if s.config.Feed != nil {
		r.Handle("/api/stream", NewStreamHandler(s.config.Feed)).Methods(http.MethodGet)
		r.Handle("/api/overlay/ws", s.config.Feed.Overlays())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type healthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
	Chords         int    `json:"chords"`
	Detector       bool   `json:"detector"`
	Verifier       bool   `json:"verifier"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status:         "ok",
		Uptime:         time.Since(s.start).Round(time.Second).String(),
		ActiveSessions: s.config.Sessions.Len(),
		Chords:         s.config.Table.Len(),
		Detector:       s.config.Detector != nil,
		Verifier:       s.config.Verifier != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.HTTPServer(addr).ListenAndServe()
}

// HTTPServer returns an http.Server for addr so callers can shut it down.
// WriteTimeout is left unset because the MJPEG stream is long lived.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
