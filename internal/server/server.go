// Package server provides the HTTP server for the finger counter dashboard.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/server/api"
	"github.com/ayusman/fingercount/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir   string
	Store       *store.Store
	App         *app.App
	Broadcaster *Broadcaster
}

// Server represents the HTTP server for the finger counter.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register session API handler if Store is configured
	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)
	}

	// Register control endpoints if App is configured
	if s.config.App != nil {
		s.mux.Handle("/api/config", api.NewConfigHandler(s.config.App, s.config.Store))
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	// Register frame and result feeds if Broadcaster is configured
	if s.config.Broadcaster != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Broadcaster))
		s.mux.Handle("/api/snapshot", NewSnapshotHandler(s.config.Broadcaster))
		s.mux.Handle("/api/results", s.config.Broadcaster.Results())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, response)
}

type statusResponse struct {
	State   app.State   `json:"state"`
	Enabled bool        `json:"enabled"`
	Last    app.Summary `json:"last"`
	Clients int         `json:"clients"`
}

type statusRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus handles GET and PUT requests to /api/status. PUT accepts
// {"enabled": bool} to pause or resume processing.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	a := s.config.App

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		a.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := statusResponse{
		State:   a.State(),
		Enabled: a.IsEnabled(),
		Last:    a.LastResult(),
	}
	if s.config.Broadcaster != nil {
		response.Clients = s.config.Broadcaster.Results().ClientCount()
	}

	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
