// Package server provides the HTTP server for the Tandava dance game.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/tandava/internal/capture"
	"github.com/ayusman/tandava/internal/effect"
	"github.com/ayusman/tandava/internal/server/api"
	"github.com/ayusman/tandava/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Game       api.GameController
	Camera     capture.Camera
	Effects    *effect.Manager
	EffectExec *effect.Executor

	// OnPoseChange is invoked after every pose mutation through the API so
	// the host can refresh its in-memory library. May be nil.
	OnPoseChange func()
}

// Server represents the HTTP server for the Tandava application.
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

	// Register pose API handler if Store is configured
	if s.config.Store != nil {
		poseHandler := api.NewPoseHandler(s.config.Store, s.config.OnPoseChange)
		s.mux.Handle("/api/poses", poseHandler)
		s.mux.Handle("/api/poses/", poseHandler)
	}

	// Register game session endpoints if a game controller is configured
	if s.config.Game != nil {
		gameHandler := api.NewGameHandler(s.config.Game)
		s.mux.Handle("/api/game/start", gameHandler)
		s.mux.Handle("/api/game/stop", gameHandler)
		s.mux.Handle("/api/game/state", gameHandler)

		// Live game feed over WebSocket
		s.mux.Handle("/api/game/feed", NewFeedHandler(s.config.Game))
	}

	// Register effect endpoints if the effect system is configured
	if s.config.Effects != nil && s.config.EffectExec != nil {
		effectHandler := api.NewEffectHandler(s.config.Effects, s.config.EffectExec)
		s.mux.Handle("/api/effects", effectHandler)
		s.mux.Handle("/api/effects/", effectHandler)
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
