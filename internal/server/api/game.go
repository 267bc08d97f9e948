package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/tandava/internal/game"
)

// GameController is the slice of the application the game API needs.
type GameController interface {
	StartGame(sequence []string)
	StopGame()
	Snapshot() *game.Snapshot
	IsPlaying() bool
}

// GameHandler handles HTTP requests for game session control.
type GameHandler struct {
	ctrl GameController
}

// NewGameHandler creates a new GameHandler driving the given controller.
func NewGameHandler(ctrl GameController) *GameHandler {
	return &GameHandler{ctrl: ctrl}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/game/start":
		h.start(w, r)
	case "/api/game/stop":
		h.stop(w, r)
	case "/api/game/state":
		h.state(w, r)
	default:
		http.NotFound(w, r)
	}
}

type startGameRequest struct {
	// Sequence optionally names the poses to play, in order. When omitted
	// the engine draws a random sequence from the library.
	Sequence []string `json:"sequence"`
}

// start handles POST /api/game/start and begins a new session.
func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startGameRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	if h.ctrl.IsPlaying() {
		writeError(w, http.StatusConflict, "Game already in progress")
		return
	}

	h.ctrl.StartGame(req.Sequence)
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// stop handles POST /api/game/stop and ends the current session.
func (h *GameHandler) stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.ctrl.StopGame()
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// state handles GET /api/game/state and returns the current session snapshot.
func (h *GameHandler) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}
