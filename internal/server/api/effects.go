package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/tandava/internal/effect"
)

// EffectHandler handles HTTP requests for the effect system.
type EffectHandler struct {
	manager  *effect.Manager
	executor *effect.Executor
}

// NewEffectHandler creates a new EffectHandler over the given manager and executor.
func NewEffectHandler(m *effect.Manager, e *effect.Executor) *EffectHandler {
	return &EffectHandler{manager: m, executor: e}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *EffectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/effects or /api/effects/{name}/test
	path := strings.TrimPrefix(r.URL.Path, "/api/effects")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if name, ok := strings.CutSuffix(path, "/test"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.test(w, r, name)
		return
	}

	http.NotFound(w, r)
}

type effectResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Events      []string `json:"events"`
}

type listEffectsResponse struct {
	Effects []effectResponse `json:"effects"`
}

// list handles GET /api/effects and returns all discovered effects.
func (h *EffectHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listEffectsResponse{Effects: []effectResponse{}}
	for _, fx := range h.manager.List() {
		response.Effects = append(response.Effects, effectResponse{
			Name:        fx.Manifest.Name,
			Version:     fx.Manifest.Version,
			Description: fx.Manifest.Description,
			Events:      fx.Manifest.Events,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// test handles POST /api/effects/{name}/test and fires a synthetic event at
// the named effect so users can verify it works.
func (h *EffectHandler) test(w http.ResponseWriter, r *http.Request, name string) {
	fx, err := h.manager.Get(name)
	if err != nil {
		if errors.Is(err, effect.ErrEffectNotFound) {
			writeError(w, http.StatusNotFound, "Effect not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get effect")
		return
	}

	ev := &effect.Event{
		Event: effect.EventPoseCompleted,
		Pose:  "Test_Pose",
		Score: 10,
		Combo: 1,
	}

	resp, err := h.executor.Execute(fx, ev)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
