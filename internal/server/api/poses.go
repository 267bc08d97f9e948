// Package api provides HTTP API handlers for the Tandava dance game.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/tandava/internal/dance"
	"github.com/ayusman/tandava/internal/detector"
	"github.com/ayusman/tandava/internal/store"
)

// PoseHandler handles HTTP requests for pose resources.
type PoseHandler struct {
	store *store.Store

	// onChange is invoked after every successful mutation so the host can
	// refresh the in-memory pose library. May be nil.
	onChange func()
}

// NewPoseHandler creates a new PoseHandler with the given store and change
// notification callback.
func NewPoseHandler(s *store.Store, onChange func()) *PoseHandler {
	return &PoseHandler{store: s, onChange: onChange}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/poses or /api/poses/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/poses")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "train" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type keypointPayload struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Name       string  `json:"name"`
}

type createPoseRequest struct {
	Name        string            `json:"name"`
	Difficulty  string            `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Description string            `json:"description"`
	Keypoints   []keypointPayload `json:"keypoints"`
}

type updatePoseRequest struct {
	Name        string            `json:"name"`
	Difficulty  string            `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Description string            `json:"description"`
	Keypoints   []keypointPayload `json:"keypoints"`
}

type poseResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Difficulty  string            `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Description string            `json:"description"`
	Keypoints   []keypointPayload `json:"keypoints,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

type listPosesResponse struct {
	Poses []poseResponse `json:"poses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Pose to a poseResponse.
func toResponse(p *store.Pose, keypoints []store.Keypoint) poseResponse {
	resp := poseResponse{
		ID:          p.ID,
		Name:        p.Name,
		Difficulty:  p.Difficulty,
		Tags:        p.Tags,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, k := range keypoints {
		resp.Keypoints = append(resp.Keypoints, keypointPayload{
			Index:      k.Index,
			X:          k.X,
			Y:          k.Y,
			Confidence: k.Confidence,
			Name:       k.Name,
		})
	}
	return resp
}

// toStoreKeypoints converts request keypoints to store keypoints, filling
// canonical joint names for in-range indices.
func toStoreKeypoints(payload []keypointPayload) []store.Keypoint {
	keypoints := make([]store.Keypoint, 0, len(payload))
	for _, k := range payload {
		name := k.Name
		if name == "" && k.Index >= 0 && k.Index < detector.NumKeypoints {
			name = detector.KeypointNames[k.Index]
		}
		keypoints = append(keypoints, store.Keypoint{
			Index:      k.Index,
			X:          k.X,
			Y:          k.Y,
			Confidence: k.Confidence,
			Name:       name,
		})
	}
	return keypoints
}

// validateKeypoints rejects payloads with out-of-range joint indices.
func validateKeypoints(payload []keypointPayload) error {
	for _, k := range payload {
		if k.Index < 0 || k.Index >= detector.NumKeypoints {
			return errors.New("keypoint index out of range")
		}
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// notifyChange invokes the change callback if one is configured.
func (h *PoseHandler) notifyChange() {
	if h.onChange != nil {
		h.onChange()
	}
}

// list handles GET /api/poses and returns all poses without keypoints.
func (h *PoseHandler) list(w http.ResponseWriter, r *http.Request) {
	poses, err := h.store.Poses().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list poses")
		return
	}

	response := listPosesResponse{
		Poses: make([]poseResponse, 0, len(poses)),
	}
	for _, p := range poses {
		response.Poses = append(response.Poses, toResponse(p, nil))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/poses/{id} and returns a single pose with keypoints.
func (h *PoseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	pose, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	keypoints, err := h.store.Poses().GetKeypoints(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get keypoints")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(pose, keypoints))
}

// create handles POST /api/poses and creates a new pose.
func (h *PoseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Keypoints) == 0 {
		writeError(w, http.StatusBadRequest, "Keypoints are required")
		return
	}
	if err := validateKeypoints(req.Keypoints); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pose := &store.Pose{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Difficulty:  string(dance.ParseDifficulty(req.Difficulty)),
		Tags:        req.Tags,
		Description: req.Description,
	}
	keypoints := toStoreKeypoints(req.Keypoints)

	if err := h.store.Poses().Create(pose, keypoints); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pose")
		return
	}

	h.notifyChange()
	writeJSON(w, http.StatusCreated, toResponse(pose, keypoints))
}

type trainPoseRequest struct {
	Name        string              `json:"name"`
	Difficulty  string              `json:"difficulty"`
	Tags        []string            `json:"tags"`
	Description string              `json:"description"`
	Samples     [][]keypointPayload `json:"samples"`
}

// train handles POST /api/poses/train: it averages several recorded
// detections of the same pose into one reference pose and stores it.
func (h *PoseHandler) train(w http.ResponseWriter, r *http.Request) {
	var req trainPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "Samples are required")
		return
	}

	samples := make([]*detector.Pose, 0, len(req.Samples))
	for _, payload := range req.Samples {
		if err := validateKeypoints(payload); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sample := &detector.Pose{}
		for _, k := range payload {
			sample.Keypoints[k.Index] = detector.Keypoint{
				X:          k.X,
				Y:          k.Y,
				Confidence: k.Confidence,
			}
		}
		samples = append(samples, sample)
	}

	trained, err := dance.NewTrainer().Train(samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pose := &store.Pose{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Difficulty:  string(dance.ParseDifficulty(req.Difficulty)),
		Tags:        req.Tags,
		Description: req.Description,
	}
	keypoints := make([]store.Keypoint, 0, detector.NumKeypoints)
	for i, kp := range trained.Keypoints {
		keypoints = append(keypoints, store.Keypoint{
			Index:      i,
			X:          kp.X,
			Y:          kp.Y,
			Confidence: kp.Confidence,
			Name:       kp.Name,
		})
	}

	if err := h.store.Poses().Create(pose, keypoints); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pose")
		return
	}

	h.notifyChange()
	writeJSON(w, http.StatusCreated, toResponse(pose, keypoints))
}

// update handles PUT /api/poses/{id} and updates an existing pose.
func (h *PoseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	pose, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	var req updatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		pose.Name = req.Name
	}
	if req.Difficulty != "" {
		pose.Difficulty = string(dance.ParseDifficulty(req.Difficulty))
	}
	if req.Tags != nil {
		pose.Tags = req.Tags
	}
	if req.Description != "" {
		pose.Description = req.Description
	}

	var keypoints []store.Keypoint
	if len(req.Keypoints) > 0 {
		if err := validateKeypoints(req.Keypoints); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		keypoints = toStoreKeypoints(req.Keypoints)
	}

	if err := h.store.Poses().Update(pose, keypoints); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update pose")
		return
	}

	if keypoints == nil {
		keypoints, _ = h.store.Poses().GetKeypoints(id)
	}

	h.notifyChange()
	writeJSON(w, http.StatusOK, toResponse(pose, keypoints))
}

// delete handles DELETE /api/poses/{id} and removes a pose.
func (h *PoseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Poses().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		return
	}

	h.notifyChange()
	w.WriteHeader(http.StatusNoContent)
}
