// Package effect provides discovery and execution of external effect
// binaries that react to game events (sounds, announcements, lights).
package effect

import "encoding/json"

// Game event names delivered to effects.
const (
	EventPoseCompleted = "pose_completed"
	EventGameOver      = "game_over"
)

// Manifest describes an effect's metadata and the events it handles.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Event represents a game event sent to an effect for handling.
type Event struct {
	Event string  `json:"event"`
	Pose  string  `json:"pose,omitempty"`
	Score float64 `json:"score"`
	Combo int     `json:"combo"`
}

// Response represents the response from an effect execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Effect represents a discovered effect with its manifest and location.
type Effect struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the effect subscribes to the given event.
func (e *Effect) Handles(event string) bool {
	for _, name := range e.Manifest.Events {
		if name == event {
			return true
		}
	}
	return false
}
