// Package main provides a voice announcer effect for macOS.
// It speaks pose completions and final scores via the `say` command.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Event represents the input from the effect executor.
type Event struct {
	Event string  `json:"event"`
	Pose  string  `json:"pose"`
	Score float64 `json:"score"`
	Combo int     `json:"combo"`
}

// Response represents the output to the effect executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var ev Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode event: %v", err))
		return
	}

	phrase, ok := phraseFor(&ev)
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", ev.Event))
		return
	}

	if err := speak(phrase); err != nil {
		writeErrorResponse(fmt.Sprintf("event %s failed: %v", ev.Event, err))
		return
	}

	writeSuccessResponse()
}

// phraseFor builds the spoken phrase for an event.
func phraseFor(ev *Event) (string, bool) {
	switch ev.Event {
	case "pose_completed":
		name := strings.ReplaceAll(ev.Pose, "_", " ")
		if ev.Combo >= 3 {
			return fmt.Sprintf("%s! Combo %d!", name, ev.Combo), true
		}
		return fmt.Sprintf("%s!", name), true
	case "game_over":
		return fmt.Sprintf("Game over. Final score %d.", int(ev.Score)), true
	default:
		return "", false
	}
}

// speak runs the macOS say command with the given phrase.
func speak(phrase string) error {
	cmd := exec.Command("say", phrase)
	return cmd.Run()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
