// Package game implements the scoring state machine for the Tandava dance
// game: hold timers, combo streaks, score decay, and sequence progression.
package game

import (
	"time"

	"github.com/ayusman/tandava/internal/dance"
	"github.com/ayusman/tandava/internal/detector"
)

// Config holds the game engine tunables.
type Config struct {
	// HoldTime is how long a good match must be held to complete a pose.
	HoldTime time.Duration

	// DecayRate is the per-second score retention factor. The score is
	// multiplied by DecayRate^dt every update.
	DecayRate float64

	// PerfectBonus is the base score for completing a pose on a perfect
	// match; GoodBonus applies otherwise.
	PerfectBonus float64
	GoodBonus    float64

	// BaseSequenceLen is the starting sequence length; regenerated
	// sequences grow with score up to MaxSequenceLen.
	BaseSequenceLen int
	MaxSequenceLen  int
}

// DefaultConfig returns the gameplay defaults: 2s holds, 0.95/s decay,
// 10/5 point bonuses, sequences of 5 to 10 poses.
func DefaultConfig() Config {
	return Config{
		HoldTime:        2 * time.Second,
		DecayRate:       0.95,
		PerfectBonus:    10,
		GoodBonus:       5,
		BaseSequenceLen: 5,
		MaxSequenceLen:  10,
	}
}

// State is the session state snapshot consumed by the renderer. It is owned
// and mutated exclusively by the Engine.
type State struct {
	CurrentPose  *detector.Pose `json:"current_pose,omitempty"`
	TargetPose   *dance.Pose    `json:"-"`
	CurrentMatch *dance.Match   `json:"current_match,omitempty"`
	Score        float64        `json:"score"`
	ComboCount   int            `json:"combo_count"`
	IsPlaying    bool           `json:"is_playing"`
	FrameCount   int            `json:"frame_count"`
	StartTime    time.Time      `json:"start_time,omitzero"`
}

// Snapshot is a point-in-time view of a session, enriched with the derived
// values clients need but State does not carry.
type Snapshot struct {
	State          State   `json:"state"`
	TargetPoseName string  `json:"target_pose"`
	HoldProgress   float64 `json:"hold_progress"`
	RemainingPoses int     `json:"remaining_poses"`
	GameTime       float64 `json:"game_time_seconds"`
}
