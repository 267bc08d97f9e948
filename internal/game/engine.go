package game

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/ayusman/tandava/internal/dance"
	"github.com/ayusman/tandava/internal/detector"
)

// Engine drives a game session. All time values are supplied by the caller,
// so sessions are fully replayable in tests. The engine is not safe for
// concurrent use; the host must serialize all calls.
type Engine struct {
	matcher *dance.Matcher
	config  Config
	rng     *rand.Rand

	state      State
	sequence   []string
	poseIndex  int
	poseStart  time.Time // zero when no hold is in progress
	lastUpdate time.Time

	// OnPoseComplete is called after each completed hold with the pose name,
	// the points earned, and the combo count after the completion. Optional.
	OnPoseComplete func(poseName string, earned float64, combo int)

	// OnGameOver is called with the final score when the session ends,
	// whether by Stop or by sequence regeneration over an empty library.
	// Optional.
	OnGameOver func(finalScore float64)
}

// NewEngine creates an Engine over the given matcher.
func NewEngine(matcher *dance.Matcher, config Config) *Engine {
	return &Engine{
		matcher: matcher,
		config:  config,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source used for sequence draws. Tests inject
// a seeded source to make random sequences reproducible.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

// State returns a copy of the current session state.
func (e *Engine) State() State {
	return e.state
}

// Start begins a new session at the given instant, discarding any previous
// state. When sequence is nil, a random sequence of BaseSequenceLen pose
// names is drawn with replacement from the library; an empty library yields
// an empty sequence and a session with no target.
func (e *Engine) Start(sequence []string, now time.Time) {
	e.state = State{
		IsPlaying: true,
		StartTime: now,
	}
	e.lastUpdate = now
	e.poseStart = time.Time{}
	e.poseIndex = 0

	if sequence != nil {
		e.sequence = append([]string(nil), sequence...)
	} else {
		e.sequence = e.randomSequence(e.config.BaseSequenceLen)
	}

	e.setTarget()
}

// Stop ends the session. Score and combo persist for display until the next
// Start overwrites them.
func (e *Engine) Stop() {
	if !e.state.IsPlaying {
		return
	}
	e.state.IsPlaying = false
	log.Printf("Game ended. Final score: %.1f", e.state.Score)

	if e.OnGameOver != nil {
		e.OnGameOver(e.state.Score)
	}
}

// Update advances the session by one frame. It applies score decay for the
// elapsed time since the previous update, matches the detected pose against
// the current target, and drives hold-timer and completion transitions.
// No-op when not playing. Calling it twice for the same instant is a caller
// error: decay would be applied twice.
func (e *Engine) Update(detected *detector.Pose, now time.Time) {
	if !e.state.IsPlaying {
		return
	}

	dt := now.Sub(e.lastUpdate).Seconds()
	e.lastUpdate = now

	e.state.FrameCount++
	e.state.CurrentPose = detected
	e.state.Score *= math.Pow(e.config.DecayRate, dt)

	if detected == nil || e.state.TargetPose == nil {
		e.state.CurrentMatch = nil
		e.breakHold()
		return
	}

	match := e.matcher.Match(detected)
	if match == nil || match.PoseName != e.state.TargetPose.Name {
		// A correct detection of an unrelated library pose does not count.
		e.state.CurrentMatch = nil
		e.breakHold()
		return
	}

	e.state.CurrentMatch = match
	if !match.IsGoodMatch {
		e.breakHold()
		return
	}

	if e.poseStart.IsZero() {
		e.poseStart = now
	}
	if now.Sub(e.poseStart) >= e.config.HoldTime {
		e.completePose(match)
	}
}

// breakHold cancels an in-progress hold and the combo streak with it.
// A single bad frame breaks the streak; there is no grace window.
func (e *Engine) breakHold() {
	if e.poseStart.IsZero() {
		return
	}
	e.poseStart = time.Time{}
	e.state.ComboCount = 0
}

// completePose awards points for the held pose and advances the sequence.
func (e *Engine) completePose(match *dance.Match) {
	baseScore := e.config.GoodBonus
	if match.IsPerfectMatch {
		baseScore = e.config.PerfectBonus
	}

	comboMultiplier := 1.0 + float64(e.state.ComboCount)*0.1
	earned := baseScore * comboMultiplier * match.Similarity

	e.state.Score += earned
	e.state.ComboCount++

	log.Printf("Pose %q completed: +%.1f points (combo x%.1f)", match.PoseName, earned, comboMultiplier)

	if e.OnPoseComplete != nil {
		e.OnPoseComplete(match.PoseName, earned, e.state.ComboCount)
	}

	e.poseIndex++
	e.poseStart = time.Time{}

	if e.poseIndex >= len(e.sequence) {
		e.newSequence()
		return
	}

	e.setTarget()
	if e.state.TargetPose == nil {
		// Every remaining name was stale; the sequence is effectively
		// exhausted.
		e.newSequence()
	}
}

// setTarget sets the target pose from the current sequence position,
// skipping and permanently discarding names no longer in the library.
// Leaves the target nil when the sequence is exhausted.
func (e *Engine) setTarget() {
	library := e.matcher.Library()

	for e.poseIndex < len(e.sequence) {
		name := e.sequence[e.poseIndex]
		if pose, ok := library.Get(name); ok {
			e.state.TargetPose = pose
			return
		}
		log.Printf("Skipping unknown pose %q in sequence", name)
		e.poseIndex++
	}

	e.state.TargetPose = nil
}

// newSequence regenerates the pose sequence after exhaustion. Sequence
// length grows with score; an empty library ends the session instead.
func (e *Engine) newSequence() {
	length := e.config.BaseSequenceLen + int(e.state.Score/100)
	if length > e.config.MaxSequenceLen {
		length = e.config.MaxSequenceLen
	}

	sequence := e.randomSequence(length)
	if len(sequence) == 0 {
		e.Stop()
		return
	}

	e.sequence = sequence
	e.poseIndex = 0
	e.setTarget()
	log.Printf("New sequence started with %d poses", len(sequence))
}

// randomSequence draws n pose names with replacement, uniformly at random,
// from the library. Returns nil for an empty library.
func (e *Engine) randomSequence(n int) []string {
	names := e.matcher.Library().Names()
	if len(names) == 0 {
		return nil
	}

	sequence := make([]string, n)
	for i := range sequence {
		sequence[i] = names[e.rng.Intn(len(names))]
	}
	return sequence
}

// Progress returns how far the current hold has progressed, 0 to 1.
// Returns 0 when no hold is in progress or the session is not playing.
func (e *Engine) Progress(now time.Time) float64 {
	if e.poseStart.IsZero() || !e.state.IsPlaying {
		return 0
	}

	progress := now.Sub(e.poseStart).Seconds() / e.config.HoldTime.Seconds()
	return math.Min(progress, 1.0)
}

// RemainingPoses returns the number of poses left in the current sequence.
func (e *Engine) RemainingPoses() int {
	remaining := len(e.sequence) - e.poseIndex
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CurrentPoseName returns the current target pose name, or "None".
func (e *Engine) CurrentPoseName() string {
	if e.state.TargetPose == nil {
		return "None"
	}
	return e.state.TargetPose.Name
}

// GameTime returns the elapsed session time.
func (e *Engine) GameTime(now time.Time) time.Duration {
	if e.state.StartTime.IsZero() {
		return 0
	}
	return now.Sub(e.state.StartTime)
}

// IsPoseHeld reports whether a pose is currently being held at good quality.
func (e *Engine) IsPoseHeld() bool {
	return !e.poseStart.IsZero() &&
		e.state.CurrentMatch != nil &&
		e.state.CurrentMatch.IsGoodMatch
}

// ResetCombo clears the combo streak and any in-progress hold, independent
// of match state.
func (e *Engine) ResetCombo() {
	e.state.ComboCount = 0
	e.poseStart = time.Time{}
}
