package game

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ayusman/tandava/internal/dance"
	"github.com/ayusman/tandava/internal/detector"
)

func testMatcher(t *testing.T) *dance.Matcher {
	t.Helper()
	lib := dance.NewLibrary()
	for _, pose := range dance.SamplePoses() {
		lib.AddPose(pose)
	}
	return dance.NewMatcher(lib, dance.DefaultConfig())
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testMatcher(t), DefaultConfig())
}

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestEngine_Start(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose", "Victory_Pose"}, t0)

	state := engine.State()
	if !state.IsPlaying {
		t.Error("IsPlaying = false after Start")
	}
	if state.Score != 0 || state.ComboCount != 0 || state.FrameCount != 0 {
		t.Error("Start did not reset score, combo, and frame counter")
	}
	if engine.CurrentPoseName() != "T-Pose" {
		t.Errorf("target = %q, want T-Pose", engine.CurrentPoseName())
	}
	if engine.RemainingPoses() != 2 {
		t.Errorf("RemainingPoses() = %d, want 2", engine.RemainingPoses())
	}
}

func TestEngine_Start_RandomSequence(t *testing.T) {
	engine := testEngine(t)
	engine.Start(nil, t0)

	if engine.RemainingPoses() != DefaultConfig().BaseSequenceLen {
		t.Errorf("RemainingPoses() = %d, want %d", engine.RemainingPoses(), DefaultConfig().BaseSequenceLen)
	}
	if engine.State().TargetPose == nil {
		t.Error("random sequence from non-empty library should set a target")
	}
}

func TestEngine_Start_EmptyLibrary(t *testing.T) {
	matcher := dance.NewMatcher(dance.NewLibrary(), dance.DefaultConfig())
	engine := NewEngine(matcher, DefaultConfig())

	engine.Start(nil, t0)

	if engine.State().TargetPose != nil {
		t.Error("empty library should leave the session with no target")
	}
	if engine.CurrentPoseName() != "None" {
		t.Errorf("CurrentPoseName() = %q, want None", engine.CurrentPoseName())
	}

	// Updates stay safe no-ops with respect to target progression.
	now := t0
	for i := 0; i < 10; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}
	if engine.State().TargetPose != nil {
		t.Error("updates must not conjure a target from an empty library")
	}
	if engine.State().FrameCount != 10 {
		t.Errorf("FrameCount = %d, want 10", engine.State().FrameCount)
	}
}

func TestEngine_Start_SkipsStaleNames(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"Gone_Pose", "Also_Gone", "Victory_Pose"}, t0)

	if engine.CurrentPoseName() != "Victory_Pose" {
		t.Errorf("target = %q, want Victory_Pose after skipping stale names", engine.CurrentPoseName())
	}
	if engine.RemainingPoses() != 1 {
		t.Errorf("RemainingPoses() = %d, want 1", engine.RemainingPoses())
	}
}

func TestEngine_Update_NotPlaying(t *testing.T) {
	engine := testEngine(t)

	engine.Update(detector.TPose(), t0)

	if engine.State().FrameCount != 0 {
		t.Error("Update before Start must be a no-op")
	}
}

func TestEngine_ScoreDecay(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose"}, t0)
	engine.state.Score = 100

	// dt = 0: score unchanged.
	engine.Update(nil, t0)
	if engine.State().Score != 100 {
		t.Errorf("score after zero-dt update = %f, want 100", engine.State().Score)
	}

	// One second at the default 0.95 retention.
	engine.Update(nil, t0.Add(time.Second))
	if got := engine.State().Score; math.Abs(got-95) > 1e-9 {
		t.Errorf("score after 1s decay = %f, want 95", got)
	}

	// Decay is monotonically non-increasing for dt >= 0.
	prev := engine.State().Score
	now := t0.Add(time.Second)
	for i := 0; i < 20; i++ {
		now = now.Add(time.Duration(i%4) * 250 * time.Millisecond)
		engine.Update(nil, now)
		if got := engine.State().Score; got > prev {
			t.Fatalf("score increased under decay: %f -> %f", prev, got)
		} else {
			prev = got
		}
	}
}

func TestEngine_HoldAndComplete(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose", "Victory_Pose"}, t0)

	// Feed identical T-Pose detections in 100ms steps for 2.1s.
	now := t0
	completedAt := time.Time{}
	for i := 0; i < 21; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
		if engine.State().ComboCount == 1 && completedAt.IsZero() {
			completedAt = now
		}
	}

	state := engine.State()
	if state.ComboCount != 1 {
		t.Fatalf("ComboCount = %d, want exactly one completion", state.ComboCount)
	}
	// Hold time is 2s; the first update at or after t0+100ms+2s completes.
	wantCompletion := t0.Add(100 * time.Millisecond).Add(2 * time.Second)
	if !completedAt.Equal(wantCompletion) {
		t.Errorf("completed at %v, want %v", completedAt, wantCompletion)
	}

	// Perfect match bonus 10, combo multiplier 1.0, similarity 1.0, minus
	// decay applied on later frames.
	if state.Score <= 9 || state.Score > 10 {
		t.Errorf("score = %f, want within (9, 10]", state.Score)
	}

	if engine.CurrentPoseName() != "Victory_Pose" {
		t.Errorf("target after completion = %q, want Victory_Pose", engine.CurrentPoseName())
	}
}

func TestEngine_HoldCompletesExactlyAtThreshold(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose", "Victory_Pose"}, t0)

	engine.Update(detector.TPose(), t0.Add(100*time.Millisecond))
	if engine.State().ComboCount != 0 {
		t.Fatal("pose completed on first good frame")
	}

	// Just shy of the 2s hold threshold: still holding.
	engine.Update(detector.TPose(), t0.Add(100*time.Millisecond).Add(2*time.Second-time.Millisecond))
	if engine.State().ComboCount != 0 {
		t.Fatal("pose completed before the hold threshold")
	}
	if !engine.IsPoseHeld() {
		t.Error("IsPoseHeld() = false during an active hold")
	}

	// Exactly at the threshold: completes.
	engine.Update(detector.TPose(), t0.Add(100*time.Millisecond).Add(2*time.Second))
	if engine.State().ComboCount != 1 {
		t.Fatal("pose did not complete at the hold threshold")
	}
}

func TestEngine_BadFrameBreaksHoldAndCombo(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose", "T-Pose", "Victory_Pose"}, t0)

	// Complete the first pose to build a combo.
	now := t0
	for i := 0; i < 21; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}
	if engine.State().ComboCount != 1 {
		t.Fatalf("ComboCount = %d after first completion, want 1", engine.State().ComboCount)
	}

	// Start holding the second pose.
	now = now.Add(100 * time.Millisecond)
	engine.Update(detector.TPose(), now)
	if !engine.IsPoseHeld() {
		t.Fatal("expected an active hold on the second pose")
	}

	// A single bad frame breaks both the hold and the streak.
	now = now.Add(100 * time.Millisecond)
	engine.Update(nil, now)
	if engine.State().ComboCount != 0 {
		t.Errorf("ComboCount = %d after bad frame, want 0", engine.State().ComboCount)
	}
	if engine.IsPoseHeld() {
		t.Error("hold survived a bad frame")
	}
	if engine.Progress(now) != 0 {
		t.Errorf("Progress() = %f after broken hold, want 0", engine.Progress(now))
	}

	// The hold restarts from scratch on the next good frame.
	now = now.Add(100 * time.Millisecond)
	engine.Update(detector.TPose(), now)
	if engine.State().ComboCount != 0 {
		t.Error("combo resurrected without a completion")
	}
	if got := engine.Progress(now); got != 0 {
		t.Errorf("Progress() = %f at restart instant, want 0", got)
	}
}

func TestEngine_UnrelatedPoseDoesNotCount(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"Victory_Pose"}, t0)

	// A clean detection of a different library pose is not relevant.
	now := t0
	for i := 0; i < 25; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}

	if engine.State().ComboCount != 0 {
		t.Error("unrelated pose detection completed the target")
	}
	if engine.State().CurrentMatch != nil {
		t.Error("CurrentMatch set for an irrelevant match")
	}
}

func TestEngine_SequenceRegeneration(t *testing.T) {
	lib := dance.NewLibrary()
	lib.Add("T-Pose", detector.TPose(), dance.DifficultyEasy, nil, "")
	engine := NewEngine(dance.NewMatcher(lib, dance.DefaultConfig()), DefaultConfig())

	engine.Start([]string{"T-Pose"}, t0)

	now := t0
	for i := 0; i < 21; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}

	state := engine.State()
	if state.ComboCount != 1 {
		t.Fatalf("ComboCount = %d, want 1", state.ComboCount)
	}
	// Good-match scenario from a single-entry library: score ~= 10 * 1.0 *
	// 1.0 (perfect bonus, similarity 1) minus nothing at the completion
	// instant; sequence regenerates since index 1 >= length 1.
	if !state.IsPlaying {
		t.Fatal("session stopped despite non-empty library")
	}
	if engine.RemainingPoses() != DefaultConfig().BaseSequenceLen {
		t.Errorf("regenerated sequence length = %d, want %d", engine.RemainingPoses(), DefaultConfig().BaseSequenceLen)
	}
	if engine.CurrentPoseName() != "T-Pose" {
		t.Errorf("target after regeneration = %q, want T-Pose", engine.CurrentPoseName())
	}
}

func TestEngine_SequenceLengthGrowsWithScore(t *testing.T) {
	lib := dance.NewLibrary()
	lib.Add("T-Pose", detector.TPose(), dance.DifficultyEasy, nil, "")
	engine := NewEngine(dance.NewMatcher(lib, dance.DefaultConfig()), DefaultConfig())

	engine.Start([]string{"T-Pose"}, t0)
	engine.state.Score = 250

	now := t0
	for i := 0; i < 21; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}

	// min(5 + floor(score/100), 10) with score just above 250.
	if got := engine.RemainingPoses(); got != 7 {
		t.Errorf("regenerated sequence length = %d, want 7", got)
	}
}

func TestEngine_RegenerationWithEmptiedLibraryStops(t *testing.T) {
	lib := dance.NewLibrary()
	lib.Add("T-Pose", detector.TPose(), dance.DifficultyEasy, nil, "")
	engine := NewEngine(dance.NewMatcher(lib, dance.DefaultConfig()), DefaultConfig())

	engine.Start([]string{"T-Pose"}, t0)

	// The library can only empty between frames, and an empty library also
	// kills the match that would complete the pose, so drive the
	// regeneration path directly.
	lib.Remove("T-Pose")
	engine.newSequence()

	if engine.State().IsPlaying {
		t.Error("session should stop when regeneration finds an empty library")
	}
}

func TestEngine_ComboMultiplier(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose", "T-Pose"}, t0)

	now := t0
	var scoreAfterFirst float64
	for i := 0; i < 42; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
		if engine.State().ComboCount == 1 && scoreAfterFirst == 0 {
			scoreAfterFirst = engine.State().Score
		}
	}

	state := engine.State()
	if state.ComboCount != 2 {
		t.Fatalf("ComboCount = %d, want 2", state.ComboCount)
	}

	// Second completion pays 10 * 1.1 * 1.0 on top of the decayed first.
	earnedSecond := state.Score - scoreAfterFirst*math.Pow(DefaultConfig().DecayRate, 2.0)
	if math.Abs(earnedSecond-11) > 0.5 {
		t.Errorf("second completion earned ~%f, want ~11 (combo multiplier 1.1)", earnedSecond)
	}
}

func TestEngine_StopPreservesState(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose"}, t0)
	engine.state.Score = 42
	engine.state.ComboCount = 3

	engine.Stop()

	state := engine.State()
	if state.IsPlaying {
		t.Error("IsPlaying = true after Stop")
	}
	if state.Score != 42 || state.ComboCount != 3 {
		t.Error("Stop must preserve score and combo for display")
	}

	// Updates after Stop are no-ops.
	engine.Update(detector.TPose(), t0.Add(time.Second))
	if engine.State().FrameCount != 0 {
		t.Error("Update after Stop must be a no-op")
	}
}

func TestEngine_Progress(t *testing.T) {
	engine := testEngine(t)

	if engine.Progress(t0) != 0 {
		t.Error("Progress() != 0 before Start")
	}

	engine.Start([]string{"T-Pose"}, t0)
	engine.Update(detector.TPose(), t0.Add(100*time.Millisecond))

	got := engine.Progress(t0.Add(1100 * time.Millisecond))
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Progress() = %f at half hold time, want 0.5", got)
	}

	// Capped at 1.
	if got := engine.Progress(t0.Add(time.Hour)); got != 1 {
		t.Errorf("Progress() = %f far past hold time, want 1", got)
	}
}

func TestEngine_GameTime(t *testing.T) {
	engine := testEngine(t)

	if engine.GameTime(t0) != 0 {
		t.Error("GameTime() != 0 before Start")
	}

	engine.Start(nil, t0)
	if got := engine.GameTime(t0.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("GameTime() = %v, want 90s", got)
	}
}

func TestEngine_ResetCombo(t *testing.T) {
	engine := testEngine(t)
	engine.Start([]string{"T-Pose"}, t0)
	engine.Update(detector.TPose(), t0.Add(100*time.Millisecond))

	engine.state.ComboCount = 4
	engine.ResetCombo()

	if engine.State().ComboCount != 0 {
		t.Error("ResetCombo did not clear the combo")
	}
	if engine.Progress(t0.Add(time.Second)) != 0 {
		t.Error("ResetCombo did not cancel the hold")
	}
}

func TestEngine_Callbacks(t *testing.T) {
	engine := testEngine(t)

	var completedPose string
	var completedCombo int
	var finalScore float64
	gameOverCalls := 0

	engine.OnPoseComplete = func(poseName string, earned float64, combo int) {
		completedPose = poseName
		completedCombo = combo
		if earned <= 0 {
			t.Errorf("earned = %f, want positive", earned)
		}
	}
	engine.OnGameOver = func(score float64) {
		finalScore = score
		gameOverCalls++
	}

	engine.Start([]string{"T-Pose"}, t0)

	now := t0
	for i := 0; i < 21; i++ {
		now = now.Add(100 * time.Millisecond)
		engine.Update(detector.TPose(), now)
	}

	if completedPose != "T-Pose" {
		t.Errorf("OnPoseComplete pose = %q, want T-Pose", completedPose)
	}
	if completedCombo != 1 {
		t.Errorf("OnPoseComplete combo = %d, want 1", completedCombo)
	}

	engine.Stop()
	if gameOverCalls != 1 {
		t.Fatalf("OnGameOver calls = %d, want 1", gameOverCalls)
	}
	if finalScore != engine.State().Score {
		t.Errorf("OnGameOver score = %f, want %f", finalScore, engine.State().Score)
	}

	// Stop on an already-stopped session must not fire again.
	engine.Stop()
	if gameOverCalls != 1 {
		t.Errorf("OnGameOver calls after second Stop = %d, want 1", gameOverCalls)
	}
}

func TestEngine_SetRand_DeterministicSequence(t *testing.T) {
	first := testEngine(t)
	second := testEngine(t)
	first.SetRand(rand.New(rand.NewSource(42)))
	second.SetRand(rand.New(rand.NewSource(42)))

	first.Start(nil, t0)
	second.Start(nil, t0)

	if len(first.sequence) != DefaultConfig().BaseSequenceLen {
		t.Fatalf("sequence length = %d, want %d", len(first.sequence), DefaultConfig().BaseSequenceLen)
	}
	for i := range first.sequence {
		if first.sequence[i] != second.sequence[i] {
			t.Errorf("sequence[%d] = %q vs %q, want identical draws for equal seeds",
				i, first.sequence[i], second.sequence[i])
		}
	}
	for _, name := range first.sequence {
		if !first.matcher.Library().Contains(name) {
			t.Errorf("drawn name %q not in library", name)
		}
	}
}
