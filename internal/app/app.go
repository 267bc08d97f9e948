// Package app wires the camera, pose detector, matcher, game engine, and
// effect system into the Tandava dance game application.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/tandava/internal/capture"
	"github.com/ayusman/tandava/internal/dance"
	"github.com/ayusman/tandava/internal/detector"
	"github.com/ayusman/tandava/internal/effect"
	"github.com/ayusman/tandava/internal/game"
	"github.com/ayusman/tandava/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no player is present.
	IdleFPS = 5
	// DefaultActiveFPS is the frame rate during an active game when the
	// configuration does not specify one.
	DefaultActiveFPS = 15
	// EffectTimeout bounds the execution of a single effect binary.
	EffectTimeout = 5 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store          *store.Store
	EffectDir      string
	CameraID       int
	ActiveFPS      int
	PresenceThresh float64
}

// App is the main application that orchestrates the dance game pipeline.
type App struct {
	config     Config
	camera     capture.Camera
	presence   *capture.PresenceDetector
	detector   detector.Detector
	library    *dance.Library
	matcher    *dance.Matcher
	engine     *game.Engine
	effectMgr  *effect.Manager
	effectExec *effect.Executor

	// mu serializes access to the engine and the pose library, neither of
	// which is safe for concurrent use. The pipeline goroutine and API
	// handlers both go through it.
	mu     sync.RWMutex
	stopCh chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	presenceThreshold := config.PresenceThresh
	if presenceThreshold <= 0 {
		presenceThreshold = 1.0 // default threshold: 1% pixel change
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}

	library := dance.NewLibrary()
	matcher := dance.NewMatcher(library, dance.DefaultConfig())

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		presence:   capture.NewPresenceDetector(presenceThreshold),
		library:    library,
		matcher:    matcher,
		engine:     game.NewEngine(matcher, game.DefaultConfig()),
		effectMgr:  effect.NewManager(config.EffectDir),
		effectExec: effect.NewExecutor(EffectTimeout),
	}

	a.engine.OnPoseComplete = func(poseName string, earned float64, combo int) {
		a.dispatchEvent(&effect.Event{
			Event: effect.EventPoseCompleted,
			Pose:  poseName,
			Score: earned,
			Combo: combo,
		})
	}
	a.engine.OnGameOver = func(finalScore float64) {
		a.dispatchEvent(&effect.Event{
			Event: effect.EventGameOver,
			Score: finalScore,
		})
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// LoadPoses fills the pose library from the database. An empty database is
// seeded with the built-in sample poses first, so a fresh install has
// something to dance against. Holds the app lock for the whole reload: the
// pipeline matches against the same library maps.
func (a *App) LoadPoses() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Store == nil {
		for _, p := range dance.SamplePoses() {
			a.library.AddPose(p)
		}
		log.Printf("No database configured, loaded %d sample poses", a.library.Len())
		return nil
	}

	poses, err := a.config.Store.Poses().List()
	if err != nil {
		return err
	}

	if len(poses) == 0 {
		if err := a.seedSamplePoses(); err != nil {
			return err
		}
		poses, err = a.config.Store.Poses().List()
		if err != nil {
			return err
		}
	}

	a.library.Clear()
	for _, p := range poses {
		keypoints, err := a.config.Store.Poses().GetKeypoints(p.ID)
		if err != nil {
			log.Printf("Failed to load keypoints for %s: %v", p.Name, err)
			continue
		}
		a.library.AddPose(storePoseToDance(p, keypoints))
	}

	log.Printf("Loaded %d poses from database", a.library.Len())
	return nil
}

// SavePoses persists the whole in-memory library to the database, replacing
// whatever was stored before.
func (a *App) SavePoses() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Store == nil {
		return nil
	}

	names := a.library.Names()
	records := make([]*store.Pose, 0, len(names))
	keypoints := make([][]store.Keypoint, 0, len(names))

	for _, name := range names {
		pose, ok := a.library.Get(name)
		if !ok {
			continue
		}
		record, kps := dancePoseToStore(pose)
		record.ID = uuid.NewString()
		records = append(records, record)
		keypoints = append(keypoints, kps)
	}

	if err := a.config.Store.Poses().ReplaceAll(records, keypoints); err != nil {
		return err
	}

	log.Printf("Saved %d poses to database", len(records))
	return nil
}

// seedSamplePoses writes the built-in sample poses to the database.
func (a *App) seedSamplePoses() error {
	for _, p := range dance.SamplePoses() {
		record, keypoints := dancePoseToStore(p)
		record.ID = uuid.NewString()
		if err := a.config.Store.Poses().Create(record, keypoints); err != nil {
			return err
		}
	}
	log.Println("Seeded database with sample poses")
	return nil
}

// storePoseToDance converts a database pose and its keypoints to a library pose.
func storePoseToDance(p *store.Pose, keypoints []store.Keypoint) *dance.Pose {
	pose := &dance.Pose{
		Name:        p.Name,
		Difficulty:  dance.ParseDifficulty(p.Difficulty),
		Tags:        p.Tags,
		Description: p.Description,
	}
	for _, k := range keypoints {
		if k.Index < 0 || k.Index >= detector.NumKeypoints {
			continue
		}
		pose.Keypoints[k.Index] = detector.Keypoint{
			X:          k.X,
			Y:          k.Y,
			Confidence: k.Confidence,
			Name:       k.Name,
		}
	}
	return pose
}

// dancePoseToStore converts a library pose to a database record plus keypoints.
func dancePoseToStore(p *dance.Pose) (*store.Pose, []store.Keypoint) {
	record := &store.Pose{
		Name:        p.Name,
		Difficulty:  string(p.Difficulty),
		Tags:        p.Tags,
		Description: p.Description,
	}
	keypoints := make([]store.Keypoint, 0, detector.NumKeypoints)
	for i, k := range p.Keypoints {
		keypoints = append(keypoints, store.Keypoint{
			Index:      i,
			X:          k.X,
			Y:          k.Y,
			Confidence: k.Confidence,
			Name:       k.Name,
		})
	}
	return record, keypoints
}

// DiscoverEffects scans the effect directory and loads available effects.
func (a *App) DiscoverEffects() error {
	return a.effectMgr.Discover()
}

// dispatchEvent delivers a game event to every subscribed effect. Effects
// run asynchronously so a slow binary never stalls the game loop.
func (a *App) dispatchEvent(ev *effect.Event) {
	effects := a.effectMgr.ForEvent(ev.Event)
	if len(effects) == 0 {
		return
	}

	go func() {
		for _, fx := range effects {
			resp, err := a.effectExec.Execute(fx, ev)
			if err != nil {
				log.Printf("Effect %s failed for %s: %v", fx.Manifest.Name, ev.Event, err)
				continue
			}
			if !resp.Success {
				log.Printf("Effect %s rejected %s: %s", fx.Manifest.Name, ev.Event, resp.Error)
			}
		}
	}()
}

// StartGame begins a new game session. A nil sequence lets the engine draw
// a random one from the library.
func (a *App) StartGame(sequence []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.Start(sequence, time.Now())
}

// UpdateGame feeds one detection result into the game engine. The pipeline
// calls this every frame; tests can call it directly with fixed times.
func (a *App) UpdateGame(pose *detector.Pose, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.Update(pose, now)
}

// StopGame ends the current game session.
func (a *App) StopGame() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.Stop()
}

// Snapshot captures the current game state for renderers and API clients.
func (a *App) Snapshot() *game.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := time.Now()
	state := a.engine.State()
	return &game.Snapshot{
		State:          state,
		TargetPoseName: a.engine.CurrentPoseName(),
		HoldProgress:   a.engine.Progress(now),
		RemainingPoses: a.engine.RemainingPoses(),
		GameTime:       a.engine.GameTime(now).Seconds(),
	}
}

// Start begins the game pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Game pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	a.engine.Stop()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.presence.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Game pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// PresenceDetector returns the player presence detector.
func (a *App) PresenceDetector() *capture.PresenceDetector {
	return a.presence
}

// Library returns the pose library.
func (a *App) Library() *dance.Library {
	return a.library
}

// Matcher returns the pose matcher.
func (a *App) Matcher() *dance.Matcher {
	return a.matcher
}

// EffectManager returns the effect manager.
func (a *App) EffectManager() *effect.Manager {
	return a.effectMgr
}

// EffectExecutor returns the effect executor.
func (a *App) EffectExecutor() *effect.Executor {
	return a.effectExec
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Store returns the backing database, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// IsPlaying reports whether a game session is in progress.
func (a *App) IsPlaying() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.State().IsPlaying
}
