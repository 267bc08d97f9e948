package app

import (
	"log"
	"time"
)

// runPipeline is the main game loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on
// player presence.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. On a player appearing, switch to active mode (ActiveFPS)
// 3. Run pose detection and feed the result into the game engine
// 4. When the player leaves, feed nil detections so holds break, then
//    switch back to idle mode once the presence window lapses
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			now := time.Now()
			present, _ := a.presence.Observe(frame, now)

			if present && !activeMode {
				activeMode = true
				a.camera.SetFPS(a.config.ActiveFPS)
				frameInterval = time.Second / time.Duration(a.config.ActiveFPS)
				ticker.Reset(frameInterval)
				log.Println("Player present, switched to active mode")
			}

			if !present {
				frame.Close()

				// Holds must not survive the player walking away.
				a.UpdateGame(nil, now)

				if activeMode {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Player left, switched to idle mode")
				}
				continue
			}

			if a.Detector() == nil || !a.IsPlaying() {
				frame.Close()
				continue
			}

			pose, err := a.Detector().Detect(frame)
			frame.Close()
			if err != nil {
				log.Printf("Error detecting pose: %v", err)
				continue
			}

			a.UpdateGame(pose, time.Now())
		}
	}
}
