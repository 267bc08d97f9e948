package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ayusman/tandava/internal/app"
	"github.com/ayusman/tandava/internal/config"
	"github.com/ayusman/tandava/internal/server"
	"github.com/ayusman/tandava/internal/store"
	"github.com/ayusman/tandava/internal/tray"
)

func main() {
	fmt.Println("Tandava - Movement Matching Dance Game")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application := app.New(app.Config{
		Store:          st,
		EffectDir:      cfg.EffectDir,
		CameraID:       cfg.CameraID,
		ActiveFPS:      cfg.ActiveFPS,
		PresenceThresh: cfg.PresenceThresh,
	})

	if err := application.LoadPoses(); err != nil {
		log.Fatalf("Failed to load poses: %v", err)
	}
	if err := application.DiscoverEffects(); err != nil {
		log.Printf("Effect discovery failed: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start game pipeline: %v", err)
	}
	defer application.Stop()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:    staticDir,
		Store:        st,
		Game:         application,
		Camera:       application.Camera(),
		Effects:      application.EffectManager(),
		EffectExec:   application.EffectExecutor(),
		OnPoseChange: func() { application.LoadPoses() },
	})

	fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if cfg.Headless {
		select {}
	}

	runTray(application, cfg.ListenAddr)
}

// runTray wires the system tray to the game and blocks until quit.
func runTray(application *app.App, addr string) {
	t := tray.New()

	t.OnToggle(func(playing bool) {
		if playing {
			application.StartGame(nil)
		} else {
			application.StopGame()
		}
	})
	t.OnSettings(func() {
		url := "http://" + addr
		if err := exec.Command("open", url).Start(); err != nil {
			log.Printf("Failed to open %s: %v", url, err)
		}
	})
	t.OnQuit(func() {
		application.Stop()
	})

	// Keep the score display and start/stop state in sync with the game.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			snap := application.Snapshot()
			t.SetScore(snap.State.Score, snap.State.ComboCount)
			t.SetPlaying(snap.State.IsPlaying)
		}
	}()

	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.tandava/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".tandava", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
