package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/tandava/internal/app"
	"github.com/ayusman/tandava/internal/detector"
	"github.com/ayusman/tandava/internal/server"
	"github.com/ayusman/tandava/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application := app.New(app.Config{
		Store:     s,
		EffectDir: filepath.Join(tmpDir, "effects"),
	})

	mockDetector := detector.NewMockDetector()
	application.SetDetector(mockDetector)

	t.Run("LoadPoses", func(t *testing.T) {
		if err := application.LoadPoses(); err != nil {
			t.Fatalf("LoadPoses() error = %v", err)
		}
		if application.Library().Len() != 3 {
			t.Fatalf("library size = %d, want 3 seeded samples", application.Library().Len())
		}
	})

	srv := server.New(server.Config{
		Store:        s,
		Game:         application,
		OnPoseChange: func() { application.LoadPoses() },
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("TrainPose", func(t *testing.T) {
		body := `{
			"name": "Custom_Pose",
			"difficulty": "medium",
			"samples": [
				[{"index": 11, "x": 200, "y": 180, "confidence": 1.0},
				 {"index": 12, "x": 300, "y": 180, "confidence": 1.0}],
				[{"index": 11, "x": 204, "y": 184, "confidence": 1.0},
				 {"index": 12, "x": 304, "y": 184, "confidence": 1.0}]
			]
		}`
		resp, err := client.Post(ts.URL+"/api/poses/train", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("train pose error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		if !application.Library().Contains("Custom_Pose") {
			t.Error("trained pose missing from library")
		}
	})

	t.Run("PlaySession", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/game/start", "application/json",
			strings.NewReader(`{"sequence": ["T-Pose"]}`))
		if err != nil {
			t.Fatalf("game start error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("game start status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		// Drive the engine directly, as the pipeline would, holding the
		// target pose past the hold threshold.
		mockDetector.SetPose(detector.TPose())
		now := time.Now()
		for i := 0; i < 25; i++ {
			now = now.Add(100 * time.Millisecond)
			pose, err := mockDetector.Detect(nil)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			application.UpdateGame(pose, now)
		}

		resp, err = client.Get(ts.URL + "/api/game/state")
		if err != nil {
			t.Fatalf("game state error = %v", err)
		}
		var snap struct {
			State struct {
				Score      float64 `json:"score"`
				ComboCount int     `json:"combo_count"`
			} `json:"state"`
		}
		json.NewDecoder(resp.Body).Decode(&snap)
		resp.Body.Close()

		if snap.State.ComboCount < 1 {
			t.Errorf("combo = %d, want at least one completed pose", snap.State.ComboCount)
		}
		if snap.State.Score <= 0 {
			t.Errorf("score = %f, want positive", snap.State.Score)
		}

		resp, err = client.Post(ts.URL+"/api/game/stop", "application/json", nil)
		if err != nil {
			t.Fatalf("game stop error = %v", err)
		}
		resp.Body.Close()
		if application.IsPlaying() {
			t.Error("session still playing after stop")
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health check error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
		resp.Body.Close()
	})
}
