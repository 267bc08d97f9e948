package effect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeManifest(t *testing.T, root, name string, events []string) string {
	t.Helper()

	effectDir := filepath.Join(root, name)
	if err := os.MkdirAll(effectDir, 0755); err != nil {
		t.Fatalf("failed to create effect dir: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: name + ".sh",
		Events:     events,
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(effectDir, "effect.json"), manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return effectDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tandava-effect-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	effectDir := writeManifest(t, tmpDir, "announcer", []string{EventPoseCompleted, EventGameOver})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	effects := manager.List()
	if len(effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(effects))
	}

	effect := effects[0]
	if effect.Manifest.Name != "announcer" {
		t.Errorf("expected effect name 'announcer', got %q", effect.Manifest.Name)
	}
	if effect.Path != effectDir {
		t.Errorf("expected path %q, got %q", effectDir, effect.Path)
	}
	if effect.Executable != filepath.Join(effectDir, "announcer.sh") {
		t.Errorf("unexpected executable path %q", effect.Executable)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := NewManager("/nonexistent/effects")
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir should succeed, got: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Errorf("expected no effects, got %d", len(manager.List()))
	}
}

func TestManager_Discover_SkipsInvalidManifest(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tandava-effect-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	writeManifest(t, tmpDir, "good", []string{EventGameOver})

	badDir := filepath.Join(tmpDir, "bad")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("failed to create effect dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "effect.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	effects := manager.List()
	if len(effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(effects))
	}
	if effects[0].Manifest.Name != "good" {
		t.Errorf("expected surviving effect 'good', got %q", effects[0].Manifest.Name)
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir())
	if _, err := manager.Get("missing"); err != ErrEffectNotFound {
		t.Errorf("expected ErrEffectNotFound, got %v", err)
	}
}

func TestManager_ForEvent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tandava-effect-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	writeManifest(t, tmpDir, "announcer", []string{EventPoseCompleted, EventGameOver})
	writeManifest(t, tmpDir, "fireworks", []string{EventGameOver})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if got := manager.ForEvent(EventGameOver); len(got) != 2 {
		t.Errorf("expected 2 effects for %q, got %d", EventGameOver, len(got))
	}
	if got := manager.ForEvent(EventPoseCompleted); len(got) != 1 {
		t.Errorf("expected 1 effect for %q, got %d", EventPoseCompleted, len(got))
	}
	if got := manager.ForEvent("unknown_event"); len(got) != 0 {
		t.Errorf("expected 0 effects for unknown event, got %d", len(got))
	}
}

func TestExecutor_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir, err := os.MkdirTemp("", "tandava-executor-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Echoes the received event back in the response data.
	scriptContent := `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`
	scriptPath := filepath.Join(tmpDir, "echo-effect.sh")
	if err := os.WriteFile(scriptPath, []byte(scriptContent), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	effect := &Effect{
		Manifest: Manifest{
			Name:       "echo-effect",
			Version:    "1.0.0",
			Executable: "echo-effect.sh",
			Events:     []string{EventPoseCompleted},
		},
		Path:       tmpDir,
		Executable: scriptPath,
	}

	event := &Event{
		Event: EventPoseCompleted,
		Pose:  "T-Pose",
		Score: 12.5,
		Combo: 3,
	}

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(effect, event)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data struct {
		Received Event `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Received.Pose != "T-Pose" {
		t.Errorf("expected pose 'T-Pose', got %q", data.Received.Pose)
	}
	if data.Received.Combo != 3 {
		t.Errorf("expected combo 3, got %d", data.Received.Combo)
	}
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir, err := os.MkdirTemp("", "tandava-executor-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptContent := `#!/bin/sh
sleep 10
echo '{"success":true}'
`
	scriptPath := filepath.Join(tmpDir, "slow-effect.sh")
	if err := os.WriteFile(scriptPath, []byte(scriptContent), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	effect := &Effect{
		Manifest:   Manifest{Name: "slow-effect", Executable: "slow-effect.sh"},
		Path:       tmpDir,
		Executable: scriptPath,
	}

	executor := NewExecutor(100 * time.Millisecond)
	_, err = executor.Execute(effect, &Event{Event: EventGameOver})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_Execute_BadOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir, err := os.MkdirTemp("", "tandava-executor-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptContent := `#!/bin/sh
echo "this is not json"
`
	scriptPath := filepath.Join(tmpDir, "bad-effect.sh")
	if err := os.WriteFile(scriptPath, []byte(scriptContent), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	effect := &Effect{
		Manifest:   Manifest{Name: "bad-effect", Executable: "bad-effect.sh"},
		Path:       tmpDir,
		Executable: scriptPath,
	}

	executor := NewExecutor(5 * time.Second)
	_, err = executor.Execute(effect, &Event{Event: EventGameOver})
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestEffect_Handles(t *testing.T) {
	effect := &Effect{Manifest: Manifest{Events: []string{EventPoseCompleted}}}
	if !effect.Handles(EventPoseCompleted) {
		t.Error("expected Handles(pose_completed) to be true")
	}
	if effect.Handles(EventGameOver) {
		t.Error("expected Handles(game_over) to be false")
	}
}
