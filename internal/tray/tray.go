// Package tray provides a macOS system tray interface for the Tandava dance game.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle   func(playing bool)
	onSettings func()
	onQuit     func()
	playing    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuScore  *systray.MenuItem
}

// New creates a new Tray instance with no game in progress.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback invoked when the game is started or stopped
// from the menu. The argument is the new desired state.
func (t *Tray) OnToggle(fn func(playing bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback invoked when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback invoked when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Tandava")
	systray.SetTooltip("Tandava Dance Game")

	t.menuToggle = systray.AddMenuItem("▶ Start Game", "Start a dance session")
	systray.AddSeparator()

	t.menuScore = systray.AddMenuItem("Score: -", "Current score")
	t.menuScore.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Tandava")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the start/stop menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.playing = !t.playing
	playing := t.playing

	if playing {
		t.menuToggle.SetTitle("■ Stop Game")
	} else {
		t.menuToggle.SetTitle("▶ Start Game")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(playing)
	}
}

// handleSettings handles the dashboard menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetScore updates the score display in the menu.
func (t *Tray) SetScore(score float64, combo int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuScore == nil {
		return
	}
	if combo > 1 {
		t.menuScore.SetTitle(fmt.Sprintf("Score: %.0f (combo x%d)", score, combo))
	} else {
		t.menuScore.SetTitle(fmt.Sprintf("Score: %.0f", score))
	}
}

// SetPlaying synchronizes the menu with a game state change that did not
// come from the menu itself, e.g. an automatic game over.
func (t *Tray) SetPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.playing == playing {
		return
	}
	t.playing = playing

	if t.menuToggle == nil {
		return
	}
	if playing {
		t.menuToggle.SetTitle("■ Stop Game")
	} else {
		t.menuToggle.SetTitle("▶ Start Game")
	}
}

// IsPlaying returns whether the menu believes a game is in progress.
func (t *Tray) IsPlaying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}
