package effect

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrEffectNotFound is returned when a requested effect cannot be found.
var ErrEffectNotFound = errors.New("effect not found")

// Manager manages effect discovery and access.
type Manager struct {
	effectDir string
	effects   map[string]*Effect
	mu        sync.RWMutex
}

// NewManager creates a new effect Manager rooted at the given directory.
func NewManager(effectDir string) *Manager {
	return &Manager{
		effectDir: effectDir,
		effects:   make(map[string]*Effect),
	}
}

// Discover scans the effect directory and loads every subdirectory that
// carries an effect.json manifest. Unreadable or malformed manifests are
// skipped rather than failing the whole scan.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.effects = make(map[string]*Effect)

	info, err := os.Stat(m.effectDir)
	if os.IsNotExist(err) {
		return nil // no effects directory, nothing to discover
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.effectDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		effectPath := filepath.Join(m.effectDir, entry.Name())
		manifestPath := filepath.Join(effectPath, "effect.json")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			continue
		}

		m.effects[manifest.Name] = &Effect{
			Manifest:   manifest,
			Path:       effectPath,
			Executable: filepath.Join(effectPath, manifest.Executable),
		}
	}

	return nil
}

// Get returns an effect by name.
// Returns ErrEffectNotFound if the effect does not exist.
func (m *Manager) Get(name string) (*Effect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	effect, ok := m.effects[name]
	if !ok {
		return nil, ErrEffectNotFound
	}

	return effect, nil
}

// List returns a slice of all discovered effects.
func (m *Manager) List() []*Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()

	effects := make([]*Effect, 0, len(m.effects))
	for _, effect := range m.effects {
		effects = append(effects, effect)
	}

	return effects
}

// ForEvent returns the effects subscribed to the given event name.
func (m *Manager) ForEvent(event string) []*Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Effect
	for _, effect := range m.effects {
		if effect.Handles(event) {
			matched = append(matched, effect)
		}
	}

	return matched
}

// EffectDir returns the effect directory path.
func (m *Manager) EffectDir() string {
	return m.effectDir
}
