// Package config loads Tandava settings from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds the application settings. Every field has a TANDAVA_
// environment variable and a sensible default, so a bare invocation works.
type Config struct {
	// ListenAddr is the HTTP server bind address.
	ListenAddr string `env:"TANDAVA_LISTEN_ADDR" envDefault:"127.0.0.1:8345"`

	// CameraID selects the capture device.
	CameraID int `env:"TANDAVA_CAMERA_ID" envDefault:"0"`

	// ActiveFPS is the game loop frame rate while a player is present.
	ActiveFPS int `env:"TANDAVA_ACTIVE_FPS" envDefault:"15"`

	// PresenceThresh is the pixel-change percentage that counts as a
	// player being present.
	PresenceThresh float64 `env:"TANDAVA_PRESENCE_THRESHOLD" envDefault:"1.0"`

	// DBPath is the SQLite database location. Empty selects the default
	// under the data directory.
	DBPath string `env:"TANDAVA_DB_PATH"`

	// EffectDir is where effect binaries live. Empty selects the default
	// under the data directory.
	EffectDir string `env:"TANDAVA_EFFECT_DIR"`

	// StaticDir optionally serves a web UI from disk.
	StaticDir string `env:"TANDAVA_STATIC_DIR"`

	// Headless disables the system tray.
	Headless bool `env:"TANDAVA_HEADLESS" envDefault:"false"`
}

// Load parses the environment and fills in path defaults under the user's
// data directory (~/.tandava).
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" || cfg.EffectDir == "" {
		dataDir, err := DataDir()
		if err != nil {
			return nil, err
		}
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(dataDir, "tandava.db")
		}
		if cfg.EffectDir == "" {
			cfg.EffectDir = filepath.Join(dataDir, "effects")
		}
	}

	return &cfg, nil
}

// DataDir returns the per-user data directory, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	dir := filepath.Join(home, ".tandava")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
