package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vk/rendergraph/internal/flavor"
)

// DefaultFrameInterval paces the live preview loop.
const DefaultFrameInterval = 16 * time.Millisecond

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string
	Flavor    flavor.Flavor
	// Frames is the number of frames to execute. Zero with the HTTP server
	// enabled runs frames until the context is cancelled.
	Frames        int
	FrameInterval time.Duration

	PresetPath string
	// PresetOut receives the final variable values as a TOML preset.
	PresetOut   string
	SnapshotIn  string
	SnapshotOut string
	// OutputPath receives generated source; empty means the app's writer.
	OutputPath string
	// Sets are "name=value" overrides applied after presets and snapshots.
	Sets []string

	// PublishURL, when set, streams every frame to a socket.io viewer.
	PublishURL       string
	PublishNamespace string
	PublishInsecure  bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if !cfg.Flavor.Known() {
		return nil, fmt.Errorf("unknown build flavor %q", cfg.Flavor)
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.PublishURL != "" && cfg.Flavor.Backend != flavor.BackendInterpreter {
		return nil, fmt.Errorf("publishing frames requires an interpreter flavor, got %s", cfg.Flavor)
	}
	for _, s := range cfg.Sets {
		if name, _, ok := strings.Cut(s, "="); !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid override %q: expected name=value", s)
		}
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	return &cfg, nil
}
