package watchlater

import (
	"context"

	"github.com/tapeworks/watchlater/internal/ports"
)

// Logger is the structured logging interface handed to plugins.
type Logger = ports.Logger

// Store is the position store interface handed to plugins.
type Store = ports.PositionStore

// Plugin extends a watchlater instance with optional functionality.
// Plugins are initialized in registration order when the instance starts
// and shut down in reverse order when it stops.
type Plugin interface {
	// Name returns the plugin identifier, used in logs.
	Name() string

	// Initialize sets up the plugin. The context is canceled when the
	// instance stops; long-running plugin work should watch it.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its work to finish.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to each plugin on Initialize.
type PluginConfig struct {
	// StateDir is the instance's data directory.
	StateDir string

	// DBPath is the position database path.
	DBPath string

	// ConfigPath is the TOML config file the instance was loaded from.
	// Empty when the instance was configured programmatically.
	ConfigPath string

	// Logger is the instance's logger.
	Logger Logger

	// Store is the instance's position store.
	Store Store

	// Tracker lets plugins adjust the running tracker.
	Tracker TrackerControl
}

// TrackerControl is the subset of the instance API exposed to plugins.
type TrackerControl interface {
	// ApplyTuning replaces the runtime-tunable settings (intervals and
	// the save window) with those from cfg. Storage paths and the
	// listen address are fixed at New and ignored here.
	ApplyTuning(cfg Config)
}
