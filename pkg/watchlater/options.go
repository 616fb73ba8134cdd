package watchlater

import (
	"time"

	"github.com/tapeworks/watchlater/internal/ports"
)

// Player commands the host media player for auto-resume.
type Player = ports.Player

// Option configures optional behavior of a watchlater instance.
type Option func(*options)

// options holds the optional configuration for a watchlater instance.
type options struct {
	logger       ports.Logger
	store        ports.PositionStore
	player       ports.Player
	eventHandler EventHandler
	plugins      []Plugin
	configPath   string
	now          func() time.Time
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore sets a custom position store. If not provided, a SQLite store
// is opened at Config.DBPath and closed again on Stop.
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithPlayer sets the player used for auto-resume. Embedded hosts pass
// their own implementation; without one (and without a ResumeCommand),
// auto-resume stays disarmed.
func WithPlayer(player Player) Option {
	return func(o *options) {
		o.player = player
	}
}

// WithEventHandler sets a handler for watchlater events.
// Events are called synchronously from the tracker goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the instance starts.
// Plugins are initialized in registration order and shut down in reverse
// order. Built-in plugins ship their own options, e.g.
// configwatcher.WithConfigWatcher().
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithConfigPath records the TOML config file the instance was loaded from
// so plugins (notably the config watcher) can find it.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithClock sets the time source used for record timestamps. Meant for
// tests; defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
