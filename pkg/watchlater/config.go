package watchlater

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tapeworks/watchlater/internal/domain"
)

// Config holds the configuration for a watchlater instance.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// RestartLast enables auto-resume of the most recently played file
	// after RestartDelay, unless a file is opened manually first.
	RestartLast bool

	// RestartDelay is the startup delay before auto-resume fires.
	RestartDelay time.Duration

	// UpdateInterval is how often the playback position is persisted
	// while a file plays.
	UpdateInterval time.Duration

	// RewindTime is subtracted from the position at save time so resumed
	// playback backs up a little for context.
	RewindTime time.Duration

	// MinRuntime is the minimum playback offset before positions are
	// persisted. Barely-started files leave no record.
	MinRuntime time.Duration

	// MaxRuntime is the tail margin, measured from the end of the file.
	// Positions within it are not persisted, so a finished file does not
	// resume at the credits.
	MaxRuntime time.Duration

	// StateDir is where watchlater keeps its data. Defaults to
	// ~/.watchlater.
	StateDir string

	// DBPath is the position database. Derived from StateDir when empty.
	DBPath string

	// ListenAddr is the HTTP control API address, used by the daemon.
	ListenAddr string

	// ResumeCommand launches the player for auto-resume in daemon mode,
	// e.g. "mpv --start={{position}} {{path}}". Empty disables the
	// built-in player command; embedded hosts pass WithPlayer instead.
	ResumeCommand string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RestartLast:    true,
		RestartDelay:   2 * time.Second,
		UpdateInterval: 3 * time.Second,
		RewindTime:     10 * time.Second,
		MinRuntime:     2 * time.Minute,
		MaxRuntime:     90 * time.Second,
		ListenAddr:     "127.0.0.1:8994",
		LogLevel:       "info",
	}
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	defaults := DefaultConfig()
	if c.RestartDelay == 0 {
		c.RestartDelay = defaults.RestartDelay
	}
	if c.UpdateInterval == 0 {
		c.UpdateInterval = defaults.UpdateInterval
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaults.ListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("%w: state-dir is required when no home directory is available", domain.ErrInvalidConfig)
		}
		c.StateDir = filepath.Join(home, ".watchlater")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.StateDir, "positions.db")
	}

	if c.UpdateInterval <= 0 {
		return fmt.Errorf("%w: update interval must be positive", domain.ErrInvalidConfig)
	}
	if c.RestartDelay < 0 {
		return fmt.Errorf("%w: restart delay must not be negative", domain.ErrInvalidConfig)
	}
	if c.RewindTime < 0 || c.MinRuntime < 0 || c.MaxRuntime < 0 {
		return fmt.Errorf("%w: rewind, min-runtime and max-runtime must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
