// Package watchlater remembers playback positions so media players can
// pick up where the viewer stopped watching.
//
// Example usage:
//
//	cfg := watchlater.DefaultConfig()
//	if err := watchlater.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// The full embeddable API lives in pkg/watchlater; this package is a thin
// facade over it.
package watchlater

import (
	"context"

	lib "github.com/tapeworks/watchlater/pkg/watchlater"
)

// Config holds the configuration for a watchlater instance.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = lib.Config

// Option configures optional behavior of a watchlater instance.
type Option = lib.Option

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return lib.DefaultConfig()
}

// New creates a watchlater instance. See pkg/watchlater for the instance
// API and options.
func New(cfg Config, opts ...Option) (*lib.Watchlater, error) {
	return lib.New(cfg, opts...)
}

// Run starts a watchlater instance and blocks until the context is
// cancelled, then shuts it down gracefully.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	w, err := lib.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}
