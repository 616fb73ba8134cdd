package janitor

import "github.com/tapeworks/watchlater/pkg/watchlater"

// WithJanitor registers a janitor plugin with the given options.
func WithJanitor(opts Options) watchlater.Option {
	return watchlater.WithPlugin(New(opts))
}

// WithDefaultJanitor registers a janitor plugin with default options.
func WithDefaultJanitor() watchlater.Option {
	return watchlater.WithPlugin(New(Options{}))
}
