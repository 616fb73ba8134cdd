package configwatcher

import "github.com/tapeworks/watchlater/pkg/watchlater"

// WithConfigWatcher registers a config watcher for the given file.
func WithConfigWatcher(path string) watchlater.Option {
	return watchlater.WithPlugin(New(path))
}

// WithDefaultConfigWatcher registers a config watcher for the file the
// instance was loaded from (watchlater.WithConfigPath).
func WithDefaultConfigWatcher() watchlater.Option {
	return watchlater.WithPlugin(New(""))
}
