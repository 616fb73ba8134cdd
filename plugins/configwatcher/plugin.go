// Package configwatcher reloads runtime-tunable settings when the config
// file changes, so interval or window edits take effect without restarting
// the daemon.
package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tapeworks/watchlater/internal/cliconfig"
	"github.com/tapeworks/watchlater/internal/ports"
	"github.com/tapeworks/watchlater/pkg/watchlater"
)

const pluginName = "configwatcher"

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 100 * time.Millisecond

// Plugin watches the TOML config file and applies tunable changes to the
// running tracker.
type Plugin struct {
	path string

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	logger   ports.Logger
	tracker  watchlater.TrackerControl
	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a config watcher for the given file. An empty path defers to
// PluginConfig.ConfigPath at Initialize time.
func New(path string) *Plugin {
	return &Plugin{path: path, stop: make(chan struct{})}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return pluginName }

// Initialize starts watching the config file's directory. Watching the
// directory rather than the file survives editors that replace the file on
// save.
func (p *Plugin) Initialize(ctx context.Context, cfg watchlater.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" {
		p.path = cfg.ConfigPath
	}
	if p.path == "" {
		return fmt.Errorf("configwatcher: no config file to watch")
	}
	p.logger = cfg.Logger
	p.tracker = cfg.Tracker

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("configwatcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("configwatcher: watch %s: %w", filepath.Dir(p.path), err)
	}
	p.watcher = watcher

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("watching config file", ports.String("path", p.path))
	return nil
}

// Shutdown stops the watcher and waits for the event loop to exit.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })

	p.mu.Lock()
	watcher := p.watcher
	p.mu.Unlock()
	if watcher != nil {
		_ = watcher.Close()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Plugin) run(ctx context.Context) {
	defer p.wg.Done()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, p.reload)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("config watch error", ports.Err(err))
		}
	}
}

// reload parses the config file and applies the tunables. A file that fails
// to parse leaves the previous settings in place.
func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config reload failed",
			ports.String("path", p.path),
			ports.Err(err),
		)
		return
	}

	cfg := watchlater.DefaultConfig()
	if err := cliconfig.ApplyFileConfig(&cfg, fc, nil); err != nil {
		p.logger.Warn("config reload failed",
			ports.String("path", p.path),
			ports.Err(err),
		)
		return
	}

	p.tracker.ApplyTuning(cfg)
	p.logger.Info("config reloaded", ports.String("path", p.path))
}
