// Package janitor periodically removes stored positions whose media files
// no longer exist on disk, keeping the database from accumulating entries
// for deleted or moved files.
package janitor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/tapeworks/watchlater/internal/ports"
	"github.com/tapeworks/watchlater/pkg/watchlater"
)

const pluginName = "janitor"

// DefaultCheckInterval is how often stale records are swept.
const DefaultCheckInterval = 6 * time.Hour

// Options configures the janitor plugin.
type Options struct {
	// CheckInterval is the time between sweeps. Defaults to
	// DefaultCheckInterval when zero.
	CheckInterval time.Duration

	// RunImmediately performs a sweep right at startup instead of waiting
	// for the first interval.
	RunImmediately bool
}

// Plugin sweeps the position store for records of missing files.
type Plugin struct {
	opts Options

	mu       sync.Mutex
	store    ports.PositionStore
	logger   ports.Logger
	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a janitor plugin.
func New(opts Options) *Plugin {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	return &Plugin{opts: opts, stop: make(chan struct{})}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return pluginName }

// Initialize starts the sweep loop.
func (p *Plugin) Initialize(ctx context.Context, cfg watchlater.PluginConfig) error {
	p.mu.Lock()
	p.store = cfg.Store
	p.logger = cfg.Logger
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)
	return nil
}

// Shutdown stops the sweep loop and waits for an in-flight sweep to finish.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })

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

	if p.opts.RunImmediately {
		p.sweep(ctx)
	}

	ticker := time.NewTicker(p.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// sweep deletes records whose file is gone. Stat errors other than
// not-exist leave the record alone; an unreadable mount is not a deleted
// file.
func (p *Plugin) sweep(ctx context.Context) {
	records, err := p.store.List(ctx)
	if err != nil {
		p.logger.Warn("janitor sweep failed", ports.Err(err))
		return
	}

	removed := 0
	for _, record := range records {
		if _, err := os.Stat(record.Path); !os.IsNotExist(err) {
			continue
		}
		if err := p.store.Delete(ctx, record.Path); err != nil {
			p.logger.Warn("janitor delete failed",
				ports.String("path", record.Path),
				ports.Err(err),
			)
			continue
		}
		removed++
		p.logger.Debug("removed stale record", ports.String("path", record.Path))
	}

	if removed > 0 {
		p.logger.Info("janitor sweep complete",
			ports.Int("checked", len(records)),
			ports.Int("removed", removed),
		)
	}
}
