// Package watchlater provides an embeddable playback-position tracker.
// It persists how far into each media file the host player got, hands the
// position back when the file is reopened, and can relaunch the most
// recently played file after a startup delay.
//
// Basic usage:
//
//	w, err := watchlater.New(watchlater.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := w.Start(ctx); err != nil {
//		return err
//	}
//	defer w.Stop()
//
//	// on file open:
//	resume, ok, _ := w.FileOpened(ctx, path, duration)
//	// on playback progress:
//	_ = w.Progress(position)
//	// on file close:
//	_ = w.FileClosed(ctx, nil)
package watchlater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tapeworks/watchlater/internal/adapters/execplayer"
	"github.com/tapeworks/watchlater/internal/adapters/sqlite"
	"github.com/tapeworks/watchlater/internal/app"
	"github.com/tapeworks/watchlater/internal/domain"
	"github.com/tapeworks/watchlater/internal/ports"
	"github.com/tapeworks/watchlater/pkg/log"
)

// Watchlater is an embeddable position tracker instance.
type Watchlater struct {
	config Config
	opts   options

	lifecycle *app.Lifecycle
	tracker   *app.Tracker
	store     ports.PositionStore
	ownStore  bool
	logger    ports.Logger
	plugins   []Plugin

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a watchlater instance. The config is validated and filled
// with defaults; unless WithStore is given, a SQLite store is opened at
// Config.DBPath (creating Config.StateDir if needed).
func New(cfg Config, opts ...Option) (*Watchlater, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	store := o.store
	ownStore := false
	if store == nil {
		if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		s, err := sqlite.Open(cfg.DBPath, sqlite.Options{})
		if err != nil {
			return nil, fmt.Errorf("open position store: %w", err)
		}
		store = s
		ownStore = true
	}

	player := o.player
	if player == nil && cfg.ResumeCommand != "" {
		p, err := execplayer.New(cfg.ResumeCommand, logger)
		if err != nil {
			if ownStore {
				_ = store.Close()
			}
			return nil, err
		}
		player = p
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	lifecycle := app.NewLifecycle(logger, emitter)
	tracker := app.NewTracker(trackerConfig(cfg), store, player, logger, emitter, o.now)

	return &Watchlater{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		tracker:   tracker,
		store:     store,
		ownStore:  ownStore,
		logger:    logger,
		plugins:   o.plugins,
	}, nil
}

// Start launches the tracker and initializes registered plugins. It returns
// ErrAlreadyRunning if the instance is already started.
func (w *Watchlater) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStarting, "start requested"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		StateDir:   w.config.StateDir,
		DBPath:     w.config.DBPath,
		ConfigPath: w.opts.configPath,
		Logger:     w.logger,
		Store:      w.store,
		Tracker:    w,
	}
	for i, plugin := range w.plugins {
		if err := plugin.Initialize(runCtx, pluginCfg); err != nil {
			// Unwind the plugins that already came up.
			for j := i - 1; j >= 0; j-- {
				_ = w.plugins[j].Shutdown(context.Background())
			}
			cancel()
			_ = w.lifecycle.TransitionTo(app.StateCrashed, "plugin initialization failed")
			return fmt.Errorf("initialize plugin %s: %w", plugin.Name(), err)
		}
		w.logger.Debug("plugin initialized", ports.String("plugin", plugin.Name()))
	}

	w.lifecycle.AddWorker()
	go func() {
		defer w.lifecycle.WorkerDone()
		if err := w.tracker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("tracker exited", ports.Err(err))
			_ = w.lifecycle.TransitionTo(app.StateCrashed, "tracker failed")
		}
	}()

	if err := w.lifecycle.TransitionTo(app.StateRunning, "startup complete"); err != nil {
		return err
	}
	w.logger.Info("watchlater started",
		ports.String("db", w.config.DBPath),
		ports.Bool("restart_last", w.config.RestartLast),
	)
	return nil
}

// Stop gracefully shuts the instance down: the tracker performs a final
// save, plugins shut down in reverse order, and an owned store is closed.
// Returns ErrNotRunning if the instance is not started and
// ErrShutdownTimeout if workers do not finish in time.
func (w *Watchlater) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStopping, "stop requested"); err != nil {
		return err
	}

	if w.cancel != nil {
		w.cancel()
	}
	waitErr := w.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	for i := len(w.plugins) - 1; i >= 0; i-- {
		plugin := w.plugins[i]
		if err := plugin.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("plugin shutdown failed",
				ports.String("plugin", plugin.Name()),
				ports.Err(err),
			)
		}
	}

	if w.ownStore {
		if err := w.store.Close(); err != nil {
			w.logger.Warn("closing position store failed", ports.Err(err))
		}
	}

	if waitErr != nil {
		_ = w.lifecycle.TransitionTo(app.StateCrashed, "shutdown timed out")
		return waitErr
	}
	if err := w.lifecycle.TransitionTo(app.StateStopped, "shutdown complete"); err != nil {
		return err
	}
	w.logger.Info("watchlater stopped")
	return nil
}

// Status returns the current lifecycle state.
func (w *Watchlater) Status() State {
	return convertState(w.lifecycle.State())
}

// FileOpened tells the tracker a file was opened and returns the stored
// resume position for it. ok is false when there is nothing to resume.
// Any pending startup auto-resume is cancelled.
func (w *Watchlater) FileOpened(ctx context.Context, path string, duration time.Duration) (time.Duration, bool, error) {
	return w.tracker.FileOpened(ctx, path, duration)
}

// Progress reports the current playback position of the open file. Returns
// ErrNoSession when no file is open.
func (w *Watchlater) Progress(position time.Duration) error {
	return w.tracker.Progress(position)
}

// FileClosed tells the tracker the open file was closed. When the host
// knows the final position it passes it; nil keeps the last Progress value.
func (w *Watchlater) FileClosed(ctx context.Context, position *time.Duration) error {
	return w.tracker.FileClosed(ctx, position)
}

// CurrentFile returns the path of the currently open file, if any.
func (w *Watchlater) CurrentFile() (string, bool) {
	return w.tracker.Session()
}

// CurrentSession returns the id and path of the open session, if any.
func (w *Watchlater) CurrentSession() (string, string, bool) {
	id, path, ok := w.tracker.SessionInfo()
	if !ok {
		return "", "", false
	}
	return id.String(), path, true
}

// Positions lists all stored positions, most recently updated first.
func (w *Watchlater) Positions(ctx context.Context) ([]domain.PositionRecord, error) {
	return w.store.List(ctx)
}

// Latest returns the most recently updated position record.
func (w *Watchlater) Latest(ctx context.Context) (domain.PositionRecord, bool, error) {
	return w.store.MostRecent(ctx)
}

// Forget removes the stored position for a path. Removing an absent path
// is not an error.
func (w *Watchlater) Forget(ctx context.Context, path string) error {
	return w.store.Delete(ctx, path)
}

// ApplyTuning replaces the runtime-tunable settings (intervals and the save
// window). Storage paths and the listen address are fixed at New; changes
// to them in cfg are ignored.
func (w *Watchlater) ApplyTuning(cfg Config) {
	cfg.SetDefaults()
	w.tracker.Tune(trackerConfig(cfg))
	w.logger.Info("tuning applied",
		ports.Duration("update_interval", cfg.UpdateInterval),
		ports.Duration("rewind_time", cfg.RewindTime),
		ports.Bool("restart_last", cfg.RestartLast),
	)
}

// trackerConfig maps the public config onto the tracker's tunables.
func trackerConfig(cfg Config) app.TrackerConfig {
	return app.TrackerConfig{
		RestartLast:    cfg.RestartLast,
		RestartDelay:   cfg.RestartDelay,
		UpdateInterval: cfg.UpdateInterval,
		Window: domain.Window{
			Min:    cfg.MinRuntime,
			Max:    cfg.MaxRuntime,
			Rewind: cfg.RewindTime,
		},
	}
}

var _ TrackerControl = (*Watchlater)(nil)
