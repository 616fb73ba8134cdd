package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tapeworks/watchlater/internal/domain"
	"github.com/tapeworks/watchlater/internal/ports"
)

// flushTimeout bounds the final save when the run context is already gone.
const flushTimeout = 5 * time.Second

// TrackerConfig contains the runtime-tunable settings of the tracker.
type TrackerConfig struct {
	// RestartLast enables auto-resume of the most recently played file.
	RestartLast bool

	// RestartDelay is how long after Run the auto-resume fires, unless a
	// file is opened manually first.
	RestartDelay time.Duration

	// UpdateInterval is how often the current position is persisted while
	// a file plays.
	UpdateInterval time.Duration

	// Window gates which positions are persisted.
	Window domain.Window
}

// SessionEventEmitter is called when a position is saved or a resume is served.
type SessionEventEmitter interface {
	OnPositionSaved(path string, position time.Duration, at time.Time)
	OnResume(path string, position time.Duration, auto bool)
}

// Tracker is the session core: it owns the current playback session,
// persists gated positions on an interval, serves resume positions on
// file-open, and schedules the startup auto-resume.
//
// The host signals arrive through FileOpened, Progress and FileClosed. They
// may be called from the host's thread, the HTTP API and the internal save
// ticker concurrently, so all session state is guarded by a mutex.
type Tracker struct {
	store   ports.PositionStore
	player  ports.Player
	logger  ports.Logger
	emitter SessionEventEmitter
	now     func() time.Time

	mu          sync.Mutex
	cfg         TrackerConfig
	session     *domain.Session
	opened      bool // a file was opened manually since Run
	resumeTimer *time.Timer
}

// NewTracker creates a tracker. player and emitter may be nil; now defaults
// to time.Now when nil.
func NewTracker(cfg TrackerConfig, store ports.PositionStore, player ports.Player, logger ports.Logger, emitter SessionEventEmitter, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		store:   store,
		player:  player,
		logger:  logger,
		emitter: emitter,
		now:     now,
		cfg:     cfg,
	}
}

// Run drives the periodic save loop until the context is canceled. On exit
// it performs a final save of the open session so a crash-free shutdown
// never loses more than one interval of progress.
func (t *Tracker) Run(ctx context.Context) error {
	t.scheduleAutoResume(ctx)
	defer t.cancelAutoResume()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			t.SaveCurrent(flushCtx)
			cancel()
			return ctx.Err()
		case <-time.After(t.updateInterval()):
			t.SaveCurrent(ctx)
		}
	}
}

// FileOpened handles the host's file-opened signal. Any pending auto-resume
// is cancelled, a still-open previous session gets a final save, and a new
// session begins. The returned position is the stored resume point for the
// file; ok is false when there is none or it lies outside [0, duration).
//
// A store lookup failure is treated as "no saved position" and logged; the
// host can always start playback from the beginning.
func (t *Tracker) FileOpened(ctx context.Context, path string, duration time.Duration) (time.Duration, bool, error) {
	t.mu.Lock()
	t.cancelAutoResumeLocked()
	t.opened = true
	previous := t.session
	t.session = &domain.Session{
		ID:       uuid.New(),
		Path:     path,
		Duration: duration,
		OpenedAt: t.now(),
	}
	id := t.session.ID
	window := t.cfg.Window
	t.mu.Unlock()

	if previous != nil {
		t.persist(ctx, previous, window)
	}

	t.logger.Debug("file opened",
		ports.String("session", id.String()),
		ports.String("path", path),
		ports.Duration("duration", duration),
	)

	record, ok, err := t.store.Load(ctx, path)
	if err != nil {
		t.logger.Error("position lookup failed", ports.String("path", path), ports.Err(err))
		return 0, false, nil
	}
	if !ok || !record.InBounds(duration) {
		return 0, false, nil
	}
	if t.emitter != nil {
		t.emitter.OnResume(path, record.Position, false)
	}
	return record.Position, true, nil
}

// Progress records the current playback position of the open session. The
// position is persisted by the save loop, not here.
func (t *Tracker) Progress(position time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return domain.ErrNoSession
	}
	t.session.Position = position
	return nil
}

// FileClosed handles the host's file-closed signal: a final gated save, then
// the session ends. When the host reports a final position it wins over the
// last Progress value.
func (t *Tracker) FileClosed(ctx context.Context, position *time.Duration) error {
	t.mu.Lock()
	session := t.session
	t.session = nil
	window := t.cfg.Window
	t.mu.Unlock()

	if session == nil {
		return domain.ErrNoSession
	}
	if position != nil {
		session.Position = *position
	}
	t.persist(ctx, session, window)
	t.logger.Debug("file closed",
		ports.String("session", session.ID.String()),
		ports.String("path", session.Path),
	)
	return nil
}

// SaveCurrent persists the open session's position if it is inside the save
// window. Called by the run loop on every interval; safe to call anytime.
func (t *Tracker) SaveCurrent(ctx context.Context) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	snapshot := *t.session
	window := t.cfg.Window
	t.mu.Unlock()

	t.persist(ctx, &snapshot, window)
}

// Session returns the path of the currently open file, if any.
func (t *Tracker) Session() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return "", false
	}
	return t.session.Path, true
}

// SessionInfo returns the id and path of the currently open session.
func (t *Tracker) SessionInfo() (uuid.UUID, string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return uuid.Nil, "", false
	}
	return t.session.ID, t.session.Path, true
}

// Tune replaces the runtime-tunable settings. The next save tick picks up
// the new interval and window.
func (t *Tracker) Tune(cfg TrackerConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// Config returns the current runtime-tunable settings.
func (t *Tracker) Config() TrackerConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// persist writes a gated snapshot of a session. Positions outside the save
// window leave the stored record untouched. Storage failures are logged and
// swallowed; losing one save must never take down the host.
func (t *Tracker) persist(ctx context.Context, session *domain.Session, window domain.Window) {
	if !window.Contains(session.Position, session.Duration) {
		t.logger.Debug("position outside save window",
			ports.String("path", session.Path),
			ports.Duration("position", session.Position),
		)
		return
	}

	record := domain.PositionRecord{
		Path:      session.Path,
		Position:  window.Apply(session.Position),
		Duration:  session.Duration,
		UpdatedAt: t.now(),
	}
	if err := t.store.Save(ctx, record); err != nil {
		t.logger.Error("failed to save position",
			ports.String("path", session.Path),
			ports.Err(err),
		)
		return
	}

	if t.emitter != nil {
		t.emitter.OnPositionSaved(record.Path, record.Position, record.UpdatedAt)
	}
	t.logger.Debug("position saved",
		ports.String("path", record.Path),
		ports.Duration("position", record.Position),
	)
}

func (t *Tracker) updateInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.UpdateInterval
}

// scheduleAutoResume arms the startup auto-resume timer. Nothing is armed
// without a player to command, when auto-resume is disabled, or when a file
// was already opened manually.
func (t *Tracker) scheduleAutoResume(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cfg.RestartLast || t.player == nil || t.opened {
		return
	}
	t.resumeTimer = time.AfterFunc(t.cfg.RestartDelay, func() {
		t.autoResume(ctx)
	})
}

func (t *Tracker) cancelAutoResume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelAutoResumeLocked()
}

func (t *Tracker) cancelAutoResumeLocked() {
	if t.resumeTimer != nil {
		t.resumeTimer.Stop()
		t.resumeTimer = nil
	}
}

// autoResume loads the most recently played file into the player. Fires at
// most once, and only if no file was opened manually in the meantime.
func (t *Tracker) autoResume(ctx context.Context) {
	t.mu.Lock()
	if t.opened {
		t.mu.Unlock()
		return
	}
	player := t.player
	t.mu.Unlock()

	record, ok, err := t.store.MostRecent(ctx)
	if err != nil {
		t.logger.Error("auto-resume lookup failed", ports.Err(err))
		return
	}
	if !ok {
		t.logger.Debug("auto-resume: nothing to resume")
		return
	}

	if err := player.Load(ctx, record.Path, record.Position); err != nil {
		t.logger.Warn("auto-resume load failed",
			ports.String("path", record.Path),
			ports.Err(err),
		)
		return
	}
	if t.emitter != nil {
		t.emitter.OnResume(record.Path, record.Position, true)
	}
	t.logger.Info("auto-resumed last played file",
		ports.String("path", record.Path),
		ports.Duration("position", record.Position),
	)
}
