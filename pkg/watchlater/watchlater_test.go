package watchlater

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tapeworks/watchlater/internal/domain"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StateDir = t.TempDir()
	cfg.RestartLast = false
	cfg.UpdateInterval = time.Hour // tests drive saves explicitly
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.UpdateInterval = -1 * time.Second

	if _, err := New(cfg); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewDerivesDBPath(t *testing.T) {
	cfg := testConfig(t)
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if w.Status() == StateRunning {
			_ = w.Stop()
		}
	}()

	want := filepath.Join(cfg.StateDir, "positions.db")
	if w.config.DBPath != want {
		t.Errorf("DBPath = %q, want %q", w.config.DBPath, want)
	}
}

func TestStartStop(t *testing.T) {
	w, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := w.Status(); got != StateStopped {
		t.Errorf("Status() before Start = %v, want Stopped", got)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := w.Status(); got != StateRunning {
		t.Errorf("Status() after Start = %v, want Running", got)
	}

	if err := w.Start(context.Background()); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := w.Status(); got != StateStopped {
		t.Errorf("Status() after Stop = %v, want Stopped", got)
	}
	if err := w.Stop(); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("second Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestPositionSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx := context.Background()
	if _, ok, _ := w.FileOpened(ctx, "/media/show.mkv", time.Hour); ok {
		t.Error("FileOpened() on fresh store reported a resume position")
	}
	if err := w.Progress(20 * time.Minute); err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if err := w.FileClosed(ctx, nil); err != nil {
		t.Fatalf("FileClosed() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// A second instance over the same state dir sees the position.
	w2, err := New(cfg)
	if err != nil {
		t.Fatalf("New() second instance error = %v", err)
	}
	if err := w2.Start(context.Background()); err != nil {
		t.Fatalf("Start() second instance error = %v", err)
	}
	defer w2.Stop()

	resume, ok, err := w2.FileOpened(ctx, "/media/show.mkv", time.Hour)
	if err != nil {
		t.Fatalf("FileOpened() error = %v", err)
	}
	if !ok {
		t.Fatal("FileOpened() found no saved position after restart")
	}
	want := 20*time.Minute - cfg.RewindTime
	if resume != want {
		t.Errorf("resume position = %v, want %v", resume, want)
	}
}

func TestEventHandlerReceivesStateChanges(t *testing.T) {
	handler := &recordingHandler{}
	w, err := New(testConfig(t), WithEventHandler(handler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := handler.states()
	want := []State{StateStarting, StateRunning, StateStopping, StateStopped}
	if len(got) != len(want) {
		t.Fatalf("state changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state change %d = %v, want %v", i, got[i], want[i])
		}
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	changes []StateChangeEvent
	saved   []PositionSavedEvent
	resumes []ResumeEvent
}

func (h *recordingHandler) OnStateChange(event StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, event)
}

func (h *recordingHandler) OnPositionSaved(event PositionSavedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, event)
}

func (h *recordingHandler) OnResume(event ResumeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resumes = append(h.resumes, event)
}

func (h *recordingHandler) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	states := make([]State, len(h.changes))
	for i, c := range h.changes {
		states[i] = c.Current
	}
	return states
}

type testPlugin struct {
	name        string
	initErr     error
	mu          sync.Mutex
	initialized bool
	shutdown    bool
	gotCfg      PluginConfig
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) Initialize(ctx context.Context, cfg PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initErr != nil {
		return p.initErr
	}
	p.initialized = true
	p.gotCfg = cfg
	return nil
}

func (p *testPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	return nil
}

func TestPluginLifecycle(t *testing.T) {
	plugin := &testPlugin{name: "test"}
	cfg := testConfig(t)
	w, err := New(cfg, WithPlugin(plugin), WithConfigPath("/etc/watchlater.toml"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	plugin.mu.Lock()
	if !plugin.initialized {
		t.Error("plugin was not initialized on Start")
	}
	if plugin.gotCfg.StateDir != cfg.StateDir {
		t.Errorf("plugin StateDir = %q, want %q", plugin.gotCfg.StateDir, cfg.StateDir)
	}
	if plugin.gotCfg.ConfigPath != "/etc/watchlater.toml" {
		t.Errorf("plugin ConfigPath = %q", plugin.gotCfg.ConfigPath)
	}
	if plugin.gotCfg.Store == nil || plugin.gotCfg.Tracker == nil || plugin.gotCfg.Logger == nil {
		t.Error("plugin config is missing store, tracker or logger")
	}
	plugin.mu.Unlock()

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	plugin.mu.Lock()
	if !plugin.shutdown {
		t.Error("plugin was not shut down on Stop")
	}
	plugin.mu.Unlock()
}

func TestPluginInitFailureUnwinds(t *testing.T) {
	first := &testPlugin{name: "first"}
	second := &testPlugin{name: "second", initErr: errors.New("boom")}

	w, err := New(testConfig(t), WithPlugin(first), WithPlugin(second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded despite failing plugin")
	}
	if got := w.Status(); got != StateCrashed {
		t.Errorf("Status() = %v, want Crashed", got)
	}
	first.mu.Lock()
	if !first.shutdown {
		t.Error("earlier plugin was not unwound after init failure")
	}
	first.mu.Unlock()
}

func TestApplyTuning(t *testing.T) {
	w, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tuned := DefaultConfig()
	tuned.UpdateInterval = 7 * time.Second
	tuned.RewindTime = 3 * time.Second
	w.ApplyTuning(tuned)

	got := w.tracker.Config()
	if got.UpdateInterval != 7*time.Second {
		t.Errorf("UpdateInterval = %v, want 7s", got.UpdateInterval)
	}
	if got.Window.Rewind != 3*time.Second {
		t.Errorf("Window.Rewind = %v, want 3s", got.Window.Rewind)
	}
}
