package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tapeworks/watchlater/pkg/log"
	"github.com/tapeworks/watchlater/pkg/watchlater"
)

type fakeTracker struct {
	mu      sync.Mutex
	applied []watchlater.Config
	notify  chan struct{}
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{notify: make(chan struct{}, 8)}
}

func (f *fakeTracker) ApplyTuning(cfg watchlater.Config) {
	f.mu.Lock()
	f.applied = append(f.applied, cfg)
	f.mu.Unlock()
	f.notify <- struct{}{}
}

func (f *fakeTracker) last() (watchlater.Config, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.applied) == 0 {
		return watchlater.Config{}, false
	}
	return f.applied[len(f.applied)-1], true
}

func TestInitializeRequiresPath(t *testing.T) {
	p := New("")
	err := p.Initialize(context.Background(), watchlater.PluginConfig{
		Logger:  log.NewNoopLogger(),
		Tracker: newFakeTracker(),
	})
	if err == nil {
		t.Fatal("Initialize() succeeded without a config path")
	}
}

func TestReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("update_interval = \"3s\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tracker := newFakeTracker()
	p := New(path)
	err := p.Initialize(context.Background(), watchlater.PluginConfig{
		Logger:  log.NewNoopLogger(),
		Tracker: tracker,
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if err := os.WriteFile(path, []byte("update_interval = \"9s\"\nrewind_time = \"5s\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-tracker.notify:
	case <-time.After(3 * time.Second):
		t.Fatal("config change was never applied")
	}

	cfg, ok := tracker.last()
	if !ok {
		t.Fatal("no tuning applied")
	}
	if cfg.UpdateInterval != 9*time.Second {
		t.Errorf("UpdateInterval = %v, want 9s", cfg.UpdateInterval)
	}
	if cfg.RewindTime != 5*time.Second {
		t.Errorf("RewindTime = %v, want 5s", cfg.RewindTime)
	}
}

func TestCorruptFileKeepsPreviousSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("update_interval = \"3s\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tracker := newFakeTracker()
	p := New(path)
	err := p.Initialize(context.Background(), watchlater.PluginConfig{
		Logger:  log.NewNoopLogger(),
		Tracker: tracker,
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if err := os.WriteFile(path, []byte("update_interval = [not toml"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-tracker.notify:
		t.Fatal("corrupt config was applied")
	case <-time.After(500 * time.Millisecond):
	}
}
