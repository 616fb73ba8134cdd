package janitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tapeworks/watchlater/internal/domain"
	"github.com/tapeworks/watchlater/pkg/log"
	"github.com/tapeworks/watchlater/pkg/watchlater"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]domain.PositionRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.PositionRecord)}
}

func (s *memStore) Save(ctx context.Context, record domain.PositionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Path] = record
	return nil
}

func (s *memStore) Load(ctx context.Context, path string) (domain.PositionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[path]
	return r, ok, nil
}

func (s *memStore) MostRecent(ctx context.Context) (domain.PositionRecord, bool, error) {
	return domain.PositionRecord{}, false, nil
}

func (s *memStore) List(ctx context.Context) ([]domain.PositionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PositionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, path)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for p := range s.records {
		out = append(out, p)
	}
	return out
}

func TestSweepRemovesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.mkv")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	missing := filepath.Join(dir, "missing.mkv")

	store := newMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, domain.PositionRecord{Path: present, Position: time.Minute})
	_ = store.Save(ctx, domain.PositionRecord{Path: missing, Position: time.Minute})

	p := New(Options{})
	p.store = store
	p.logger = log.NewNoopLogger()
	p.sweep(ctx)

	paths := store.paths()
	if len(paths) != 1 || paths[0] != present {
		t.Errorf("records after sweep = %v, want only %q", paths, present)
	}
}

func TestRunImmediatelySweepsAtStartup(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	_ = store.Save(ctx, domain.PositionRecord{Path: "/does/not/exist.mkv"})

	p := New(Options{CheckInterval: time.Hour, RunImmediately: true})
	err := p.Initialize(ctx, watchlater.PluginConfig{
		Store:  store,
		Logger: log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(store.paths()) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("stale record was never removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDefaultCheckInterval(t *testing.T) {
	p := New(Options{})
	if p.opts.CheckInterval != DefaultCheckInterval {
		t.Errorf("CheckInterval = %v, want %v", p.opts.CheckInterval, DefaultCheckInterval)
	}
}
