package execplayer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tapeworks/watchlater/pkg/log"
)

func TestNewValidatesTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{"valid", "mpv --start={{position}} {{path}}", false},
		{"path only", "xdg-open {{path}}", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"no path placeholder", "mpv --start={{position}}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.template, log.NewNoopLogger())
			if tt.wantErr && err == nil {
				t.Errorf("New(%q) succeeded, want error", tt.template)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("New(%q) error = %v", tt.template, err)
			}
		})
	}
}

func TestLoadSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	script := filepath.Join(dir, "record.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+out+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	player, err := New(script+" {{position}} {{path}}", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := player.Load(context.Background(), "/media/a.mkv", 95*time.Second); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		b, err := os.ReadFile(out)
		if err == nil && len(b) > 0 {
			got := strings.TrimSpace(string(b))
			if got != "95 /media/a.mkv" {
				t.Errorf("command args = %q, want %q", got, "95 /media/a.mkv")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("command output never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
