package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferAdapter(level zerolog.Level) (*ZerologAdapter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(level)
	return NewZerologAdapterWithLogger(logger), &buf
}

func TestFieldsAreRendered(t *testing.T) {
	adapter, buf := newBufferAdapter(zerolog.DebugLevel)

	adapter.Info("saved",
		String("path", "/media/a.mkv"),
		Duration("position", 90*time.Second),
		Bool("resume", true),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"path":"/media/a.mkv"`, `"position":90000`, `"resume":true`, `"error":"boom"`, `"message":"saved"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %q", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	adapter, buf := newBufferAdapter(zerolog.WarnLevel)

	adapter.Debug("hidden")
	adapter.Info("hidden too")
	adapter.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output %q contains filtered messages", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("output %q is missing warn message", out)
	}
}

func TestNewZerologAdapterLevelParsing(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			adapter := NewZerologAdapter(tt.level)
			if got := adapter.Logger().GetLevel(); got != tt.want {
				t.Errorf("NewZerologAdapter(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
