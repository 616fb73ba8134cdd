package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				RestartLast:    &falseVal,
				RestartDelay:   "5s",
				UpdateInterval: "10s",
				RewindTime:     "15s",
				MinRuntime:     "3m",
				MaxRuntime:     "2m",
				StateDir:       "/var/lib/watchlater",
				DBPath:         "/var/lib/watchlater/positions.db",
				ListenAddr:     "127.0.0.1:9000",
				ResumeCommand:  "mpv --start={{position}} {{path}}",
				LogLevel:       "debug",
			},
			changed: map[string]bool{},
			initial: Config{RestartLast: true},
			expected: Config{
				RestartLast:    false,
				RestartDelay:   5 * time.Second,
				UpdateInterval: 10 * time.Second,
				RewindTime:     15 * time.Second,
				MinRuntime:     3 * time.Minute,
				MaxRuntime:     2 * time.Minute,
				StateDir:       "/var/lib/watchlater",
				DBPath:         "/var/lib/watchlater/positions.db",
				ListenAddr:     "127.0.0.1:9000",
				ResumeCommand:  "mpv --start={{position}} {{path}}",
				LogLevel:       "debug",
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				StateDir:   "/from/file",
				ListenAddr: "127.0.0.1:9000",
			},
			changed: map[string]bool{"state-dir": true},
			initial: Config{
				StateDir:   "/from/flag",
				ListenAddr: "127.0.0.1:8994",
			},
			expected: Config{
				StateDir:   "/from/flag", // unchanged because flag was set
				ListenAddr: "127.0.0.1:9000",
			},
			wantErr: false,
		},
		{
			name: "empty values leave config untouched",
			fileConfig: FileConfig{
				RestartLast: &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{
				StateDir:       "/keep",
				UpdateInterval: 3 * time.Second,
			},
			expected: Config{
				RestartLast:    true,
				StateDir:       "/keep",
				UpdateInterval: 3 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "invalid duration is an error",
			fileConfig: FileConfig{
				UpdateInterval: "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
restart_last = false
restart_delay = "4s"
update_interval = "6s"
state_dir = "/data/watchlater"
log_level = "warn"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.RestartLast == nil || *fc.RestartLast {
		t.Error("restart_last not parsed as false")
	}
	if fc.RestartDelay != "4s" || fc.UpdateInterval != "6s" {
		t.Errorf("durations = %q/%q, want 4s/6s", fc.RestartDelay, fc.UpdateInterval)
	}
	if fc.StateDir != "/data/watchlater" || fc.LogLevel != "warn" {
		t.Errorf("strings not parsed: %+v", fc)
	}
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("LoadFileConfig() on missing file succeeded")
	}
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want os.IsNotExist", err)
	}
}

func TestLoadFileConfigCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("this is [not toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("LoadFileConfig() on corrupt file succeeded")
	}
}
