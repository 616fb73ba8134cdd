package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	RestartLast    *bool  `toml:"restart_last"`
	RestartDelay   string `toml:"restart_delay"`
	UpdateInterval string `toml:"update_interval"`
	RewindTime     string `toml:"rewind_time"`
	MinRuntime     string `toml:"min_runtime"`
	MaxRuntime     string `toml:"max_runtime"`
	StateDir       string `toml:"state_dir"`
	DBPath         string `toml:"db_path"`
	ListenAddr     string `toml:"listen_addr"`
	ResumeCommand  string `toml:"resume_command"`
	LogLevel       string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.watchlater/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".watchlater", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setBool("restart-last", fc.RestartLast, &cfg.RestartLast)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("db", fc.DBPath, &cfg.DBPath)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("resume-command", fc.ResumeCommand, &cfg.ResumeCommand)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("restart-delay", fc.RestartDelay, &cfg.RestartDelay); err != nil {
		return err
	}
	if err := s.setDuration("update-interval", fc.UpdateInterval, &cfg.UpdateInterval); err != nil {
		return err
	}
	if err := s.setDuration("rewind", fc.RewindTime, &cfg.RewindTime); err != nil {
		return err
	}
	if err := s.setDuration("min-runtime", fc.MinRuntime, &cfg.MinRuntime); err != nil {
		return err
	}
	if err := s.setDuration("max-runtime", fc.MaxRuntime, &cfg.MaxRuntime); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
