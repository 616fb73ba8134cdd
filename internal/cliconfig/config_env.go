package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (WATCHLATER_*). It respects flags that have been explicitly set (changed
// map). Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("state-dir", os.Getenv("WATCHLATER_STATE_DIR"), &cfg.StateDir)
	s.setString("db", os.Getenv("WATCHLATER_DB_PATH"), &cfg.DBPath)
	s.setString("listen", os.Getenv("WATCHLATER_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("resume-command", os.Getenv("WATCHLATER_RESUME_COMMAND"), &cfg.ResumeCommand)
	s.setString("log-level", os.Getenv("WATCHLATER_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("restart-delay", os.Getenv("WATCHLATER_RESTART_DELAY"), &cfg.RestartDelay); err != nil {
		return err
	}
	if err := s.setDuration("update-interval", os.Getenv("WATCHLATER_UPDATE_INTERVAL"), &cfg.UpdateInterval); err != nil {
		return err
	}
	if err := s.setDuration("rewind", os.Getenv("WATCHLATER_REWIND_TIME"), &cfg.RewindTime); err != nil {
		return err
	}
	if err := s.setDuration("min-runtime", os.Getenv("WATCHLATER_MIN_RUNTIME"), &cfg.MinRuntime); err != nil {
		return err
	}
	if err := s.setDuration("max-runtime", os.Getenv("WATCHLATER_MAX_RUNTIME"), &cfg.MaxRuntime); err != nil {
		return err
	}

	s.setBoolFromString("restart-last", os.Getenv("WATCHLATER_RESTART_LAST"), &cfg.RestartLast)

	return nil
}
