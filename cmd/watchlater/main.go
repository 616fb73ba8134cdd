package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/tapeworks/watchlater/internal/cliconfig"
	"github.com/tapeworks/watchlater/internal/server"
	"github.com/tapeworks/watchlater/pkg/log"
	"github.com/tapeworks/watchlater/pkg/watchlater"
	"github.com/tapeworks/watchlater/plugins/configwatcher"
	"github.com/tapeworks/watchlater/plugins/janitor"
)

const helpDescription = `
Remember where you stopped watching and pick up from there.

watchlater runs as a small daemon beside your media player. Player hooks
report opened files and playback progress over a local HTTP API; watchlater
persists the position, hands it back when a file is reopened, and can
relaunch the last played file shortly after startup.

Highlights:
  - Positions survive restarts; one record per file, no history to prune.
  - Barely-started and nearly-finished files leave no record.
  - Config via file, environment, or flags; tunables reload live.
`

var exampleUsage = strings.TrimSpace(`
  watchlater --resume-command "mpv --start={{position}} {{path}}"
  watchlater --config ~/.watchlater/config.toml --no-restart-last
  watchlater list
  watchlater clean --dry-run
  watchlater forget /media/film.mkv
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var noRestartLast bool

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:     "watchlater",
		Short:   "Remember where you stopped watching and pick up from there",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath, zl); err != nil {
				return err
			}
			if noRestartLast {
				cfg.RestartLast = false
			}

			logger := log.NewZerologAdapter(cfg.LogLevel)

			metrics := server.NewMetrics()
			opts := []watchlater.Option{
				watchlater.WithLogger(logger),
				watchlater.WithEventHandler(metrics),
				janitor.WithDefaultJanitor(),
			}
			if path := configFilePath(cfgPath); path != "" && cliconfig.FileExists(path) {
				opts = append(opts,
					watchlater.WithConfigPath(path),
					configwatcher.WithDefaultConfigWatcher(),
				)
			}

			w, err := watchlater.New(cfg, opts...)
			if err != nil {
				return fmt.Errorf("create watchlater: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watchlater: %w", err)
			}

			srv := server.New(cfg.ListenAddr, w, metrics, logger)
			if err := srv.Start(); err != nil {
				_ = w.Stop()
				return fmt.Errorf("start control api: %w", err)
			}

			// Watch for a crash so a failed tracker does not leave a
			// zombie daemon behind.
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := w.Status()
						if status == watchlater.StateStopped || status == watchlater.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				zl.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if w.Status() == watchlater.StateCrashed {
					zl.Error().Msg("watchlater crashed")
				}
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zl.Warn().Err(err).Msg("control api shutdown")
			}
			if err := w.Stop(); err != nil {
				return fmt.Errorf("stop watchlater: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.watchlater/config.toml)")
	root.PersistentFlags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "data directory (default: $HOME/.watchlater)")
	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "position database path (default: <state-dir>/positions.db)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "control API listen address")
	root.Flags().StringVar(&cfg.ResumeCommand, "resume-command", cfg.ResumeCommand, "player command for auto-resume, with {{path}} and {{position}} placeholders")
	root.Flags().BoolVar(&cfg.RestartLast, "restart-last", cfg.RestartLast, "auto-resume the last played file after startup")
	root.Flags().BoolVar(&noRestartLast, "no-restart-last", false, "disable auto-resume (overrides restart-last)")
	root.Flags().DurationVar(&cfg.RestartDelay, "restart-delay", cfg.RestartDelay, "startup delay before auto-resume")
	root.Flags().DurationVar(&cfg.UpdateInterval, "update-interval", cfg.UpdateInterval, "how often to persist the playback position")
	root.Flags().DurationVar(&cfg.RewindTime, "rewind", cfg.RewindTime, "rewind applied to saved positions")
	root.Flags().DurationVar(&cfg.MinRuntime, "min-runtime", cfg.MinRuntime, "minimum playback offset before positions are saved")
	root.Flags().DurationVar(&cfg.MaxRuntime, "max-runtime", cfg.MaxRuntime, "tail margin in which positions are not saved")

	root.AddCommand(newListCmd(&cfg, &cfgPath))
	root.AddCommand(newCleanCmd(&cfg, &cfgPath))
	root.AddCommand(newForgetCmd(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("watchlater")
		os.Exit(1)
	}
}

// configFilePath resolves the config file path, falling back to the default
// location when no --config flag was given.
func configFilePath(cfgPath string) string {
	if cfgPath != "" {
		return cfgPath
	}
	return cliconfig.DefaultConfigPath()
}

// loadConfig layers the config sources onto cfg with the precedence
// flags > environment > file > defaults. A missing config file is fine; a
// corrupt one is logged and the remaining sources still apply.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string, zl zerolog.Logger) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if path := configFilePath(cfgPath); path != "" && cliconfig.FileExists(path) {
		fc, err := cliconfig.LoadFileConfig(path)
		if err != nil {
			if cfgPath != "" {
				return fmt.Errorf("load config: %w", err)
			}
			// The default file is best-effort; keep going on defaults.
			zl.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config file")
		} else if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	cfg.SetDefaults()
	return cfg.Validate()
}
