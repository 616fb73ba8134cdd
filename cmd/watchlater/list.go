package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapeworks/watchlater/internal/adapters/sqlite"
	"github.com/tapeworks/watchlater/internal/cliconfig"
	"github.com/tapeworks/watchlater/pkg/log"
)

// openStore resolves the database path from the usual config sources and
// opens it. Subcommands run against the same database the daemon uses.
func openStore(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string, readOnly bool) (*sqlite.Store, error) {
	zl := log.NewZerologAdapter(cfg.LogLevel).Logger()
	if err := loadConfig(cmd, cfg, cfgPath, zl); err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.DBPath, sqlite.Options{ReadOnly: readOnly})
}

func newListCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored playback positions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, cfg, *cfgPath, true)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no stored positions")
				return nil
			}

			for _, record := range records {
				marker := " "
				if _, err := os.Stat(record.Path); os.IsNotExist(err) {
					marker = "!"
				}
				fmt.Printf("%s %s / %s  %s %s\n",
					marker,
					formatClock(record.Position),
					formatClock(record.Duration),
					record.UpdatedAt.Format("2006-01-02 15:04"),
					record.Path,
				)
			}
			return nil
		},
	}
}

// formatClock renders a duration as H:MM:SS.
func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
