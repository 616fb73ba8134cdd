package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tapeworks/watchlater/internal/cliconfig"
)

func newCleanCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stored positions whose media files no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, cfg, *cfgPath, dryRun)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			removed := 0
			for _, record := range records {
				if _, err := os.Stat(record.Path); !os.IsNotExist(err) {
					continue
				}
				if dryRun {
					fmt.Printf("would remove %s\n", record.Path)
				} else {
					if err := store.Delete(cmd.Context(), record.Path); err != nil {
						return fmt.Errorf("remove %s: %w", record.Path, err)
					}
					fmt.Printf("removed %s\n", record.Path)
				}
				removed++
			}

			if removed == 0 {
				fmt.Println("nothing to clean")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed without removing it")
	return cmd
}

func newForgetCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <path>",
		Short: "Remove the stored position for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, cfg, *cfgPath, false)
			if err != nil {
				return err
			}
			defer store.Close()

			path := args[0]
			if _, ok, err := store.Load(cmd.Context(), path); err != nil {
				return err
			} else if !ok {
				fmt.Printf("no stored position for %s\n", path)
				return nil
			}
			if err := store.Delete(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Printf("forgot %s\n", path)
			return nil
		},
	}
}
