package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataorch/pipeliner/internal/engine"
)

func newSweepCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the stale-lock sweeper in isolation, outside a scheduled run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := buildAppContext(ctx, flags)
			if err != nil {
				return err
			}

			threshold := engine.DefaultStaleThreshold
			if flags.configPath != "" {
				if resolved, err := loadResolved(flags.configPath); err == nil {
					threshold = resolved.StaleThreshold
				}
			}

			sweeper := &engine.Sweeper{Store: app.Store, Clock: systemClock, Logger: app.Logger}
			n := sweeper.Run(ctx, threshold)
			fmt.Fprintf(cmd.OutOrStdout(), "reclaimed %d stale record(s)\n", n)
			return nil
		},
	}

	return cmd
}
