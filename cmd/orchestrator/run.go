package main

import (
	"fmt"

	"github.com/spf13/cobra"

	applicationorchestrator "github.com/dataorch/pipeliner/internal/application/orchestrator"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one scheduled run: generator through audit for every configured triple, then the sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := buildAppContext(ctx, flags)
			if err != nil {
				return err
			}

			resolved, err := loadResolved(flags.configPath)
			if err != nil {
				return err
			}

			useCase := applicationorchestrator.Build(app.Store, systemClock, app.Logger, resolved)

			results, swept := useCase.RunOnce(ctx)

			for _, r := range results {
				switch r.Outcome {
				case applicationorchestrator.OutcomeSuccess:
					fmt.Fprintf(cmd.OutOrStdout(), "OK    %s %s\n", r.Identity.SourceID, r.PipelineID)
				case applicationorchestrator.OutcomeSkip:
					fmt.Fprintf(cmd.OutOrStdout(), "SKIP  %s (%s)\n", r.Identity.SourceID, r.Reason)
				case applicationorchestrator.OutcomeFail:
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", r.Identity.SourceID, r.Err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sweeper reclaimed %d stale record(s)\n", swept)

			return nil
		},
	}

	return cmd
}
