package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dataorch/pipeliner/internal/tui/dashboard"
)

func newDashboardCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the read-only pipeline record dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := buildAppContext(ctx, flags)
			if err != nil {
				return err
			}

			m := dashboard.NewModel(ctx, app.Store)
			p := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard execution failed: %w", err)
			}
			return nil
		},
	}

	return cmd
}
