package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dataorch/pipeliner/internal/ports"
)

// AppContext bundles the long-lived services a command needs: the logger
// and the record store backend selected at startup. Grounded on the
// teacher's cmd/streamy/app_context.go (CommandContext/LoggerFor wrapping).
type AppContext struct {
	Logger ports.Logger
	Store  ports.RecordStore
}

// CommandContext returns the command's context (falling back to
// context.Background) together with a component-scoped logger.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}
