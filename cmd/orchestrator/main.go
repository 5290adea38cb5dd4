package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	logginginfra "github.com/dataorch/pipeliner/internal/infrastructure/logging"
	"github.com/dataorch/pipeliner/internal/ports"
)

func newAppLogger(level string) (*logginginfra.Logger, error) {
	return logginginfra.New(logginginfra.Options{
		Level:     level,
		Component: "cli",
		Layer:     "infrastructure",
	})
}

func main() {
	rootCmd := newRootCmd()

	// One correlation ID per CLI invocation, threaded through every
	// subcommand's context so logs across a run can be tied together.
	ctx := ports.WithCorrelationID(context.Background(), uuid.NewString())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
