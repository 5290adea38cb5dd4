package main

import (
	"context"
	"fmt"

	"github.com/dataorch/pipeliner/internal/config"
	"github.com/dataorch/pipeliner/internal/infrastructure/clock"
	dynamostore "github.com/dataorch/pipeliner/internal/infrastructure/store/dynamodb"
	"github.com/dataorch/pipeliner/internal/infrastructure/store/memory"
	"github.com/dataorch/pipeliner/internal/ports"
)

// loadResolved parses and resolves the configuration file at path.
func loadResolved(path string) (*config.Resolved, error) {
	cfg, err := config.ParseConfig(path)
	if err != nil {
		return nil, err
	}
	return config.Resolve(cfg)
}

// buildStore constructs the RecordStore backend named by kind. "memory" is
// process-local and does not survive across invocations; "dynamodb" talks to
// the table named by tableName using the ambient AWS credential chain.
func buildStore(ctx context.Context, kind, tableName string) (ports.RecordStore, error) {
	switch kind {
	case "", "memory":
		return memory.New(), nil
	case "dynamodb":
		return dynamostore.NewStore(ctx, tableName)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory or dynamodb)", kind)
	}
}

func buildAppContext(ctx context.Context, flags *rootFlags) (*AppContext, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	logger, err := newAppLogger(level)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, flags.storeKind, flags.table)
	if err != nil {
		return nil, err
	}

	return &AppContext{Logger: logger, Store: store}, nil
}

var systemClock = clock.New()
