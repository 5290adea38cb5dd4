package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/infrastructure/store/memory"
)

func TestGeneratorBuildsFirstWindow(t *testing.T) {
	t.Parallel()

	store := memory.New()
	clk := newFakeClock(time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC))
	gen := &Generator{Store: store, Clock: clk, Logger: nopLogger{}}

	identity := orchestrator.Identity{SourceID: "s", StageID: "st", TargetID: "t"}
	outcome, err := gen.Run(context.Background(), identity, GeneratorConfig{
		Timezone:    time.UTC,
		XTimeBack:   2 * time.Hour,
		Granularity: 30 * time.Minute,
	})
	require.NoError(t, err)
	require.True(t, outcome.RecordPresent)
	require.Equal(t, orchestrator.PhasePending, outcome.Record.SourceToStage.Status)
	require.NotEmpty(t, outcome.Record.Miscellaneous.StagePath)

	got, found, err := store.Get(context.Background(), outcome.PipelineID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, outcome.PipelineID, got.PipelineID)
}

func TestGeneratorIdempotentRerunPreservesExistingRecord(t *testing.T) {
	t.Parallel()

	store := memory.New()
	clk := newFakeClock(time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC))
	gen := &Generator{Store: store, Clock: clk, Logger: nopLogger{}}
	identity := orchestrator.Identity{SourceID: "s", StageID: "st", TargetID: "t"}
	cfg := GeneratorConfig{Timezone: time.UTC, XTimeBack: 2 * time.Hour, Granularity: 30 * time.Minute}

	first, err := gen.Run(context.Background(), identity, cfg)
	require.NoError(t, err)

	// Simulate the record making progress before the generator re-runs.
	_, err = store.Acquire(context.Background(), first.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)

	second, err := gen.Run(context.Background(), identity, cfg)
	require.NoError(t, err)
	require.Equal(t, first.PipelineID, second.PipelineID)
	require.Equal(t, "dag-1", second.Record.DagRunID, "idempotent re-run must not clobber in-flight progress")
}

func TestGeneratorNoWindowWhenDayExhausted(t *testing.T) {
	t.Parallel()

	store := memory.New()
	now := time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC)
	clk := newFakeClock(now)
	gen := &Generator{Store: store, Clock: clk, Logger: nopLogger{}}
	identity := orchestrator.Identity{SourceID: "s", StageID: "st", TargetID: "t"}

	dayEnd := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	identityRecord := &orchestrator.PipelineRecord{
		Identity:        identity,
		PipelineID:      "prior",
		TargetDay:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowStartTime: dayEnd.Add(-time.Minute),
		WindowEndTime:   dayEnd,
	}
	_, err := store.UpsertNew(context.Background(), identityRecord)
	require.NoError(t, err)

	outcome, err := gen.Run(context.Background(), identity, GeneratorConfig{
		Timezone:    time.UTC,
		XTimeBack:   2 * time.Hour,
		Granularity: 30 * time.Minute,
	})
	require.NoError(t, err)
	require.False(t, outcome.RecordPresent)
}
