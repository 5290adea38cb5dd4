package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/infrastructure/store/memory"
	"github.com/dataorch/pipeliner/internal/ports"
)

// TestSweeperReclaimsStaleRecordPreservingCompletedPhases covers scenario
// S5: a hung source→stage phase is reset while the generator's completion
// (implicit) and any already-COMPLETED phase survive.
func TestSweeperReclaimsStaleRecordPreservingCompletedPhases(t *testing.T) {
	t.Parallel()

	store := memory.New()
	start := time.Now()
	clk := newFakeClock(start)
	record := newTestRecord(store, t, clk.Now())

	_, err := store.Acquire(context.Background(), record.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)
	ok, err := store.BeginPhase(context.Background(), record.PipelineID, orchestrator.PhaseSourceToStage, "dag-1", clk.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// Advance the clock 3 hours: the phase has hung past the 2h threshold.
	clk.Sleep(3 * time.Hour)

	sweeper := &Sweeper{Store: store, Clock: clk, Logger: nopLogger{}}
	n := sweeper.Run(context.Background(), 2*time.Hour)
	require.Equal(t, 1, n)

	got, _, err := store.Get(context.Background(), record.PipelineID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.PipelinePending, got.PipelineStatus)
	require.Equal(t, "", got.DagRunID)
	require.Equal(t, orchestrator.PhasePending, got.SourceToStage.Status)
	require.True(t, got.SourceToStage.StartTime.IsZero())
	require.Equal(t, 1, got.RetryAttempt)
}

func TestSweeperLeavesFreshInProgressRecordsAlone(t *testing.T) {
	t.Parallel()

	store := memory.New()
	clk := newFakeClock(time.Now())
	record := newTestRecord(store, t, clk.Now())
	_, err := store.Acquire(context.Background(), record.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)

	sweeper := &Sweeper{Store: store, Clock: clk, Logger: nopLogger{}}
	n := sweeper.Run(context.Background(), 2*time.Hour)
	require.Equal(t, 0, n)

	got, _, err := store.Get(context.Background(), record.PipelineID)
	require.NoError(t, err)
	require.Equal(t, "dag-1", got.DagRunID)
}

func TestSweeperPreservesCompletedPhase(t *testing.T) {
	t.Parallel()

	store := memory.New()
	start := time.Now()
	clk := newFakeClock(start)
	record := newTestRecord(store, t, clk.Now())

	_, err := store.Acquire(context.Background(), record.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)
	_, err = store.BeginPhase(context.Background(), record.PipelineID, orchestrator.PhaseSourceToStage, "dag-1", clk.Now())
	require.NoError(t, err)
	require.NoError(t, store.EndPhaseOK(context.Background(), record.PipelineID, orchestrator.PhaseSourceToStage, clk.Now(), ports.PhaseExtra{}))
	_, err = store.BeginPhase(context.Background(), record.PipelineID, orchestrator.PhaseStageToTarget, "dag-1", clk.Now())
	require.NoError(t, err)

	clk.Sleep(3 * time.Hour)

	sweeper := &Sweeper{Store: store, Clock: clk, Logger: nopLogger{}}
	n := sweeper.Run(context.Background(), 2*time.Hour)
	require.Equal(t, 1, n)

	got, _, err := store.Get(context.Background(), record.PipelineID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.PhaseCompleted, got.SourceToStage.Status, "completed phases must survive the sweep")
	require.Equal(t, orchestrator.PhasePending, got.StageToTarget.Status)
}
