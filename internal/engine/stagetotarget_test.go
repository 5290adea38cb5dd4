package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/infrastructure/store/memory"
)

func TestStageToTargetInheritsLockAndWaitsSettleInterval(t *testing.T) {
	t.Parallel()

	store := memory.New()
	clk := newFakeClock(time.Now())
	record := newTestRecord(store, t, clk.Now())

	_, err := store.Acquire(context.Background(), record.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)

	target := &fakeCounter{}
	runner := &PhaseRunner{Store: store, Clock: clk, Logger: nopLogger{}}
	phase := &StageToTarget{Clock: clk, Logger: nopLogger{}, Target: target, Runner: runner, SettleInterval: 2 * time.Minute}

	before := clk.Now()
	err = phase.Run(context.Background(), record, "dag-1")
	require.NoError(t, err)
	require.Equal(t, 1, target.loads)
	require.Equal(t, 2*time.Minute, clk.Now().Sub(before), "settle interval must elapse via Clock.Sleep")

	got, _, err := store.Get(context.Background(), record.PipelineID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.PhaseCompleted, got.StageToTarget.Status)
	require.Equal(t, orchestrator.PhaseStageToTarget, got.CompletedPhase)
}

func TestStageToTargetDefaultsSettleIntervalWhenUnset(t *testing.T) {
	t.Parallel()

	store := memory.New()
	clk := newFakeClock(time.Now())
	record := newTestRecord(store, t, clk.Now())
	_, err := store.Acquire(context.Background(), record.PipelineID, "dag-1", clk.Now())
	require.NoError(t, err)

	target := &fakeCounter{}
	runner := &PhaseRunner{Store: store, Clock: clk, Logger: nopLogger{}}
	phase := &StageToTarget{Clock: clk, Logger: nopLogger{}, Target: target, Runner: runner}

	before := clk.Now()
	err = phase.Run(context.Background(), record, "dag-1")
	require.NoError(t, err)
	require.Equal(t, DefaultSettleInterval, clk.Now().Sub(before))
}
