package engine

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// DefaultStaleThreshold matches §6's default for sweeper.stale_threshold.
const DefaultStaleThreshold = 2 * time.Hour

// Sweeper implements C12: scheduled to run after every workflow execution,
// it reclaims records abandoned mid-flight. Its own errors are logged, never
// propagated.
type Sweeper struct {
	Store  ports.RecordStore
	Clock  ports.Clock
	Logger ports.Logger
}

// Run scans for stale records and resets them, returning the count cleaned
// for monitoring.
func (s *Sweeper) Run(ctx context.Context, staleThreshold time.Duration) int {
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleThreshold
	}

	now := s.Clock.Now()
	stale, err := s.Store.SelectStale(ctx, now, staleThreshold)
	if err != nil {
		s.Logger.Error(ctx, "sweeper: failed to select stale records", "error", err)
		return 0
	}

	cleaned := 0
	for _, record := range stale {
		if err := s.sweepOne(ctx, record); err != nil {
			s.Logger.Error(ctx, "sweeper: failed to reset record", "pipeline_id", record.PipelineID, "error", err)
			continue
		}
		cleaned++
	}
	return cleaned
}

func (s *Sweeper) sweepOne(ctx context.Context, record *orchestrator.PipelineRecord) error {
	var toReset []orchestrator.Phase
	for _, phase := range []orchestrator.Phase{orchestrator.PhaseSourceToStage, orchestrator.PhaseStageToTarget, orchestrator.PhaseAudit} {
		block := record.PhaseBlockFor(phase)
		if block.Status == orchestrator.PhaseInProgress || block.Status == orchestrator.PhaseFailed {
			toReset = append(toReset, phase)
		}
		// COMPLETED phases are left untouched so retries skip redone work.
	}

	if err := s.Store.SweepRecord(ctx, record.PipelineID, toReset); err != nil {
		return err
	}

	s.Logger.Info(ctx, "sweeper reclaimed stale record", "pipeline_id", record.PipelineID)
	return nil
}
