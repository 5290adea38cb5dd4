package engine

import (
	"context"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// SourceToStage implements C9: acquire the pipeline lock, run the transfer
// adapter, update phase state.
type SourceToStage struct {
	Store    ports.RecordStore
	Clock    ports.Clock
	Logger   ports.Logger
	Transfer ports.SourceToStageTransfer
	Runner   *PhaseRunner
}

// Run attempts to acquire the lock under dagRunID and, if successful, runs
// the transfer adapter. Concurrent execution against the same pipeline_id is
// not allowed: a failed acquire fails the phase without mutating the record.
func (p *SourceToStage) Run(ctx context.Context, record *orchestrator.PipelineRecord, dagRunID string) error {
	now := p.Clock.Now()

	acquired, err := p.Store.Acquire(ctx, record.PipelineID, dagRunID, now)
	if err != nil {
		return apperrors.NewStoreError("ACQUIRE", "failed to acquire pipeline lock", err)
	}
	if !acquired {
		return apperrors.NewAcquireConflictError(record.PipelineID, "pipeline already in progress under another run")
	}

	return p.Runner.Run(ctx, record.PipelineID, orchestrator.PhaseSourceToStage, dagRunID, func(ctx context.Context) (ports.PhaseExtra, error) {
		if err := p.Transfer.Transfer(ctx, record); err != nil {
			return ports.PhaseExtra{}, err
		}
		return ports.PhaseExtra{StagePath: record.Miscellaneous.StagePath}, nil
	})
}
