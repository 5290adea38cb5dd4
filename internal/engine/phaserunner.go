package engine

import (
	"context"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// PhaseRunner is the generic lifecycle wrapper of §4.6: begin-phase, invoke
// the adapter work, end-phase on success or reset-phase on failure. One
// place encodes "state writes happen at phase edges only".
type PhaseRunner struct {
	Store  ports.RecordStore
	Clock  ports.Clock
	Logger ports.Logger
}

// Run executes work under the named phase's lifecycle. On failure it resets
// the phase, releases the lock (pipeline_status back to PENDING) and
// re-raises the error to the caller, which re-raises it to the workflow host
// in turn. The audit phase does not run through PhaseRunner; it has its own
// failure path.
func (r *PhaseRunner) Run(
	ctx context.Context,
	pipelineID string,
	phase orchestrator.Phase,
	dagRunID string,
	work func(ctx context.Context) (ports.PhaseExtra, error),
) error {
	now := r.Clock.Now()
	ok, err := r.Store.BeginPhase(ctx, pipelineID, phase, dagRunID, now)
	if err != nil {
		return apperrors.NewStoreError("BEGIN_PHASE", "failed to begin phase", err)
	}
	if !ok {
		return apperrors.NewStoreError("BEGIN_PHASE", "precondition failed: pipeline not in progress under this lock", nil)
	}

	extra, workErr := work(ctx)
	end := r.Clock.Now()
	if workErr == nil {
		if err := r.Store.EndPhaseOK(ctx, pipelineID, phase, end, extra); err != nil {
			return apperrors.NewStoreError("END_PHASE_OK", "failed to record phase completion", err)
		}
		return nil
	}

	r.Logger.Warn(ctx, "phase failed, resetting", "pipeline_id", pipelineID, "phase", string(phase), "error", workErr)
	if resetErr := r.Store.ResetPhase(ctx, pipelineID, phase, orchestrator.PipelinePending); resetErr != nil {
		r.Logger.Error(ctx, "failed to reset phase after failure", "pipeline_id", pipelineID, "phase", string(phase), "error", resetErr)
	}
	return workErr
}
