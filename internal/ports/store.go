package ports

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
)

// RecordStore exposes the atomic operations §4.4 requires. Every method is a
// single transaction; a failed precondition returns (false, nil) rather than
// an error, except where noted.
type RecordStore interface {
	// UpsertNew inserts record if pipeline_id does not already exist. Returns
	// false (no error) when a record with this id already exists.
	UpsertNew(ctx context.Context, record *orchestrator.PipelineRecord) (inserted bool, err error)

	// Acquire sets pipeline_status=IN_PROGRESS, pipeline_start_time=now,
	// dag_run_id=dagRunID only if current pipeline_status is PENDING or
	// FAILED and dag_run_id is empty. Returns whether it acquired.
	Acquire(ctx context.Context, pipelineID, dagRunID string, now time.Time) (acquired bool, err error)

	// BeginPhase sets P_status=IN_PROGRESS, P_start_time=now. Precondition:
	// pipeline is IN_PROGRESS and dagRunID matches the current lock holder;
	// for the audit phase only the record has to exist.
	BeginPhase(ctx context.Context, pipelineID string, phase orchestrator.Phase, dagRunID string, now time.Time) (ok bool, err error)

	// EndPhaseOK sets P_status=COMPLETED, P_end_time=now, completed_phase=phase,
	// plus any phase-specific fields in extra.
	EndPhaseOK(ctx context.Context, pipelineID string, phase orchestrator.Phase, now time.Time, extra PhaseExtra) error

	// ResetPhase sets P_status=PENDING, clears P's timestamps, releases
	// dag_run_id, sets pipeline_status back to nextStatus, and increments
	// retry_attempt.
	ResetPhase(ctx context.Context, pipelineID string, phase orchestrator.Phase, nextStatus orchestrator.PipelineStatus) error

	// FinalizeOK sets audit_status=COMPLETED, pipeline_status=COMPLETED,
	// pipeline_end_time=now, stores counts/result, preserves dag_run_id.
	FinalizeOK(ctx context.Context, pipelineID string, now time.Time, counts Counts) error

	// FinalizeFail sets pipeline_status=FAILED, clears the lock, resets all
	// phase states to PENDING, and increments retry_attempt.
	FinalizeFail(ctx context.Context, pipelineID string, now time.Time, result orchestrator.AuditResult) error

	// SelectMaxWindowEnd returns the continuation point for identity/targetDay.
	SelectMaxWindowEnd(ctx context.Context, identity orchestrator.Identity, targetDay time.Time) (end time.Time, ok bool, err error)

	// SelectCountsByWindow returns the (source, target) count pair stored on
	// the record for identity/window (written by FinalizeOK); found is false
	// when no record covers that window. The validator does not call it: it
	// counts through the Source and Target adapters.
	SelectCountsByWindow(ctx context.Context, identity orchestrator.Identity, windowStart, windowEnd time.Time) (counts Counts, found bool, err error)

	// SelectStale returns records with pipeline_status=IN_PROGRESS, a
	// non-empty dag_run_id and pipeline_start_time, where
	// now - pipeline_start_time > threshold.
	SelectStale(ctx context.Context, now time.Time, threshold time.Duration) ([]*orchestrator.PipelineRecord, error)

	// SweepRecord implements the sweeper's per-record reset (§4.12): clears
	// dag_run_id, sets pipeline_status=PENDING, increments retry_attempt
	// once, and resets only the named phases (those found IN_PROGRESS or
	// FAILED) to PENDING with cleared timestamps. COMPLETED phases are left
	// untouched so a later retry skips redone work.
	SweepRecord(ctx context.Context, pipelineID string, phasesToReset []orchestrator.Phase) error

	// Get returns the current record for pipelineID, or found=false.
	Get(ctx context.Context, pipelineID string) (record *orchestrator.PipelineRecord, found bool, err error)

	// List returns every known record, for the dashboard.
	List(ctx context.Context) ([]*orchestrator.PipelineRecord, error)
}

// PhaseExtra carries phase-specific fields written by END_PHASE_OK.
type PhaseExtra struct {
	StagePath string
}

// Counts is the (source, target) count pair exchanged between the
// validator, the audit loop, and FINALIZE_OK.
type Counts struct {
	Source int64
	Target int64
}
