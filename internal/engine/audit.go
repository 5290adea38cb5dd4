package engine

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// AuditConfig configures the adaptive reconciliation loop (§4.11).
type AuditConfig struct {
	MaxWait      time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Audit implements C11: the sole authority that marks pipeline_status
// COMPLETED. Most intricate component in the control plane.
type Audit struct {
	Store  ports.RecordStore
	Clock  ports.Clock
	Logger ports.Logger
	Source ports.Source
	Stage  ports.Stage
	Target ports.Target
	Retry  RetryOptions
}

// Run executes the audit phase for record under dagRunID (the lock it
// inherited from stage→target).
func (a *Audit) Run(ctx context.Context, record *orchestrator.PipelineRecord, dagRunID string, cfg AuditConfig) error {
	if record.Audit.Status == orchestrator.PhaseCompleted {
		a.Logger.Debug(ctx, "audit already completed, no-op", "pipeline_id", record.PipelineID)
		return nil
	}

	now := a.Clock.Now()
	ok, err := a.Store.BeginPhase(ctx, record.PipelineID, orchestrator.PhaseAudit, dagRunID, now)
	if err != nil {
		return apperrors.NewStoreError("BEGIN_PHASE", "failed to begin audit phase", err)
	}
	if !ok {
		return apperrors.NewStoreError("BEGIN_PHASE", "precondition failed for audit phase", nil)
	}

	window := ports.Window{Start: record.WindowStartTime, End: record.WindowEndTime}

	sawZeroZero := false
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 30 * time.Minute
	}

	deadline := a.Clock.Now().Add(maxWait)

	for {
		var s, t int64
		if err := Retry(ctx, a.Retry, "source.count", func(ctx context.Context) error {
			c, err := a.Source.Count(ctx, record.Identity, window)
			if err != nil {
				return err
			}
			s = c
			return nil
		}); err != nil {
			return a.fail(ctx, record, orchestrator.AuditMismatch, err)
		}

		if err := Retry(ctx, a.Retry, "target.count", func(ctx context.Context) error {
			c, err := a.Target.Count(ctx, record.Identity, window)
			if err != nil {
				return err
			}
			t = c
			return nil
		}); err != nil {
			return a.fail(ctx, record, orchestrator.AuditMismatch, err)
		}

		switch {
		case t > s:
			return a.fail(ctx, record, orchestrator.AuditIntegrityViolation, apperrors.NewIntegrityViolationError(record.PipelineID, s, t))
		case t == s && s > 0:
			return a.succeed(ctx, record, s, t)
		case t == s && s == 0:
			if sawZeroZero {
				return a.succeed(ctx, record, s, t)
			}
			sawZeroZero = true
		}

		if !a.Clock.Now().Before(deadline) {
			if t == s {
				// A first (0,0) poll that already reached the deadline is
				// treated as success-with-no-data, the same as a second
				// (0,0) poll before the deadline.
				return a.succeed(ctx, record, s, t)
			}
			return a.fail(ctx, record, orchestrator.AuditMismatch, apperrors.NewMismatchError(record.PipelineID, s, t))
		}

		a.Logger.Debug(ctx, "audit reconciliation still loading, sleeping", "pipeline_id", record.PipelineID, "source_count", s, "target_count", t, "delay", delay)
		a.Clock.Sleep(delay)
		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (a *Audit) succeed(ctx context.Context, record *orchestrator.PipelineRecord, source, target int64) error {
	now := a.Clock.Now()
	counts := ports.Counts{Source: source, Target: target}
	if err := a.Store.FinalizeOK(ctx, record.PipelineID, now, counts); err != nil {
		return apperrors.NewStoreError("FINALIZE_OK", "failed to finalize successful audit", err)
	}
	return nil
}

func (a *Audit) fail(ctx context.Context, record *orchestrator.PipelineRecord, result orchestrator.AuditResult, cause error) error {
	a.cleanup(ctx, record)

	now := a.Clock.Now()
	if err := a.Store.FinalizeFail(ctx, record.PipelineID, now, result); err != nil {
		a.Logger.Error(ctx, "failed to finalize failed audit", "pipeline_id", record.PipelineID, "error", err)
	}
	return cause
}

// cleanup is the only place in the control plane that deletes data: a
// failed audit removes the stage artifact and whatever landed in the
// target, under the retry harness. Failures here are logged but never
// block the state reset.
func (a *Audit) cleanup(ctx context.Context, record *orchestrator.PipelineRecord) {
	window := ports.Window{Start: record.WindowStartTime, End: record.WindowEndTime}

	if err := Retry(ctx, a.Retry, "stage.delete", func(ctx context.Context) error {
		return a.Stage.Delete(ctx, record.Miscellaneous.StagePath)
	}); err != nil {
		a.Logger.Error(ctx, "stage cleanup failed", "pipeline_id", record.PipelineID, "error", err)
	}

	if err := Retry(ctx, a.Retry, "target.delete", func(ctx context.Context) error {
		return a.Target.Delete(ctx, record.Identity, window)
	}); err != nil {
		a.Logger.Error(ctx, "target cleanup failed", "pipeline_id", record.PipelineID, "error", err)
	}
}
