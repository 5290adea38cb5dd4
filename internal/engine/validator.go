package engine

import (
	"context"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// ValidatorOutcome is C8's three-valued result: Skip is distinct from
// failure — a skip must bypass downstream phases without failing the
// pipeline.
type ValidatorOutcome struct {
	Skip   bool
	Reason string
	Record *orchestrator.PipelineRecord
}

// Validator implements C8: gate on absent record, future window, or
// already-processed counts.
type Validator struct {
	Source ports.Source
	Target ports.Target
	Clock  ports.Clock
	Logger ports.Logger
	Retry  RetryOptions
}

// Run gates a generator outcome. It works on the record the generator handed
// over (freshly built, or the stored one on an idempotent re-run) and does
// not read the store; it does not recompute the window or the pipeline_id,
// so it performs no determinism cross-check.
func (v *Validator) Run(ctx context.Context, outcome GeneratorOutcome) (ValidatorOutcome, error) {
	if !outcome.RecordPresent {
		return ValidatorOutcome{Skip: true, Reason: "no_window"}, nil
	}

	record := outcome.Record
	now := v.Clock.Now()

	if record.WindowEndTime.After(now) {
		v.Logger.Debug(ctx, "skipping future window", "pipeline_id", record.PipelineID)
		return ValidatorOutcome{Skip: true, Reason: "future_window", Record: record}, nil
	}

	window := ports.Window{Start: record.WindowStartTime, End: record.WindowEndTime}

	var sourceCount, targetCount int64
	var sourceKnown, targetKnown bool

	if err := Retry(ctx, v.Retry, "source.count", func(ctx context.Context) error {
		c, err := v.Source.Count(ctx, record.Identity, window)
		if err != nil {
			return err
		}
		sourceCount = c
		sourceKnown = true
		return nil
	}); err != nil {
		v.Logger.Warn(ctx, "source count unavailable after retries, continuing", "pipeline_id", record.PipelineID, "error", err)
	}

	if err := Retry(ctx, v.Retry, "target.count", func(ctx context.Context) error {
		c, err := v.Target.Count(ctx, record.Identity, window)
		if err != nil {
			return err
		}
		targetCount = c
		targetKnown = true
		return nil
	}); err != nil {
		v.Logger.Warn(ctx, "target count unavailable after retries, continuing", "pipeline_id", record.PipelineID, "error", err)
	}

	if sourceKnown && targetKnown && sourceCount == targetCount {
		// (source=0, target=0) is treated as already-processed/no-data, per
		// the validator's open-question resolution, same as any other equal
		// positive pair.
		return ValidatorOutcome{Skip: true, Reason: "already_processed", Record: record}, nil
	}

	return ValidatorOutcome{Skip: false, Record: record}, nil
}
