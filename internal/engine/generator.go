package engine

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// GeneratorConfig configures the window calculation a generator run performs.
type GeneratorConfig struct {
	Timezone          *time.Location
	XTimeBack         time.Duration
	Granularity       time.Duration
	GranularityOffset time.Duration
}

// GeneratorOutcome is the small payload C7 hands the validator.
type GeneratorOutcome struct {
	RecordPresent bool
	PipelineID    string
	Record        *orchestrator.PipelineRecord
}

// Generator implements C7: build or continue the record for the target day.
type Generator struct {
	Store  ports.RecordStore
	Clock  ports.Clock
	Logger ports.Logger
}

// Run executes the generator phase for a single identity triple. It does
// not acquire the pipeline lock.
func (g *Generator) Run(ctx context.Context, identity orchestrator.Identity, cfg GeneratorConfig) (GeneratorOutcome, error) {
	now := g.Clock.Now()

	lookup := func(id orchestrator.Identity, targetDay time.Time) (time.Time, bool, error) {
		return g.Store.SelectMaxWindowEnd(ctx, id, targetDay)
	}

	window, hasWindow, err := orchestrator.CalculateWindow(now, cfg.Timezone, identity, cfg.XTimeBack, cfg.Granularity, cfg.GranularityOffset, lookup)
	if err != nil {
		return GeneratorOutcome{}, apperrors.NewStoreError("SELECT_MAX_WINDOW_END", "continuation lookup failed", err)
	}
	if !hasWindow {
		g.Logger.Info(ctx, "no window to generate, day exhausted", "source_id", identity.SourceID)
		return GeneratorOutcome{RecordPresent: false}, nil
	}

	pipelineID := orchestrator.BuildPipelineID(identity, window.TargetDay, window.Start, window.End)
	epoch := orchestrator.NewEpoch(now)
	stagePath := orchestrator.BuildStagePath(identity, window.TargetDay, window.Start, epoch)

	record := &orchestrator.PipelineRecord{
		Identity:               identity,
		PipelineID:             pipelineID,
		TargetDay:               window.TargetDay,
		WindowStartTime:         window.Start,
		WindowEndTime:           window.End,
		Granularity:             window.AchievedGranularity,
		SourceToStage:           orchestrator.PhaseBlock{Status: orchestrator.PhasePending},
		StageToTarget:           orchestrator.PhaseBlock{Status: orchestrator.PhasePending},
		Audit:                   orchestrator.PhaseBlock{Status: orchestrator.PhasePending},
		PipelineStatus:          orchestrator.PipelinePending,
		PipelinePriority:        orchestrator.DefaultPipelinePriority,
		RetryAttempt:            0,
		Miscellaneous:           orchestrator.Miscellaneous{StagePath: stagePath, Epoch: epoch},
		RecordFirstCreatedTime:  now,
		RecordLastUpdatedTime:   now,
	}

	inserted, err := g.Store.UpsertNew(ctx, record)
	if err != nil {
		return GeneratorOutcome{}, apperrors.NewStoreError("UPSERT_NEW", "failed to upsert generated record", err)
	}
	if !inserted {
		g.Logger.Debug(ctx, "record already exists, idempotent re-run", "pipeline_id", pipelineID)
		existing, found, err := g.Store.Get(ctx, pipelineID)
		if err != nil {
			return GeneratorOutcome{}, apperrors.NewStoreError("GET", "failed to load existing record", err)
		}
		if found {
			record = existing
		}
	}

	return GeneratorOutcome{RecordPresent: true, PipelineID: pipelineID, Record: record}, nil
}
