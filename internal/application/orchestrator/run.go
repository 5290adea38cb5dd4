// Package orchestrator is the local stand-in for the external workflow host
// §1 places out of scope: it invokes the engine's phases in order for one
// scheduled run, honoring skip/fail signalling, and always triggers the
// sweeper afterward regardless of outcome. A production deployment replaces
// this package with the real workflow host; the engine phases it drives are
// unaffected either way.
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/dataorch/pipeliner/internal/adapters/localfs"
	"github.com/dataorch/pipeliner/internal/config"
	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/engine"
	"github.com/dataorch/pipeliner/internal/ports"
)

// Outcome is the three-valued result §6 requires phases to expose to the
// host: success, skip (not a failure), or fail.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkip    Outcome = "skip"
	OutcomeFail    Outcome = "fail"
)

// TripleResult is one (source, stage, target) triple's outcome for a single
// scheduled run.
type TripleResult struct {
	Identity   orchestrator.Identity
	PipelineID string
	Outcome    Outcome
	Reason     string
	Err        error
}

// tripleEngine bundles one triple's identity with the five phases built
// against its own adapter set; every triple gets independent Source/Stage/
// Target/Transfer instances (its own directories) but shares the record
// store, clock, and logger.
type tripleEngine struct {
	identity orchestrator.Identity

	generator     *engine.Generator
	validator     *engine.Validator
	sourceToStage *engine.SourceToStage
	stageToTarget *engine.StageToTarget
	audit         *engine.Audit
}

// RunUseCase drives the Gen -> Val -> S->S -> S->T -> Audit sequence for
// every configured triple, then the sweeper, matching §1's data flow.
type RunUseCase struct {
	Store   ports.RecordStore
	Clock   ports.Clock
	Logger  ports.Logger
	Sweeper *engine.Sweeper

	Resolved *config.Resolved

	// DagRunID mints the lock owner identifier for a new execution. Defaults
	// to a fresh UUIDv4 per §6's lock.owner_id_source=uuid.
	DagRunID func() string

	triples []tripleEngine
}

// NewDagRunIDFactory builds the lock-owner-id minting function per
// config.LockConfig.OwnerIDSource: "static" reuses one fixed value (useful
// for a single long-lived local process), anything else (including the
// empty default) mints a fresh UUIDv4 per run.
func NewDagRunIDFactory(ownerIDSource string) func() string {
	if ownerIDSource == "static" {
		fixed := uuid.NewString()
		return func() string { return fixed }
	}
	return func() string { return uuid.NewString() }
}

// RunOnce executes one scheduled run: every configured triple in turn, then
// the sweeper unconditionally (§4.12, "scheduled to run after every
// workflow execution, regardless of outcome").
func (u *RunUseCase) RunOnce(ctx context.Context) ([]TripleResult, int) {
	results := make([]TripleResult, 0, len(u.triples))
	for _, t := range u.triples {
		results = append(results, u.runTriple(ctx, t))
	}

	swept := u.Sweeper.Run(ctx, u.Resolved.StaleThreshold)
	return results, swept
}

func (u *RunUseCase) runTriple(ctx context.Context, t tripleEngine) TripleResult {
	genOutcome, err := t.generator.Run(ctx, t.identity, engine.GeneratorConfig{
		Timezone:          u.Resolved.Timezone,
		XTimeBack:         u.Resolved.XTimeBack,
		Granularity:       u.Resolved.Granularity,
		GranularityOffset: u.Resolved.GranularityOffset,
	})
	if err != nil {
		return TripleResult{Identity: t.identity, Outcome: OutcomeFail, Err: err}
	}

	valOutcome, err := t.validator.Run(ctx, genOutcome)
	if err != nil {
		return TripleResult{Identity: t.identity, Outcome: OutcomeFail, Err: err}
	}
	if valOutcome.Skip {
		return TripleResult{Identity: t.identity, Outcome: OutcomeSkip, Reason: valOutcome.Reason}
	}

	record := valOutcome.Record
	result := TripleResult{Identity: t.identity, PipelineID: record.PipelineID}

	// §5's resume correctness: the run skips every phase that completed_phase
	// already covers, so a host re-entering after a partial failure can
	// always call RunOnce again safely.
	dagRunID := u.DagRunID()

	if !record.CompletedPhase.AtLeast(orchestrator.PhaseSourceToStage) {
		if err := t.sourceToStage.Run(ctx, record, dagRunID); err != nil {
			result.Outcome = OutcomeFail
			result.Err = err
			return result
		}
	}

	if !record.CompletedPhase.AtLeast(orchestrator.PhaseStageToTarget) {
		if err := t.stageToTarget.Run(ctx, record, dagRunID); err != nil {
			result.Outcome = OutcomeFail
			result.Err = err
			return result
		}
	}

	if err := t.audit.Run(ctx, record, dagRunID, engine.AuditConfig{
		MaxWait:      u.Resolved.AuditMaxWait,
		InitialDelay: u.Resolved.AuditInitialDelay,
		MaxDelay:     u.Resolved.AuditMaxDelay,
		Multiplier:   u.Resolved.AuditMultiplier,
	}); err != nil {
		result.Outcome = OutcomeFail
		result.Err = err
		return result
	}

	result.Outcome = OutcomeSuccess
	return result
}

// Build wires a RunUseCase against the reference localfs adapters: one
// Source/Stage/Target/Transfer set per configured triple, addressed by that
// triple's source_dir/stage_dir/target_dir.
func Build(store ports.RecordStore, clk ports.Clock, logger ports.Logger, resolved *config.Resolved) *RunUseCase {
	retryOpts := engine.RetryOptions{
		MaxAttempts: resolved.RetryMaxAttempts,
		BaseDelay:   resolved.RetryBaseDelay,
		Multiplier:  resolved.RetryMultiplier,
	}
	runner := &engine.PhaseRunner{Store: store, Clock: clk, Logger: logger}

	triples := make([]tripleEngine, 0, len(resolved.Triples))
	for _, rt := range resolved.Triples {
		source := &localfs.Source{BaseDir: rt.SourceDir}
		stage := &localfs.Stage{BaseDir: rt.StageDir}
		target := &localfs.Target{BaseDir: rt.TargetDir, StageDir: rt.StageDir}
		transfer := &localfs.Transfer{SourceDir: rt.SourceDir, StageDir: rt.StageDir}

		triples = append(triples, tripleEngine{
			identity:  rt.Identity,
			generator: &engine.Generator{Store: store, Clock: clk, Logger: logger},
			validator: &engine.Validator{Source: source, Target: target, Clock: clk, Logger: logger, Retry: retryOpts},
			sourceToStage: &engine.SourceToStage{
				Store: store, Clock: clk, Logger: logger, Transfer: transfer, Runner: runner,
			},
			stageToTarget: &engine.StageToTarget{
				Clock: clk, Logger: logger, Target: target, Runner: runner, SettleInterval: resolved.SettleInterval,
			},
			audit: &engine.Audit{
				Store: store, Clock: clk, Logger: logger, Source: source, Stage: stage, Target: target, Retry: retryOpts,
			},
		})
	}

	return &RunUseCase{
		Store:    store,
		Clock:    clk,
		Logger:   logger,
		Sweeper:  &engine.Sweeper{Store: store, Clock: clk, Logger: logger},
		Resolved: resolved,
		DagRunID: NewDagRunIDFactory(resolved.LockOwnerIDSource),
		triples:  triples,
	}
}
