package engine

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// DefaultSettleInterval matches §6's default for stage_to_target.settle_interval.
const DefaultSettleInterval = 120 * time.Second

// StageToTarget implements C10: inherit the lock, trigger the target-side
// load, then wait the settle interval before returning so the audit phase
// observes a target that has had time to become consistent.
type StageToTarget struct {
	Clock          ports.Clock
	Logger         ports.Logger
	Target         ports.Target
	Runner         *PhaseRunner
	SettleInterval time.Duration
}

// Run does not re-acquire the lock set by §4.9; it inherits it.
func (p *StageToTarget) Run(ctx context.Context, record *orchestrator.PipelineRecord, dagRunID string) error {
	return p.Runner.Run(ctx, record.PipelineID, orchestrator.PhaseStageToTarget, dagRunID, func(ctx context.Context) (ports.PhaseExtra, error) {
		if err := p.Target.Load(ctx, record); err != nil {
			return ports.PhaseExtra{}, err
		}

		settle := p.SettleInterval
		if settle <= 0 {
			settle = DefaultSettleInterval
		}
		p.Logger.Debug(ctx, "waiting settle interval before audit", "pipeline_id", record.PipelineID, "settle_interval", settle)
		p.Clock.Sleep(settle)

		return ports.PhaseExtra{}, nil
	})
}
