package ports

import (
	"context"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
)

// Window is the half-open interval adapters count or act over.
type Window struct {
	Start time.Time
	End   time.Time
}

// Source is the external collaborator that owns the raw input data. Its
// contract is fixed by §6; the implementation is system-specific and out of
// scope for the control plane.
type Source interface {
	Count(ctx context.Context, identity orchestrator.Identity, window Window) (int64, error)
	CheckExists(ctx context.Context, identity orchestrator.Identity, window Window) (bool, error)
	Delete(ctx context.Context, identity orchestrator.Identity, window Window) error
}

// Stage is the intermediate holding area the source is transferred into.
type Stage interface {
	Count(ctx context.Context, path string) (int64, error)
	Delete(ctx context.Context, path string) error
}

// Target is the destination the stage is loaded into. Load may be
// fire-and-forget (async); Count is polled by the audit loop.
type Target interface {
	Load(ctx context.Context, record *orchestrator.PipelineRecord) error
	Count(ctx context.Context, identity orchestrator.Identity, window Window) (int64, error)
	Delete(ctx context.Context, identity orchestrator.Identity, window Window) error
}

// SourceToStageTransfer moves bytes from source to stage for one record. It
// owns its own long-transfer timeout and progress logging.
type SourceToStageTransfer interface {
	Transfer(ctx context.Context, record *orchestrator.PipelineRecord) error
}
