// Package orchestrator implements the pipeline state machine's data model
// and pure control-plane algorithms: duration parsing, window calculation,
// and identity derivation.
package orchestrator

import "time"

// PhaseStatus is the lifecycle status of a single phase block.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "PENDING"
	PhaseInProgress PhaseStatus = "IN_PROGRESS"
	PhaseCompleted  PhaseStatus = "COMPLETED"
	PhaseFailed     PhaseStatus = "FAILED"
)

// PipelineStatus is the lifecycle status of the pipeline block.
type PipelineStatus string

const (
	PipelinePending    PipelineStatus = "PENDING"
	PipelineInProgress PipelineStatus = "IN_PROGRESS"
	PipelineCompleted  PipelineStatus = "COMPLETED"
	PipelineFailed     PipelineStatus = "FAILED"
)

// AuditResult is the outcome written by the audit phase.
type AuditResult string

const (
	AuditSuccess            AuditResult = "SUCCESS"
	AuditIntegrityViolation AuditResult = "INTEGRITY_VIOLATION"
	AuditMismatch           AuditResult = "MISMATCH"
)

// Phase identifies one of the three lockable, store-tracked phases. The
// generator and validator phases do not have phase blocks (§3/§4.7/§4.8).
type Phase string

const (
	PhaseSourceToStage Phase = "source_to_stage_ingestion"
	PhaseStageToTarget Phase = "stage_to_target_ingestion"
	PhaseAudit         Phase = "audit"
)

// phaseOrder encodes the linear order Gen<Val<S->S<S->T<Audit referenced by
// invariant 5. Generator and validator precede every phase block and are
// represented implicitly (any phase block existing implies they completed).
var phaseOrder = map[Phase]int{
	PhaseSourceToStage: 1,
	PhaseStageToTarget: 2,
	PhaseAudit:         3,
}

// AtLeast reports whether p has completed at or beyond other in the phase
// order (invariant 5's "completed_phase >= P").
func (p Phase) AtLeast(other Phase) bool {
	return phaseOrder[p] >= phaseOrder[other]
}

// Identity is the (source, stage, target) triple a pipeline record belongs
// to. Each side is a short descriptive tuple, per §3's Identity attributes.
type Identity struct {
	SourceID, SourceName, SourceCategory, SourceSubCategory string
	StageID, StageName, StageCategory, StageSubCategory     string
	TargetID, TargetName, TargetCategory, TargetSubCategory string
}

// PhaseBlock is one of the three per-phase state blocks in §3.
type PhaseBlock struct {
	StartTime time.Time
	EndTime   time.Time
	Status    PhaseStatus
}

// Miscellaneous is the semi-structured blob in §3, fixed here per
// SPEC_FULL's Open Questions resolution to stage_path plus the epoch
// suffix that disambiguates retries writing to a fresh storage location.
type Miscellaneous struct {
	StagePath string
	Epoch     string
}

// PipelineRecord is the central entity of §3, keyed by PipelineID.
type PipelineRecord struct {
	Identity

	PipelineID string

	TargetDay       time.Time
	WindowStartTime time.Time
	WindowEndTime   time.Time
	Granularity     time.Duration

	SourceToStage PhaseBlock
	StageToTarget PhaseBlock
	Audit         PhaseBlock

	PipelineStartTime time.Time
	PipelineEndTime   time.Time
	PipelineStatus    PipelineStatus
	PipelinePriority  float64

	DagRunID string

	AuditResult          AuditResult
	SourceCount          int64
	TargetCount          int64
	CountDifference      int64
	PercentageDifference float64

	CompletedPhase Phase

	RetryAttempt int

	Miscellaneous Miscellaneous

	RecordFirstCreatedTime time.Time
	RecordLastUpdatedTime  time.Time
}

// Locked reports whether the pipeline currently holds its lock (invariant 4).
func (r *PipelineRecord) Locked() bool {
	return r.PipelineStatus == PipelineInProgress && r.DagRunID != ""
}

// PhaseBlockFor returns a pointer to the named phase's block.
func (r *PipelineRecord) PhaseBlockFor(p Phase) *PhaseBlock {
	switch p {
	case PhaseSourceToStage:
		return &r.SourceToStage
	case PhaseStageToTarget:
		return &r.StageToTarget
	case PhaseAudit:
		return &r.Audit
	default:
		return nil
	}
}

const DefaultPipelinePriority = 1.1
