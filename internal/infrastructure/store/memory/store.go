// Package memory implements ports.RecordStore in-memory, for tests and the
// local CLI's default backend. Every operation takes the same lock a real
// transactional table's row-level CAS would imply.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// Store is a thread-safe, process-local RecordStore.
type Store struct {
	mu      sync.Mutex
	records map[string]*orchestrator.PipelineRecord
}

// New constructs an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*orchestrator.PipelineRecord)}
}

var _ ports.RecordStore = (*Store)(nil)

func clone(r *orchestrator.PipelineRecord) *orchestrator.PipelineRecord {
	cp := *r
	return &cp
}

func (s *Store) UpsertNew(_ context.Context, record *orchestrator.PipelineRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.PipelineID]; exists {
		return false, nil
	}
	s.records[record.PipelineID] = clone(record)
	return true, nil
}

func (s *Store) Acquire(_ context.Context, pipelineID, dagRunID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return false, nil
	}
	if r.DagRunID != "" {
		return false, nil
	}
	if r.PipelineStatus != orchestrator.PipelinePending && r.PipelineStatus != orchestrator.PipelineFailed {
		return false, nil
	}

	r.PipelineStatus = orchestrator.PipelineInProgress
	r.PipelineStartTime = now
	r.DagRunID = dagRunID
	r.RecordLastUpdatedTime = now
	return true, nil
}

func (s *Store) BeginPhase(_ context.Context, pipelineID string, phase orchestrator.Phase, dagRunID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return false, nil
	}
	if phase != orchestrator.PhaseAudit {
		if r.PipelineStatus != orchestrator.PipelineInProgress || r.DagRunID != dagRunID {
			return false, nil
		}
	}

	block := r.PhaseBlockFor(phase)
	if block == nil {
		return false, nil
	}
	block.Status = orchestrator.PhaseInProgress
	block.StartTime = now
	r.RecordLastUpdatedTime = now
	return true, nil
}

func (s *Store) EndPhaseOK(_ context.Context, pipelineID string, phase orchestrator.Phase, now time.Time, extra ports.PhaseExtra) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil
	}
	block := r.PhaseBlockFor(phase)
	if block == nil {
		return nil
	}
	block.Status = orchestrator.PhaseCompleted
	block.EndTime = now
	r.CompletedPhase = phase
	if extra.StagePath != "" {
		r.Miscellaneous.StagePath = extra.StagePath
	}
	r.RecordLastUpdatedTime = now
	return nil
}

func (s *Store) ResetPhase(_ context.Context, pipelineID string, phase orchestrator.Phase, nextStatus orchestrator.PipelineStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil
	}
	block := r.PhaseBlockFor(phase)
	if block != nil {
		block.Status = orchestrator.PhasePending
		block.StartTime = time.Time{}
		block.EndTime = time.Time{}
	}
	r.DagRunID = ""
	r.PipelineStatus = nextStatus
	r.RetryAttempt++
	return nil
}

func (s *Store) FinalizeOK(_ context.Context, pipelineID string, now time.Time, counts ports.Counts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil
	}
	r.Audit.Status = orchestrator.PhaseCompleted
	r.Audit.EndTime = now
	r.CompletedPhase = orchestrator.PhaseAudit
	r.PipelineStatus = orchestrator.PipelineCompleted
	r.PipelineEndTime = now
	r.AuditResult = orchestrator.AuditSuccess
	r.SourceCount = counts.Source
	r.TargetCount = counts.Target
	r.CountDifference = counts.Target - counts.Source
	if counts.Source > 0 {
		r.PercentageDifference = float64(r.CountDifference) / float64(counts.Source) * 100
	}
	r.RecordLastUpdatedTime = now
	return nil
}

func (s *Store) FinalizeFail(_ context.Context, pipelineID string, now time.Time, result orchestrator.AuditResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil
	}
	r.Audit.Status = orchestrator.PhaseFailed
	r.AuditResult = result
	r.PipelineStatus = orchestrator.PipelineFailed
	r.DagRunID = ""
	r.SourceToStage.Status = orchestrator.PhasePending
	r.SourceToStage.StartTime, r.SourceToStage.EndTime = time.Time{}, time.Time{}
	r.StageToTarget.Status = orchestrator.PhasePending
	r.StageToTarget.StartTime, r.StageToTarget.EndTime = time.Time{}, time.Time{}
	r.Audit.Status = orchestrator.PhasePending
	r.Audit.StartTime, r.Audit.EndTime = time.Time{}, time.Time{}
	r.RetryAttempt++
	r.RecordLastUpdatedTime = now
	return nil
}

func (s *Store) SelectMaxWindowEnd(_ context.Context, identity orchestrator.Identity, targetDay time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max time.Time
	found := false
	for _, r := range s.records {
		if r.Identity != identity || !r.TargetDay.Equal(targetDay) {
			continue
		}
		if !found || r.WindowEndTime.After(max) {
			max = r.WindowEndTime
			found = true
		}
	}
	return max, found, nil
}

func (s *Store) SelectCountsByWindow(_ context.Context, identity orchestrator.Identity, windowStart, windowEnd time.Time) (ports.Counts, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Identity == identity && r.WindowStartTime.Equal(windowStart) && r.WindowEndTime.Equal(windowEnd) {
			return ports.Counts{Source: r.SourceCount, Target: r.TargetCount}, true, nil
		}
	}
	return ports.Counts{}, false, nil
}

func (s *Store) SelectStale(_ context.Context, now time.Time, threshold time.Duration) ([]*orchestrator.PipelineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*orchestrator.PipelineRecord
	for _, r := range s.records {
		if r.PipelineStatus != orchestrator.PipelineInProgress {
			continue
		}
		if r.DagRunID == "" || r.PipelineStartTime.IsZero() {
			continue
		}
		if now.Sub(r.PipelineStartTime) > threshold {
			stale = append(stale, clone(r))
		}
	}
	return stale, nil
}

func (s *Store) SweepRecord(_ context.Context, pipelineID string, phasesToReset []orchestrator.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil
	}
	r.DagRunID = ""
	r.PipelineStatus = orchestrator.PipelinePending
	r.RetryAttempt++

	for _, phase := range phasesToReset {
		block := r.PhaseBlockFor(phase)
		if block == nil {
			continue
		}
		block.Status = orchestrator.PhasePending
		block.StartTime = time.Time{}
		block.EndTime = time.Time{}
	}
	return nil
}

func (s *Store) Get(_ context.Context, pipelineID string) (*orchestrator.PipelineRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pipelineID]
	if !ok {
		return nil, false, nil
	}
	return clone(r), true, nil
}

func (s *Store) List(_ context.Context) ([]*orchestrator.PipelineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*orchestrator.PipelineRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, clone(r))
	}
	return out, nil
}
