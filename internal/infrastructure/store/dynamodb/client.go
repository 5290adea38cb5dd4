// Package dynamodb implements ports.RecordStore against a DynamoDB table,
// using compare-and-set UpdateItem calls the way
// scrapbird-breachline/infra/sync-api/src/api's rate limiter does.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// Store implements ports.RecordStore against DynamoDB table PIPELINE_RECORDS.
// Unlike the teacher's legacy `api` package, the client is injected through
// a constructor rather than held in package-level globals (see DESIGN.md).
type Store struct {
	client *dynamodb.Client
	table  string
}

// NewStore loads the default AWS config and constructs a Store bound to
// table. Mirrors api.Init's client construction without the package globals.
func NewStore(ctx context.Context, table string, optFns ...func(*awsconfig.LoadOptions) error) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, apperrors.NewStoreError("LOAD_CONFIG", "failed to load AWS config", err)
	}
	return &Store{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

// NewStoreWithClient wraps an already-constructed client, for tests against
// a local DynamoDB endpoint.
func NewStoreWithClient(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

var _ ports.RecordStore = (*Store)(nil)

// item is the DynamoDB-shaped projection of orchestrator.PipelineRecord,
// matching Annotation's dynamodbav tag convention.
type item struct {
	PipelineID string `dynamodbav:"pipeline_id"`

	SourceID          string `dynamodbav:"source_id"`
	SourceName        string `dynamodbav:"source_name,omitempty"`
	SourceCategory    string `dynamodbav:"source_category,omitempty"`
	SourceSubCategory string `dynamodbav:"source_sub_category,omitempty"`
	StageID           string `dynamodbav:"stage_id"`
	StageName         string `dynamodbav:"stage_name,omitempty"`
	StageCategory     string `dynamodbav:"stage_category,omitempty"`
	StageSubCategory  string `dynamodbav:"stage_sub_category,omitempty"`
	TargetID          string `dynamodbav:"target_id"`
	TargetName        string `dynamodbav:"target_name,omitempty"`
	TargetCategory    string `dynamodbav:"target_category,omitempty"`
	TargetSubCategory string `dynamodbav:"target_sub_category,omitempty"`

	TargetDay       string `dynamodbav:"target_day"`
	WindowStartTime string `dynamodbav:"window_start_time"`
	WindowEndTime   string `dynamodbav:"window_end_time"`
	GranularitySec  int64  `dynamodbav:"granularity_seconds"`

	SourceToStageStatus string `dynamodbav:"source_to_stage_status"`
	SourceToStageStart  string `dynamodbav:"source_to_stage_start,omitempty"`
	SourceToStageEnd    string `dynamodbav:"source_to_stage_end,omitempty"`

	StageToTargetStatus string `dynamodbav:"stage_to_target_status"`
	StageToTargetStart  string `dynamodbav:"stage_to_target_start,omitempty"`
	StageToTargetEnd    string `dynamodbav:"stage_to_target_end,omitempty"`

	AuditStatus string `dynamodbav:"audit_status"`
	AuditStart  string `dynamodbav:"audit_start,omitempty"`
	AuditEnd    string `dynamodbav:"audit_end,omitempty"`

	PipelineStartTime string  `dynamodbav:"pipeline_start_time,omitempty"`
	PipelineEndTime   string  `dynamodbav:"pipeline_end_time,omitempty"`
	PipelineStatus    string  `dynamodbav:"pipeline_status"`
	PipelinePriority  float64 `dynamodbav:"pipeline_priority"`

	DagRunID string `dynamodbav:"dag_run_id,omitempty"`

	AuditResult          string  `dynamodbav:"audit_result,omitempty"`
	SourceCount          int64   `dynamodbav:"source_count"`
	TargetCount          int64   `dynamodbav:"target_count"`
	CountDifference      int64   `dynamodbav:"count_difference"`
	PercentageDifference float64 `dynamodbav:"percentage_difference"`

	CompletedPhase string `dynamodbav:"completed_phase,omitempty"`
	RetryAttempt   int    `dynamodbav:"retry_attempt"`

	StagePath string `dynamodbav:"stage_path,omitempty"`
	Epoch     string `dynamodbav:"epoch,omitempty"`

	RecordFirstCreatedTime string `dynamodbav:"record_first_created_time"`
	RecordLastUpdatedTime  string `dynamodbav:"record_last_updated_time"`
}

func toItem(r *orchestrator.PipelineRecord) item {
	return item{
		PipelineID:             r.PipelineID,
		SourceID:                r.SourceID, SourceName: r.SourceName, SourceCategory: r.SourceCategory, SourceSubCategory: r.SourceSubCategory,
		StageID:                 r.StageID, StageName: r.StageName, StageCategory: r.StageCategory, StageSubCategory: r.StageSubCategory,
		TargetID:                r.TargetID, TargetName: r.TargetName, TargetCategory: r.TargetCategory, TargetSubCategory: r.TargetSubCategory,
		TargetDay:               r.TargetDay.Format(time.RFC3339),
		WindowStartTime:         r.WindowStartTime.Format(time.RFC3339),
		WindowEndTime:           r.WindowEndTime.Format(time.RFC3339),
		GranularitySec:          int64(r.Granularity.Seconds()),
		SourceToStageStatus:     string(r.SourceToStage.Status),
		SourceToStageStart:      formatOptional(r.SourceToStage.StartTime),
		SourceToStageEnd:        formatOptional(r.SourceToStage.EndTime),
		StageToTargetStatus:     string(r.StageToTarget.Status),
		StageToTargetStart:      formatOptional(r.StageToTarget.StartTime),
		StageToTargetEnd:        formatOptional(r.StageToTarget.EndTime),
		AuditStatus:             string(r.Audit.Status),
		AuditStart:              formatOptional(r.Audit.StartTime),
		AuditEnd:                formatOptional(r.Audit.EndTime),
		PipelineStartTime:       formatOptional(r.PipelineStartTime),
		PipelineEndTime:         formatOptional(r.PipelineEndTime),
		PipelineStatus:          string(r.PipelineStatus),
		PipelinePriority:        r.PipelinePriority,
		DagRunID:                r.DagRunID,
		AuditResult:             string(r.AuditResult),
		SourceCount:             r.SourceCount,
		TargetCount:             r.TargetCount,
		CountDifference:         r.CountDifference,
		PercentageDifference:    r.PercentageDifference,
		CompletedPhase:          string(r.CompletedPhase),
		RetryAttempt:            r.RetryAttempt,
		StagePath:               r.Miscellaneous.StagePath,
		Epoch:                   r.Miscellaneous.Epoch,
		RecordFirstCreatedTime:  r.RecordFirstCreatedTime.Format(time.RFC3339),
		RecordLastUpdatedTime:   r.RecordLastUpdatedTime.Format(time.RFC3339),
	}
}

func fromItem(it item) *orchestrator.PipelineRecord {
	return &orchestrator.PipelineRecord{
		Identity: orchestrator.Identity{
			SourceID: it.SourceID, SourceName: it.SourceName, SourceCategory: it.SourceCategory, SourceSubCategory: it.SourceSubCategory,
			StageID: it.StageID, StageName: it.StageName, StageCategory: it.StageCategory, StageSubCategory: it.StageSubCategory,
			TargetID: it.TargetID, TargetName: it.TargetName, TargetCategory: it.TargetCategory, TargetSubCategory: it.TargetSubCategory,
		},
		PipelineID:      it.PipelineID,
		TargetDay:       parseOptional(it.TargetDay),
		WindowStartTime: parseOptional(it.WindowStartTime),
		WindowEndTime:   parseOptional(it.WindowEndTime),
		Granularity:     time.Duration(it.GranularitySec) * time.Second,
		SourceToStage: orchestrator.PhaseBlock{
			Status: orchestrator.PhaseStatus(it.SourceToStageStatus), StartTime: parseOptional(it.SourceToStageStart), EndTime: parseOptional(it.SourceToStageEnd),
		},
		StageToTarget: orchestrator.PhaseBlock{
			Status: orchestrator.PhaseStatus(it.StageToTargetStatus), StartTime: parseOptional(it.StageToTargetStart), EndTime: parseOptional(it.StageToTargetEnd),
		},
		Audit: orchestrator.PhaseBlock{
			Status: orchestrator.PhaseStatus(it.AuditStatus), StartTime: parseOptional(it.AuditStart), EndTime: parseOptional(it.AuditEnd),
		},
		PipelineStartTime:    parseOptional(it.PipelineStartTime),
		PipelineEndTime:      parseOptional(it.PipelineEndTime),
		PipelineStatus:       orchestrator.PipelineStatus(it.PipelineStatus),
		PipelinePriority:     it.PipelinePriority,
		DagRunID:             it.DagRunID,
		AuditResult:          orchestrator.AuditResult(it.AuditResult),
		SourceCount:          it.SourceCount,
		TargetCount:          it.TargetCount,
		CountDifference:      it.CountDifference,
		PercentageDifference: it.PercentageDifference,
		CompletedPhase:       orchestrator.Phase(it.CompletedPhase),
		RetryAttempt:         it.RetryAttempt,
		Miscellaneous:        orchestrator.Miscellaneous{StagePath: it.StagePath, Epoch: it.Epoch},
		RecordFirstCreatedTime: parseOptional(it.RecordFirstCreatedTime),
		RecordLastUpdatedTime:  parseOptional(it.RecordLastUpdatedTime),
	}
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	// Phase/pipeline instants are stored in UTC (unlike window_start/end_time,
	// which preserve the configured timezone's offset per §3) so a
	// lexicographic string comparison orders them chronologically for
	// SELECT_STALE's "now - pipeline_start_time > threshold" filter.
	return t.UTC().Format(time.RFC3339)
}

func parseOptional(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isConditionFailed distinguishes a failed CAS precondition from a real
// store error, the way CheckRateLimit does with errors.As.
func isConditionFailed(err error) bool {
	var ccfe *types.ConditionalCheckFailedException
	return errors.As(err, &ccfe)
}

func storeErr(op string, err error) error {
	return apperrors.NewStoreError(op, fmt.Sprintf("dynamodb %s failed", op), err)
}

// phaseAttrs maps a Phase to its item attribute names, mirroring item's
// dynamodbav tags for the three phase blocks.
func phaseAttrs(phase orchestrator.Phase) (status, start, end string) {
	switch phase {
	case orchestrator.PhaseSourceToStage:
		return "source_to_stage_status", "source_to_stage_start", "source_to_stage_end"
	case orchestrator.PhaseStageToTarget:
		return "stage_to_target_status", "stage_to_target_start", "stage_to_target_end"
	case orchestrator.PhaseAudit:
		return "audit_status", "audit_start", "audit_end"
	default:
		return "", "", ""
	}
}

func (s *Store) key(pipelineID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pipeline_id": &types.AttributeValueMemberS{Value: pipelineID},
	}
}

// UpsertNew implements §4.4's UPSERT_NEW: PutItem guarded by
// attribute_not_exists(pipeline_id), the same idiom annotation.go uses to
// avoid clobbering an existing annotation.
func (s *Store) UpsertNew(ctx context.Context, record *orchestrator.PipelineRecord) (bool, error) {
	av, err := attributevalue.MarshalMap(toItem(record))
	if err != nil {
		return false, storeErr("UPSERT_NEW", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(pipeline_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, storeErr("UPSERT_NEW", err)
	}
	return true, nil
}

// Acquire implements §4.4's ACQUIRE: an UpdateItem guarded by the
// pipeline being PENDING or FAILED with no current lock holder.
func (s *Store) Acquire(ctx context.Context, pipelineID, dagRunID string, now time.Time) (bool, error) {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.key(pipelineID),
		UpdateExpression:    aws.String("SET pipeline_status = :inprogress, pipeline_start_time = :now, dag_run_id = :dag"),
		ConditionExpression: aws.String("(pipeline_status = :pending OR pipeline_status = :failed) AND (attribute_not_exists(dag_run_id) OR dag_run_id = :empty)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: string(orchestrator.PipelineInProgress)},
			":pending":    &types.AttributeValueMemberS{Value: string(orchestrator.PipelinePending)},
			":failed":     &types.AttributeValueMemberS{Value: string(orchestrator.PipelineFailed)},
			":empty":      &types.AttributeValueMemberS{Value: ""},
			":now":        &types.AttributeValueMemberS{Value: formatOptional(now)},
			":dag":        &types.AttributeValueMemberS{Value: dagRunID},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, storeErr("ACQUIRE", err)
	}
	return true, nil
}

// BeginPhase implements §4.4's BEGIN_PHASE. Every phase but audit requires
// the caller to already hold the lock; audit only requires the record to
// exist, matching memory.Store's semantics (by the time audit runs it
// inherits the lock stage→target held, but does not re-validate ownership).
func (s *Store) BeginPhase(ctx context.Context, pipelineID string, phase orchestrator.Phase, dagRunID string, now time.Time) (bool, error) {
	statusAttr, startAttr, _ := phaseAttrs(phase)
	if statusAttr == "" {
		return false, nil
	}

	condition := "attribute_exists(pipeline_id)"
	values := map[string]types.AttributeValue{
		":inprogress": &types.AttributeValueMemberS{Value: string(orchestrator.PhaseInProgress)},
		":now":        &types.AttributeValueMemberS{Value: formatOptional(now)},
	}
	if phase != orchestrator.PhaseAudit {
		condition = "pipeline_status = :pipeline_inprogress AND dag_run_id = :dag"
		values[":pipeline_inprogress"] = &types.AttributeValueMemberS{Value: string(orchestrator.PipelineInProgress)}
		values[":dag"] = &types.AttributeValueMemberS{Value: dagRunID}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(pipelineID),
		UpdateExpression: aws.String(fmt.Sprintf("SET #status = :inprogress, #start = :now")),
		ConditionExpression: aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#status": statusAttr,
			"#start":  startAttr,
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, storeErr("BEGIN_PHASE", err)
	}
	return true, nil
}

// EndPhaseOK implements §4.4's END_PHASE_OK.
func (s *Store) EndPhaseOK(ctx context.Context, pipelineID string, phase orchestrator.Phase, now time.Time, extra ports.PhaseExtra) error {
	statusAttr, _, endAttr := phaseAttrs(phase)
	if statusAttr == "" {
		return nil
	}

	expr := "SET #status = :completed, #end = :now, completed_phase = :phase"
	values := map[string]types.AttributeValue{
		":completed": &types.AttributeValueMemberS{Value: string(orchestrator.PhaseCompleted)},
		":now":       &types.AttributeValueMemberS{Value: formatOptional(now)},
		":phase":     &types.AttributeValueMemberS{Value: string(phase)},
	}
	if extra.StagePath != "" {
		expr += ", stage_path = :stagePath"
		values[":stagePath"] = &types.AttributeValueMemberS{Value: extra.StagePath}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(pipelineID),
		UpdateExpression: aws.String(expr),
		ExpressionAttributeNames: map[string]string{
			"#status": statusAttr,
			"#end":    endAttr,
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return storeErr("END_PHASE_OK", err)
	}
	return nil
}

// ResetPhase implements §4.4's RESET_PHASE: reset the named phase to
// PENDING, clear its timestamps, release the lock, set pipeline_status, and
// bump retry_attempt.
func (s *Store) ResetPhase(ctx context.Context, pipelineID string, phase orchestrator.Phase, nextStatus orchestrator.PipelineStatus) error {
	statusAttr, startAttr, endAttr := phaseAttrs(phase)
	if statusAttr == "" {
		return nil
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(pipelineID),
		UpdateExpression: aws.String("SET #status = :pending, pipeline_status = :next ADD retry_attempt :one REMOVE #start, #end, dag_run_id"),
		ExpressionAttributeNames: map[string]string{
			"#status": statusAttr,
			"#start":  startAttr,
			"#end":    endAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(orchestrator.PhasePending)},
			":next":    &types.AttributeValueMemberS{Value: string(nextStatus)},
			":one":     &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return storeErr("RESET_PHASE", err)
	}
	return nil
}

// FinalizeOK implements §4.4's FINALIZE_OK: marks the pipeline and audit
// phase COMPLETED, stores the reconciled counts, and preserves dag_run_id
// for attribution.
func (s *Store) FinalizeOK(ctx context.Context, pipelineID string, now time.Time, counts ports.Counts) error {
	diff := counts.Target - counts.Source
	var pct float64
	if counts.Source > 0 {
		pct = float64(diff) / float64(counts.Source) * 100
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(pipelineID),
		UpdateExpression: aws.String(
			"SET audit_status = :completed, audit_end = :now, completed_phase = :audit, " +
				"pipeline_status = :pipelineCompleted, pipeline_end_time = :now, audit_result = :success, " +
				"source_count = :source, target_count = :target, count_difference = :diff, percentage_difference = :pct",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":completed":         &types.AttributeValueMemberS{Value: string(orchestrator.PhaseCompleted)},
			":now":               &types.AttributeValueMemberS{Value: formatOptional(now)},
			":audit":              &types.AttributeValueMemberS{Value: string(orchestrator.PhaseAudit)},
			":pipelineCompleted": &types.AttributeValueMemberS{Value: string(orchestrator.PipelineCompleted)},
			":success":           &types.AttributeValueMemberS{Value: string(orchestrator.AuditSuccess)},
			":source":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", counts.Source)},
			":target":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", counts.Target)},
			":diff":              &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", diff)},
			":pct":               &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", pct)},
		},
	})
	if err != nil {
		return storeErr("FINALIZE_OK", err)
	}
	return nil
}

// FinalizeFail implements §4.4's FINALIZE_FAIL: fails the pipeline, clears
// the lock, resets every phase to PENDING, and bumps retry_attempt so the
// pipeline is ready for a fresh retry.
func (s *Store) FinalizeFail(ctx context.Context, pipelineID string, now time.Time, result orchestrator.AuditResult) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(pipelineID),
		UpdateExpression: aws.String(
			"SET source_to_stage_status = :pending, stage_to_target_status = :pending, audit_status = :pending, " +
				"pipeline_status = :failed, audit_result = :result " +
				"ADD retry_attempt :one " +
				"REMOVE source_to_stage_start, source_to_stage_end, stage_to_target_start, stage_to_target_end, audit_start, audit_end, dag_run_id",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(orchestrator.PhasePending)},
			":failed":  &types.AttributeValueMemberS{Value: string(orchestrator.PipelineFailed)},
			":result":  &types.AttributeValueMemberS{Value: string(result)},
			":one":     &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return storeErr("FINALIZE_FAIL", err)
	}
	_ = now
	return nil
}

// SelectMaxWindowEnd implements §4.4's SELECT_MAX_WINDOW_END. There is no
// index on the identity triple plus target_day: this reference client scans
// the table and filters, reading a single Scan page.
func (s *Store) SelectMaxWindowEnd(ctx context.Context, identity orchestrator.Identity, targetDay time.Time) (time.Time, bool, error) {
	items, err := s.scanByIdentity(ctx, identity, map[string]types.AttributeValue{
		":targetDay": &types.AttributeValueMemberS{Value: targetDay.Format(time.RFC3339)},
	}, "target_day = :targetDay")
	if err != nil {
		return time.Time{}, false, storeErr("SELECT_MAX_WINDOW_END", err)
	}

	var max time.Time
	found := false
	for _, it := range items {
		end := parseOptional(it.WindowEndTime)
		if !found || end.After(max) {
			max = end
			found = true
		}
	}
	return max, found, nil
}

// SelectCountsByWindow implements §4.4's SELECT_COUNTS_BY_WINDOW.
func (s *Store) SelectCountsByWindow(ctx context.Context, identity orchestrator.Identity, windowStart, windowEnd time.Time) (ports.Counts, bool, error) {
	items, err := s.scanByIdentity(ctx, identity, map[string]types.AttributeValue{
		":start": &types.AttributeValueMemberS{Value: windowStart.Format(time.RFC3339)},
		":end":   &types.AttributeValueMemberS{Value: windowEnd.Format(time.RFC3339)},
	}, "window_start_time = :start AND window_end_time = :end")
	if err != nil {
		return ports.Counts{}, false, storeErr("SELECT_COUNTS_BY_WINDOW", err)
	}
	if len(items) == 0 {
		return ports.Counts{}, false, nil
	}
	return ports.Counts{Source: items[0].SourceCount, Target: items[0].TargetCount}, true, nil
}

// SelectStale implements §4.4's SELECT_STALE. pipeline_start_time is stored
// in UTC (see formatOptional) so a lexicographic "< :cutoff" filter orders
// chronologically.
func (s *Store) SelectStale(ctx context.Context, now time.Time, threshold time.Duration) ([]*orchestrator.PipelineRecord, error) {
	cutoff := now.Add(-threshold)

	out, err := s.scan(ctx, "pipeline_status = :inprogress AND attribute_exists(dag_run_id) AND attribute_exists(pipeline_start_time) AND pipeline_start_time < :cutoff",
		map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: string(orchestrator.PipelineInProgress)},
			":cutoff":     &types.AttributeValueMemberS{Value: formatOptional(cutoff)},
		})
	if err != nil {
		return nil, storeErr("SELECT_STALE", err)
	}

	records := make([]*orchestrator.PipelineRecord, 0, len(out))
	for _, it := range out {
		records = append(records, fromItem(it))
	}
	return records, nil
}

// SweepRecord implements the sweeper's per-record reset (§4.12).
func (s *Store) SweepRecord(ctx context.Context, pipelineID string, phasesToReset []orchestrator.Phase) error {
	names := map[string]string{}
	setClauses := []string{"pipeline_status = :pending"}
	removeClauses := []string{"dag_run_id"}
	values := map[string]types.AttributeValue{
		":pending": &types.AttributeValueMemberS{Value: string(orchestrator.PhasePending)},
		":one":     &types.AttributeValueMemberN{Value: "1"},
	}
	// pipeline_status and phase status share the PENDING literal but are
	// different domain enums; reuse :pending for both since both render to
	// the string "PENDING".

	for i, phase := range phasesToReset {
		statusAttr, startAttr, endAttr := phaseAttrs(phase)
		if statusAttr == "" {
			continue
		}
		statusKey := fmt.Sprintf("#status%d", i)
		startKey := fmt.Sprintf("#start%d", i)
		endKey := fmt.Sprintf("#end%d", i)
		names[statusKey] = statusAttr
		names[startKey] = startAttr
		names[endKey] = endAttr
		setClauses = append(setClauses, fmt.Sprintf("%s = :pending", statusKey))
		removeClauses = append(removeClauses, startKey, endKey)
	}

	expr := "SET " + joinClauses(setClauses) + " ADD retry_attempt :one REMOVE " + joinClauses(removeClauses)

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(pipelineID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return storeErr("SWEEP_RECORD", err)
	}
	return nil
}

func joinClauses(clauses []string) string {
	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// Get implements §4.4's record lookup used by the generator's idempotent
// re-run path and the dashboard.
func (s *Store) Get(ctx context.Context, pipelineID string) (*orchestrator.PipelineRecord, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(pipelineID),
	})
	if err != nil {
		return nil, false, storeErr("GET", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, false, storeErr("GET", err)
	}
	return fromItem(it), true, nil
}

// List implements a full-table Scan, used by the dashboard. Like
// SELECT_MAX_WINDOW_END, it does not paginate: it reads one Scan page.
func (s *Store) List(ctx context.Context) ([]*orchestrator.PipelineRecord, error) {
	items, err := s.scan(ctx, "", nil)
	if err != nil {
		return nil, storeErr("LIST", err)
	}
	records := make([]*orchestrator.PipelineRecord, 0, len(items))
	for _, it := range items {
		records = append(records, fromItem(it))
	}
	return records, nil
}

func (s *Store) scan(ctx context.Context, filter string, values map[string]types.AttributeValue) ([]item, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
		input.ExpressionAttributeValues = values
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]item, 0, len(out.Items))
	for _, raw := range out.Items {
		var it item
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Store) scanByIdentity(ctx context.Context, identity orchestrator.Identity, extraValues map[string]types.AttributeValue, extraFilter string) ([]item, error) {
	filter := "source_id = :sourceID AND stage_id = :stageID AND target_id = :targetID"
	values := map[string]types.AttributeValue{
		":sourceID": &types.AttributeValueMemberS{Value: identity.SourceID},
		":stageID":  &types.AttributeValueMemberS{Value: identity.StageID},
		":targetID": &types.AttributeValueMemberS{Value: identity.TargetID},
	}
	for k, v := range extraValues {
		values[k] = v
	}
	if extraFilter != "" {
		filter += " AND " + extraFilter
	}
	return s.scan(ctx, filter, values)
}
