package orchestrator

import (
	"crypto/md5" //nolint:gosec // not a security property, sanctioned by the pipeline_id spec
	"encoding/hex"
	"fmt"
	"time"
)

// BuildPipelineID implements §4.3: a collision-resistant hex digest over the
// concatenation of identity fields and window boundaries in canonical
// ISO-8601 form, truncated to 32 hex characters. Identical inputs always
// produce an identical id (invariant 1).
func BuildPipelineID(identity Identity, targetDay, windowStart, windowEnd time.Time) string {
	payload := fmt.Sprintf(
		"%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		identity.SourceID, identity.SourceName, identity.SourceCategory, identity.SourceSubCategory,
		identity.StageID, identity.StageName, identity.StageCategory, identity.StageSubCategory,
		identity.TargetID, identity.TargetName, identity.TargetCategory, identity.TargetSubCategory,
		targetDay.Format(time.RFC3339),
		windowStart.Format(time.RFC3339),
		windowEnd.Format(time.RFC3339),
	)
	sum := md5.Sum([]byte(payload)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:32]
}

// BuildStagePath derives the deterministic storage hierarchy for §4.3: keyed
// by target day, the window start's hour-minute, and an epoch suffix so a
// retry's fresh record writes to a new location rather than colliding with a
// partially-written prior attempt.
func BuildStagePath(identity Identity, targetDay, windowStart time.Time, epoch string) string {
	return fmt.Sprintf(
		"%s/%s/%s/%s/%s",
		identity.SourceID,
		targetDay.Format("2006-01-02"),
		windowStart.Format("1504"),
		identity.TargetID,
		epoch,
	)
}

// NewEpoch mints an epoch suffix from the current instant, to seed a fresh
// stage path on each generator run that does not reuse an existing record.
func NewEpoch(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixNano())
}
