package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("config.yaml", "yaml syntax error near line 12", underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "config.yaml", parseErr.Input)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "config.yaml")
}

func TestValidationErrorCarriesFieldAndMessage(t *testing.T) {
	t.Parallel()

	err := NewValidationError("triples[1].source.id", "field is required", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "triples[1].source.id", validationErr.Field)
	require.Contains(t, validationErr.Message, "field is required")
}

func TestStoreErrorIncludesOp(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("connection refused")
	err := NewStoreError("ACQUIRE", "failed to acquire pipeline lock", underlying)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "ACQUIRE", storeErr.Op)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestAdapterTransientErrorIncludesAttempt(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("timeout")
	err := NewAdapterTransientError("target.count", 3, underlying)

	var transientErr *AdapterTransientError
	require.ErrorAs(t, err, &transientErr)
	require.Equal(t, "target.count", transientErr.Adapter)
	require.Equal(t, 3, transientErr.Attempt)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestAcquireConflictErrorHasNoUnderlying(t *testing.T) {
	t.Parallel()

	err := NewAcquireConflictError("abc123", "pipeline already in progress under another run")

	var conflictErr *AcquireConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Equal(t, "abc123", conflictErr.PipelineID)
	require.Contains(t, err.Error(), "abc123")
	require.Nil(t, stdErrors.Unwrap(err))
}

func TestIntegrityViolationErrorReportsCounts(t *testing.T) {
	t.Parallel()

	err := NewIntegrityViolationError("abc123", 500, 501)

	var integrityErr *IntegrityViolationError
	require.ErrorAs(t, err, &integrityErr)
	require.Equal(t, int64(500), integrityErr.SourceCount)
	require.Equal(t, int64(501), integrityErr.TargetCount)
}

func TestMismatchErrorReportsCounts(t *testing.T) {
	t.Parallel()

	err := NewMismatchError("abc123", 500, 480)

	var mismatchErr *MismatchError
	require.ErrorAs(t, err, &mismatchErr)
	require.Equal(t, int64(500), mismatchErr.SourceCount)
	require.Equal(t, int64(480), mismatchErr.TargetCount)
}

func TestSkipReasonStringsAreStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, "no_window", SkipNoWindow.String())
	require.Equal(t, "future_window", SkipFutureWindow.String())
	require.Equal(t, "already_processed", SkipAlreadyProcessed.String())
}
