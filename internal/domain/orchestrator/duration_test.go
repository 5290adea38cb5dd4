package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

func TestParseDurationCompound(t *testing.T) {
	t.Parallel()

	d, err := ParseDuration("1d2h30m")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour+2*time.Hour+30*time.Minute, d)
}

func TestParseDurationOrderFreeAndWhitespace(t *testing.T) {
	t.Parallel()

	d, err := ParseDuration(" 30m 2h ")
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour+30*time.Minute, d)
}

func TestParseDurationSingleUnit(t *testing.T) {
	t.Parallel()

	d, err := ParseDuration("45s")
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, d)
}

func TestParseDurationEmptyIsParseError(t *testing.T) {
	t.Parallel()

	_, err := ParseDuration("")
	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseDurationUnknownUnit(t *testing.T) {
	t.Parallel()

	_, err := ParseDuration("3w")
	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseDurationTrailingNumber(t *testing.T) {
	t.Parallel()

	_, err := ParseDuration("1d2")
	require.Error(t, err)
}

func TestParseDurationUnitWithNoNumber(t *testing.T) {
	t.Parallel()

	_, err := ParseDuration("d")
	require.Error(t, err)
}
