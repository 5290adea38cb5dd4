package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noPriorWindow(Identity, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

// TestCalculateWindowS1 matches spec.md scenario S1: no prior records, a
// fresh 30m granularity window starting at the target day's boundary.
func TestCalculateWindowS1(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC)
	w, ok, err := CalculateWindow(now, time.UTC, Identity{}, 2*time.Hour, 30*time.Minute, 0, noPriorWindow)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.TargetDay)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC), w.End)
	require.Equal(t, 30*time.Minute, w.AchievedGranularity)
}

// TestCalculateWindowS2 matches scenario S2: continuation clamps the
// achieved granularity at the day boundary.
func TestCalculateWindowS2(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC)
	priorEnd := time.Date(2025, 1, 1, 23, 45, 0, 0, time.UTC)
	lookup := func(Identity, time.Time) (time.Time, bool, error) {
		return priorEnd, true, nil
	}

	w, ok, err := CalculateWindow(now, time.UTC, Identity{}, 2*time.Hour, 30*time.Minute, 0, lookup)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, priorEnd, w.Start)
	require.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), w.End)
	require.Equal(t, 15*time.Minute, w.AchievedGranularity)
	require.Equal(t, 30*time.Minute, w.RequestedGranularity)
}

// TestCalculateWindowExhaustedDayEmitsNoWindow covers "start == day_end".
func TestCalculateWindowExhaustedDayEmitsNoWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC)
	dayEnd := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	lookup := func(Identity, time.Time) (time.Time, bool, error) {
		return dayEnd, true, nil
	}

	w, ok, err := CalculateWindow(now, time.UTC, Identity{}, 2*time.Hour, 30*time.Minute, 0, lookup)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, NoWindow, w)
}

func TestCalculateWindowGranularityOffset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 1, 15, 0, 0, time.UTC)
	w, ok, err := CalculateWindow(now, time.UTC, Identity{}, 2*time.Hour, 30*time.Minute, 10*time.Minute, noPriorWindow)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 1, 1, 0, 10, 0, 0, time.UTC), w.Start)
}

func TestCalculateWindowLookupError(t *testing.T) {
	t.Parallel()

	lookup := func(Identity, time.Time) (time.Time, bool, error) {
		return time.Time{}, false, errBoom
	}
	_, ok, err := CalculateWindow(time.Now(), time.UTC, Identity{}, time.Hour, time.Hour, 0, lookup)
	require.Error(t, err)
	require.False(t, ok)
}

type boomError struct{}

func (*boomError) Error() string { return "boom" }

var errBoom = &boomError{}
