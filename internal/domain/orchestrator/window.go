package orchestrator

import "time"

// Window is the result of the window calculation algorithm (§4.2): the
// target day, the half-open window, and the achieved granularity (which may
// be smaller than the requested one when clamped at the day boundary).
type Window struct {
	TargetDay           time.Time
	Start                time.Time
	End                  time.Time
	RequestedGranularity time.Duration
	AchievedGranularity  time.Duration
}

// MaxWindowEndLookup resolves the continuation point for a target day: the
// store's max(window_end_time) among records sharing this target_day and
// identity triple. ok is false when no prior record exists.
type MaxWindowEndLookup func(identity Identity, targetDay time.Time) (end time.Time, ok bool, err error)

// NoWindow is returned by CalculateWindow when start has reached or passed
// the day boundary: the generator must emit no record (§4.2 step 4).
var NoWindow = Window{}

// CalculateWindow implements §4.2. All arithmetic is performed in loc.
func CalculateWindow(
	now time.Time,
	loc *time.Location,
	identity Identity,
	xTimeBack time.Duration,
	granularity time.Duration,
	granularityOffset time.Duration,
	lookup MaxWindowEndLookup,
) (Window, bool, error) {
	localNow := now.In(loc)
	target := localNow.Add(-xTimeBack)
	targetDay := startOfDay(target, loc)

	dayEnd := targetDay.AddDate(0, 0, 1)

	start, found, err := lookup(identity, targetDay)
	if err != nil {
		return Window{}, false, err
	}
	if !found {
		start = targetDay.Add(granularityOffset)
	}
	start = start.In(loc)

	if !start.Before(dayEnd) {
		return NoWindow, false, nil
	}

	rawEnd := start.Add(granularity)
	end := rawEnd
	if end.After(dayEnd) {
		end = dayEnd
	}

	return Window{
		TargetDay:            targetDay,
		Start:                start,
		End:                  end,
		RequestedGranularity: granularity,
		AchievedGranularity:  end.Sub(start),
	}, true, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
