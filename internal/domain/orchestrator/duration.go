package orchestrator

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// unitDurations maps the single-letter unit suffixes C1 accepts to their
// time.Duration multiplier.
var unitDurations = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// ParseDuration parses a compound duration string such as "1d2h30m": one or
// more <int><unit> pieces, units order-free, whitespace tolerated. Fails
// with a ParseError on empty input or an unrecognized unit.
func ParseDuration(input string) (time.Duration, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, apperrors.NewParseError(input, "duration string is empty", nil)
	}

	var total time.Duration
	var digits strings.Builder
	sawToken := false

	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c == ' ' || c == '\t':
			continue
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
		default:
			unit, ok := unitDurations[c]
			if !ok {
				return 0, apperrors.NewParseError(input, "unknown duration unit '"+string(c)+"'", nil)
			}
			if digits.Len() == 0 {
				return 0, apperrors.NewParseError(input, "duration unit with no preceding number", nil)
			}
			n, err := strconv.ParseInt(digits.String(), 10, 64)
			if err != nil {
				return 0, apperrors.NewParseError(input, "invalid duration number", err)
			}
			total += time.Duration(n) * unit
			digits.Reset()
			sawToken = true
		}
	}

	if digits.Len() > 0 {
		return 0, apperrors.NewParseError(input, "trailing number without a unit", nil)
	}
	if !sawToken {
		return 0, apperrors.NewParseError(input, "no valid duration tokens found", nil)
	}

	return total, nil
}
