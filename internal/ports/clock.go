package ports

import "time"

// Clock abstracts wall-clock time so phases and the window calculator are
// testable with fakes rather than real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}
