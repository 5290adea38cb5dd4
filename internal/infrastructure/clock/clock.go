// Package clock provides the system-backed ports.Clock implementation. The
// engine never calls time.Now/time.Sleep directly so phases stay testable
// with fakes (§9's "no ambient globals").
package clock

import (
	"time"

	"github.com/dataorch/pipeliner/internal/ports"
)

// System is the real wall-clock implementation of ports.Clock.
type System struct{}

var _ ports.Clock = System{}

// New returns the system clock.
func New() System { return System{} }

func (System) Now() time.Time       { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }
