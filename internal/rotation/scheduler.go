package rotation

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle is a scheduled callback that can be cancelled.
type Handle interface {
	// Stop cancels the callback. It reports false if the callback already
	// fired or was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

// ClockScheduler schedules callbacks on a clockwork clock.
type ClockScheduler struct {
	clock clockwork.Clock
}

// NewClockScheduler returns a scheduler on clock; a nil clock means the
// real one.
func NewClockScheduler(clock clockwork.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{clock: clock}
}

// AfterFunc runs fn on its own goroutine once d has elapsed.
func (s *ClockScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	return s.clock.AfterFunc(d, fn)
}
