package rotation

import (
	"time"

	"github.com/grovetools/wallcycle/errors"
)

// Direction is the argument of a manual rotation.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// ParseDirection accepts "next", "prev" and the long form "previous".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "next":
		return Next, nil
	case "prev", "previous":
		return Prev, nil
	}
	return "", errors.InvalidInput("direction", s, "must be next or prev")
}

// State is the derived lifecycle state of a controller.
type State string

const (
	// StateIdle means no timer is armed: paused, invalid configuration or stopped.
	StateIdle State = "idle"
	// StateScheduled means a timer is armed.
	StateScheduled State = "scheduled"
	// StateRunning means a picker invocation is in flight.
	StateRunning State = "running"
	// StateStopped is terminal and follows Shutdown.
	StateStopped State = "stopped"
)

// Reasons reported with StateIdle.
const (
	ReasonPaused  = "paused"
	ReasonInvalid = "invalid configuration"
	ReasonStopped = "stopped"
	ReasonNew     = "not started"
)

// RotationStatus is the outcome of the most recent invocation.
// LastChangedLabel is empty when the picker printed no status line or failed.
type RotationStatus struct {
	LastChangedLabel string    `json:"last_changed"`
	LastRunAt        time.Time `json:"last_run_at"`
}

// Snapshot is a consistent, read-only copy of the controller state.
type Snapshot struct {
	State     State          `json:"state"`
	Reason    string         `json:"reason,omitempty"`
	Config    Configuration  `json:"config"`
	Status    RotationStatus `json:"status"`
	NextRunAt *time.Time     `json:"next_run_at,omitempty"`
	Runs      int            `json:"runs"`
}
