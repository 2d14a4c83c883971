package collector

import (
	"context"

	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/grovetools/wallcycle/internal/rotation"
)

// Observable is the part of rotation.Controller the status collector reads.
type Observable interface {
	OnChange(fn func(rotation.Snapshot))
	Snapshot() rotation.Snapshot
}

// StatusCollector forwards controller snapshots to the store. Only the
// latest snapshot is kept, so a slow consumer never blocks the controller.
type StatusCollector struct {
	ctl    Observable
	latest chan rotation.Snapshot
}

// NewStatusCollector subscribes to ctl. Call it before the controller starts
// so the first transitions are not missed.
func NewStatusCollector(ctl Observable) *StatusCollector {
	c := &StatusCollector{
		ctl:    ctl,
		latest: make(chan rotation.Snapshot, 1),
	}
	ctl.OnChange(c.offer)
	return c
}

// Name returns the collector's name.
func (c *StatusCollector) Name() string { return "status" }

// offer replaces any unconsumed snapshot with s. It runs on the controller loop.
func (c *StatusCollector) offer(s rotation.Snapshot) {
	for {
		select {
		case c.latest <- s:
			return
		default:
			select {
			case <-c.latest:
			default:
			}
		}
	}
}

// Run forwards snapshots until ctx is cancelled.
func (c *StatusCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	emit := func(s rotation.Snapshot) bool {
		select {
		case updates <- store.Update{Type: store.UpdateStatus, Source: c.Name(), Snapshot: &s}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit(c.ctl.Snapshot()) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-c.latest:
			if !emit(s) {
				return nil
			}
		}
	}
}
