// Package collector provides background workers that feed the daemon's status store.
package collector

import (
	"context"

	"github.com/grovetools/wallcycle/internal/daemon/store"
)

// Collector is a background worker that emits store updates.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run starts the collector. It should block until context is canceled.
	// It emits updates via the updates channel.
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}
