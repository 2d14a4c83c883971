// Package engine runs the rotation controller and its collectors for the daemon.
package engine

import (
	"context"
	"sync"

	"github.com/grovetools/wallcycle/internal/daemon/collector"
	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/sirupsen/logrus"
)

// Controller is the lifecycle of rotation.Controller.
type Controller interface {
	Start() error
	Shutdown()
}

// Engine manages the controller and all collectors.
type Engine struct {
	store      *store.Store
	ctl        Controller
	collectors []collector.Collector
	logger     *logrus.Entry
	shutdown   sync.Once
}

// New creates a new Engine instance.
func New(st *store.Store, ctl Controller, logger *logrus.Entry) *Engine {
	return &Engine{
		store:  st,
		ctl:    ctl,
		logger: logger,
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Start starts the controller, then runs all collectors, and blocks until
// ctx is canceled. The controller is started first so a settings change
// picked up by a collector cannot trigger a rotation ahead of the initial
// one. The controller is shut down before Start returns.
func (e *Engine) Start(ctx context.Context) {
	updates := make(chan store.Update, 100)
	var wg sync.WaitGroup

	// Cancelling ctx interrupts an initial picker run still in progress.
	stop := context.AfterFunc(ctx, e.Shutdown)
	defer stop()

	// 1. Start Update Consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				e.store.ApplyUpdate(u)
			}
		}
	}()

	// 2. Start rotating
	if err := e.ctl.Start(); err != nil {
		e.logger.WithError(err).Error("Failed to start rotation")
	}

	// 3. Start Collectors
	for _, c := range e.collectors {
		wg.Add(1)
		go func(col collector.Collector) {
			defer wg.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, e.store, updates); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	<-ctx.Done()
	e.Shutdown()
	wg.Wait()
}

// Shutdown stops the controller. Only the first call has an effect.
func (e *Engine) Shutdown() {
	e.shutdown.Do(func() {
		e.logger.Info("Stopping rotation")
		e.ctl.Shutdown()
	})
}

// Store returns the engine's status store.
func (e *Engine) Store() *store.Store {
	return e.store
}
