package collector

import (
	"context"
	"time"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/grovetools/wallcycle/internal/gateway"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/sirupsen/logrus"
)

// SettingsCollector watches the settings file, applies rotation changes
// through the gateway and announces every reload.
type SettingsCollector struct {
	path     string
	initial  config.Settings
	gateway  *gateway.Gateway
	debounce time.Duration
	logger   *logrus.Entry
}

// NewSettingsCollector creates a collector for the settings file at path.
// initial is what the controller was configured from.
func NewSettingsCollector(path string, initial config.Settings, gw *gateway.Gateway) *SettingsCollector {
	return &SettingsCollector{
		path:     path,
		initial:  initial,
		gateway:  gw,
		debounce: daemon.DefaultDebounce,
		logger:   logging.NewLogger("settings"),
	}
}

// WithDebounce overrides the reload debounce.
func (c *SettingsCollector) WithDebounce(d time.Duration) *SettingsCollector {
	c.debounce = d
	return c
}

// Name returns the collector's name.
func (c *SettingsCollector) Name() string { return "settings" }

// Run watches until ctx is cancelled.
func (c *SettingsCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	apply := func(changes []gateway.Change) {
		if err := c.gateway.Apply(changes...); err != nil {
			c.logger.WithError(err).Error("Failed to apply settings change")
		}
	}
	announce := func(file string) {
		select {
		case updates <- store.Update{Type: store.UpdateSettingsReload, Source: c.Name(), File: file}:
		case <-ctx.Done():
		}
	}

	w, err := daemon.NewSettingsWatcher(c.path, c.initial, c.debounce, apply, announce)
	if err != nil {
		return err
	}
	c.logger.WithField("path", c.path).Debug("Watching settings file")
	w.Start(ctx)
	return nil
}
