// Package gateway turns settings changes into rotation controller
// operations. It never runs the picker itself.
package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/util/pathutil"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Controller is the part of rotation.Controller the gateway drives.
type Controller interface {
	Update(fn func(rotation.Configuration) rotation.Configuration) error
	Restart() error
	SetPaused(paused bool) error
	Stop() error
}

// Gateway applies changes to a controller.
type Gateway struct {
	ctl    Controller
	logger *logrus.Entry
}

// New returns a gateway for ctl.
func New(ctl Controller) *Gateway {
	return &Gateway{ctl: ctl, logger: logging.NewLogger("gateway")}
}

// WithLogger replaces the gateway logger.
func (g *Gateway) WithLogger(logger *logrus.Entry) *Gateway {
	g.logger = logger
	return g
}

// Apply dispatches changes in order and stops at the first error.
func (g *Gateway) Apply(changes ...Change) error {
	for _, c := range changes {
		g.logger.WithField("key", c.Key()).Debugf("Applying %v", c)
		if err := c.Accept(g); err != nil {
			return fmt.Errorf("apply %s: %w", c.Key(), err)
		}
	}
	return nil
}

// VisitDirectory normalizes and stores the directory, then restarts.
func (g *Gateway) VisitDirectory(c DirectoryChanged) error {
	dir, err := pathutil.NormalizeDirectory(c.Path)
	if err != nil {
		return errors.InvalidInput(config.KeyWallpaperPath, c.Path, err.Error())
	}
	if err := g.ctl.Update(func(cfg rotation.Configuration) rotation.Configuration {
		return cfg.WithDirectory(dir)
	}); err != nil {
		return err
	}
	return g.ctl.Restart()
}

// VisitDelay stores the delay and re-evaluates the schedule.
func (g *Gateway) VisitDelay(c DelayChanged) error {
	return g.storeTiming(func(cfg rotation.Configuration) rotation.Configuration {
		return cfg.WithDelay(c.Delay)
	})
}

// VisitInterval stores the interval and re-evaluates the schedule.
func (g *Gateway) VisitInterval(c IntervalChanged) error {
	return g.storeTiming(func(cfg rotation.Configuration) rotation.Configuration {
		return cfg.WithInterval(c.Interval)
	})
}

// VisitPaused forwards the pause flag.
func (g *Gateway) VisitPaused(c PausedChanged) error {
	return g.ctl.SetPaused(c.Paused)
}

// storeTiming applies fn and restarts, or stops when the resulting interval
// is zero.
func (g *Gateway) storeTiming(fn func(rotation.Configuration) rotation.Configuration) error {
	var interval time.Duration
	if err := g.ctl.Update(func(cfg rotation.Configuration) rotation.Configuration {
		next := fn(cfg)
		interval = next.Interval
		return next
	}); err != nil {
		return err
	}
	if interval == 0 {
		g.logger.Info("Rotation interval cleared, stopping")
		return g.ctl.Stop()
	}
	return g.ctl.Restart()
}

// ChangesFromKey maps a settings key and loosely typed value to a Change.
// Numbers may arrive as strings; delay and timer are seconds.
func ChangesFromKey(key string, value interface{}) (Change, error) {
	switch key {
	case config.KeyWallpaperPath:
		var path string
		if err := mapstructure.WeakDecode(value, &path); err != nil {
			return nil, errors.InvalidInput(key, value, err.Error())
		}
		return DirectoryChanged{Path: path}, nil
	case config.KeyWallpaperDelay, config.KeyWallpaperTimer:
		secs, err := seconds(value)
		if err != nil {
			return nil, errors.InvalidInput(key, value, err.Error())
		}
		if key == config.KeyWallpaperDelay {
			return DelayChanged{Delay: secs}, nil
		}
		return IntervalChanged{Interval: secs}, nil
	case config.KeyWallpaperPaused:
		var paused bool
		if err := mapstructure.WeakDecode(value, &paused); err != nil {
			return nil, errors.InvalidInput(key, value, err.Error())
		}
		return PausedChanged{Paused: paused}, nil
	}
	return nil, errors.InvalidInput("key", key, "not a rotation setting")
}

func seconds(value interface{}) (time.Duration, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		value = s
	}
	var n int
	if err := mapstructure.WeakDecode(value, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return time.Duration(n) * time.Second, nil
}

// Diff returns the changes that turn prev into next. The pause flag comes
// first so that pausing takes effect before any restart.
func Diff(prev, next config.Settings) []Change {
	var changes []Change
	if prev.WallpaperPaused != next.WallpaperPaused {
		changes = append(changes, PausedChanged{Paused: next.WallpaperPaused})
	}
	if prev.WallpaperPath != next.WallpaperPath {
		changes = append(changes, DirectoryChanged{Path: next.WallpaperPath})
	}
	if prev.WallpaperDelay != next.WallpaperDelay {
		changes = append(changes, DelayChanged{Delay: next.Delay()})
	}
	if prev.WallpaperTimer != next.WallpaperTimer {
		changes = append(changes, IntervalChanged{Interval: next.Interval()})
	}
	return changes
}
