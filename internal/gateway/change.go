package gateway

import (
	"fmt"
	"time"

	"github.com/grovetools/wallcycle/config"
)

// Change is one settings field that changed. Each variant dispatches itself
// to the matching Visitor method.
type Change interface {
	// Key is the settings key the change came from.
	Key() string
	Accept(v Visitor) error
}

// Visitor handles each kind of Change.
type Visitor interface {
	VisitDirectory(DirectoryChanged) error
	VisitDelay(DelayChanged) error
	VisitInterval(IntervalChanged) error
	VisitPaused(PausedChanged) error
}

// DirectoryChanged carries the raw wallpaper_path value, possibly a file:// URI.
type DirectoryChanged struct {
	Path string
}

func (c DirectoryChanged) Key() string            { return config.KeyWallpaperPath }
func (c DirectoryChanged) Accept(v Visitor) error { return v.VisitDirectory(c) }
func (c DirectoryChanged) String() string         { return fmt.Sprintf("%s=%q", c.Key(), c.Path) }

// DelayChanged carries the new picker delay.
type DelayChanged struct {
	Delay time.Duration
}

func (c DelayChanged) Key() string            { return config.KeyWallpaperDelay }
func (c DelayChanged) Accept(v Visitor) error { return v.VisitDelay(c) }
func (c DelayChanged) String() string         { return fmt.Sprintf("%s=%s", c.Key(), c.Delay) }

// IntervalChanged carries the new rotation interval. Zero stops rotation.
type IntervalChanged struct {
	Interval time.Duration
}

func (c IntervalChanged) Key() string            { return config.KeyWallpaperTimer }
func (c IntervalChanged) Accept(v Visitor) error { return v.VisitInterval(c) }
func (c IntervalChanged) String() string         { return fmt.Sprintf("%s=%s", c.Key(), c.Interval) }

// PausedChanged carries the new pause flag.
type PausedChanged struct {
	Paused bool
}

func (c PausedChanged) Key() string            { return config.KeyWallpaperPaused }
func (c PausedChanged) Accept(v Visitor) error { return v.VisitPaused(c) }
func (c PausedChanged) String() string         { return fmt.Sprintf("%s=%t", c.Key(), c.Paused) }
