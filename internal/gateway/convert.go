package gateway

import (
	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/util/pathutil"
)

// FromSettings builds a controller configuration from loaded settings. The
// directory is normalized the same way VisitDirectory does it.
func FromSettings(s *config.Settings) (rotation.Configuration, error) {
	dir, err := pathutil.NormalizeDirectory(s.WallpaperPath)
	if err != nil {
		return rotation.Configuration{}, errors.InvalidInput(config.KeyWallpaperPath, s.WallpaperPath, err.Error())
	}
	return rotation.Configuration{
		Directory: dir,
		Delay:     s.Delay(),
		Interval:  s.Interval(),
		Paused:    s.WallpaperPaused,
	}, nil
}
