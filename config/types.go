package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// Store keys understood by the rotation controller.
const (
	KeyWallpaperPath   = "wallpaper_path"
	KeyWallpaperDelay  = "wallpaper_delay"
	KeyWallpaperTimer  = "wallpaper_timer"
	KeyWallpaperPaused = "wallpaper_paused"
	KeyPicker          = "picker"
	KeyPickerTimeout   = "picker_timeout"
)

const (
	// DefaultWallpaperPath is used when the settings file names no directory.
	DefaultWallpaperPath = "~/Pictures/wallpapers"
	// DefaultPicker is the executable invoked to select and apply a wallpaper.
	DefaultPicker = "wallpaper-picker"
)

// Settings is the typed view of the settings file.
//
// Delay and timer are whole seconds. A zero value for either disables
// rotation. Keys that are not part of the core settings (for example
// "logging") are kept in Extensions.
type Settings struct {
	WallpaperPath   string `yaml:"wallpaper_path,omitempty" toml:"wallpaper_path,omitempty" json:"wallpaper_path,omitempty" mapstructure:"wallpaper_path" jsonschema:"description=Directory holding the wallpaper images (file:// URIs and ~ are accepted)"`
	WallpaperDelay  int    `yaml:"wallpaper_delay,omitempty" toml:"wallpaper_delay,omitempty" json:"wallpaper_delay,omitempty" mapstructure:"wallpaper_delay" jsonschema:"minimum=0,description=Delay in seconds passed to the picker on a scheduled rotation"`
	WallpaperTimer  int    `yaml:"wallpaper_timer,omitempty" toml:"wallpaper_timer,omitempty" json:"wallpaper_timer,omitempty" mapstructure:"wallpaper_timer" jsonschema:"minimum=0,description=Seconds between rotations"`
	WallpaperPaused bool   `yaml:"wallpaper_paused,omitempty" toml:"wallpaper_paused,omitempty" json:"wallpaper_paused,omitempty" mapstructure:"wallpaper_paused" jsonschema:"description=Start with rotation paused"`
	Picker          string `yaml:"picker,omitempty" toml:"picker,omitempty" json:"picker,omitempty" mapstructure:"picker" jsonschema:"description=Picker executable name or path"`
	PickerTimeout   string `yaml:"picker_timeout,omitempty" toml:"picker_timeout,omitempty" json:"picker_timeout,omitempty" mapstructure:"picker_timeout" jsonschema:"description=Maximum run time of one picker invocation (Go duration or seconds)"`

	Extensions map[string]interface{} `yaml:"-" toml:"-" json:"-" mapstructure:",remain"`
}

// SetDefaults fills in values the settings file left out.
func (s *Settings) SetDefaults() {
	if strings.TrimSpace(s.WallpaperPath) == "" {
		s.WallpaperPath = DefaultWallpaperPath
	}
	if strings.TrimSpace(s.Picker) == "" {
		s.Picker = DefaultPicker
	}
}

// Delay returns wallpaper_delay as a duration.
func (s *Settings) Delay() time.Duration {
	return time.Duration(s.WallpaperDelay) * time.Second
}

// Interval returns wallpaper_timer as a duration.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.WallpaperTimer) * time.Second
}

// PickerTimeoutDuration parses picker_timeout. A bare integer is read as
// seconds. An empty value returns zero, meaning the picker default applies.
func (s *Settings) PickerTimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(s.PickerTimeout)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid picker_timeout %q: %w", raw, err)
	}
	return d, nil
}

// Clone returns a copy whose Extensions map can be modified independently.
func (s *Settings) Clone() *Settings {
	out := *s
	if s.Extensions != nil {
		out.Extensions = make(map[string]interface{}, len(s.Extensions))
		for k, v := range s.Extensions {
			out.Extensions[k] = v
		}
	}
	return &out
}

// UnmarshalExtension decodes a specific extension's configuration from the
// settings file into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := settings.UnmarshalExtension("logging", &logCfg)
func (s *Settings) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := s.Extensions[key]
	if !ok {
		// A missing key leaves the target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
