package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/pkg/paths"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Format is the on-disk encoding of a settings file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .toml is treated as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Unmarshal parses a settings document into a generic map.
// An empty document yields an empty map.
func Unmarshal(data []byte, format Format) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}

	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	return raw, nil
}

// Marshal encodes a generic map in the given format.
func Marshal(raw map[string]interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(raw)
	default:
		return yaml.Marshal(raw)
	}
}

// Load reads, decodes and validates a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read settings file").
			WithDetail("path", path)
	}

	settings, err := LoadFromBytes(data, FormatFor(path))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithDetail("path", path)
		}
		return nil, err
	}
	return settings, nil
}

// LoadDefault loads the settings file at paths.SettingsPath. A missing file
// is not an error: the defaults are returned instead.
func LoadDefault() (*Settings, error) {
	settings, err := Load(paths.SettingsPath())
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			s := &Settings{}
			s.SetDefaults()
			return s, nil
		}
		return nil, err
	}
	return settings, nil
}

// LoadFromBytes parses settings from a byte slice. ${VAR} and ${VAR:-default}
// references are expanded before parsing.
func LoadFromBytes(data []byte, format Format) (*Settings, error) {
	expanded := expandEnvVars(string(data))

	raw, err := Unmarshal([]byte(expanded), format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse settings")
	}

	settings, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	settings.SetDefaults()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Decode converts a raw key/value map into Settings. Scalars are weakly
// typed, so "300" decodes into an integer field.
func Decode(raw map[string]interface{}) (*Settings, error) {
	var settings Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create settings decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode settings")
	}
	return &settings, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
