package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/schema"
)

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

// schemaValidator compiles the generated settings schema once.
func schemaValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = fmt.Errorf("generate settings schema: %w", err)
			return
		}
		validator, validatorErr = schema.NewValidator("settings.json", data)
	})
	return validator, validatorErr
}

// Validate checks the settings against the generated JSON Schema and then
// applies the checks a schema cannot express.
func (s *Settings) Validate() error {
	v, err := schemaValidator()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create settings validator")
	}
	if err := v.Validate(s); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "settings failed schema validation")
	}

	if strings.ContainsAny(s.Picker, "\n\r\x00") {
		return errors.New(errors.ErrCodeConfigValidation, "picker must be a single executable name or path").
			WithDetail("field", KeyPicker)
	}

	timeout, err := s.PickerTimeoutDuration()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "picker_timeout is not a duration").
			WithDetail("field", KeyPickerTimeout)
	}
	if timeout < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "picker_timeout must not be negative").
			WithDetail("field", KeyPickerTimeout).
			WithDetail("value", s.PickerTimeout)
	}

	return nil
}
