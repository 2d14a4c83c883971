package errors

import (
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodePickerNotFound, "picker not found")
	if err.Code != ErrCodePickerNotFound {
		t.Errorf("expected code %s, got %s", ErrCodePickerNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodePickerNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	detailed := err.WithDetail("picker", "wallpaper-picker").WithDetail("attempt", 2)
	if detailed.Details["picker"] != "wallpaper-picker" {
		t.Error("WithDetail should add details")
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	inner := ConfigInvalid("wallpaper_delay must be >= 0")
	outer := fmt.Errorf("reload settings: %w", inner)

	assert.Equal(t, ErrCodeConfigInvalid, GetCode(outer))
	assert.True(t, Is(outer, ErrCodeConfigInvalid))
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.False(t, Is(nil, ""))
}

func TestErrorConstructors(t *testing.T) {
	err := ConfigNotFound("/tmp/settings.yml")
	assert.Equal(t, ErrCodeConfigNotFound, err.Code)
	assert.Equal(t, "/tmp/settings.yml", err.Details["path"])

	err = DaemonAlreadyRunning(4242)
	assert.Equal(t, ErrCodeDaemonAlreadyRunning, err.Code)
	assert.Equal(t, 4242, err.Details["pid"])

	err = CommandTimeout("wallpaper-picker", 2*time.Second)
	assert.Equal(t, ErrCodeCommandTimeout, err.Code)
	assert.Equal(t, "2s", err.Details["timeout"])

	err = InvalidInput("direction", "sideways", "must be next or prev")
	assert.Equal(t, ErrCodeInvalidInput, err.Code)
	assert.Equal(t, "sideways", err.Details["value"])
}

func TestPickerFailedExitCode(t *testing.T) {
	runErr := exec.Command("sh", "-c", "exit 3").Run()
	require.Error(t, runErr)

	err := PickerFailed("wallpaper-picker", runErr)
	assert.Equal(t, ErrCodePickerFailed, err.Code)
	assert.Equal(t, 3, err.Details["exitCode"])
	assert.Contains(t, err.ToJSON(), "PICKER_FAILED")
}
