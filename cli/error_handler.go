package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/wallcycle/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

func detail(err error, key string) interface{} {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Details != nil {
		return e.Details[key]
	}
	return nil
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Settings file not found: %v\n", detail(err, "path"))
		fmt.Fprintf(out, "Run 'wallcycle settings set wallpaper_path <dir>' to create one.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(out, "❌ Invalid settings: %v\n", err)
		fmt.Fprintf(out, "Run 'wallcycle settings schema' to see the accepted keys.\n")

	case errors.ErrCodePickerNotFound:
		fmt.Fprintf(out, "❌ Picker '%v' not found in PATH\n", detail(err, "picker"))
		fmt.Fprintf(out, "Install it or set 'picker' in the settings file.\n")

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(out, "❌ The wallcycle daemon is not running\n")
		fmt.Fprintf(out, "Start it with 'wallcycle daemon start'.\n")

	case errors.ErrCodeDaemonAlreadyRunning:
		fmt.Fprintf(out, "❌ The wallcycle daemon is already running (PID %v)\n", detail(err, "pid"))

	case errors.ErrCodeCommandTimeout:
		fmt.Fprintf(out, "❌ Command timed out after %v: %v\n", detail(err, "timeout"), detail(err, "command"))
		fmt.Fprintf(out, "Raise 'picker_timeout' if the picker needs longer.\n")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		var e *errors.Error
		if stderrors.As(err, &e) {
			fmt.Fprintf(out, "\nError details:\n%s\n", e.ToJSON())
		}
	}
	return err
}
