package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("settings file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid settings: %s", reason))
}

// InvalidInput creates an invalid input error for a named argument
func InvalidInput(field string, value interface{}, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field).
		WithDetail("value", value)
}

// PickerNotFound creates an error for a picker executable that cannot be resolved
func PickerNotFound(picker string, err error) *Error {
	return Wrap(err, ErrCodePickerNotFound, fmt.Sprintf("picker executable not found: %s", picker)).
		WithDetail("picker", picker)
}

// PickerFailed creates a picker execution failure error
func PickerFailed(picker string, err error) *Error {
	wcErr := Wrap(err, ErrCodePickerFailed, fmt.Sprintf("picker failed: %s", picker)).
		WithDetail("picker", picker)

	// Extract exit code if available
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		wcErr = wcErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return wcErr
}

// CommandTimeout creates a command timeout error
func CommandTimeout(cmd string, timeout time.Duration) *Error {
	return Wrap(context.DeadlineExceeded, ErrCodeCommandTimeout,
		fmt.Sprintf("command '%s' did not finish within %s", cmd, timeout)).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout.String())
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *Error {
	wcErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		wcErr = wcErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return wcErr
}

// DaemonNotRunning creates an error for operations that need the daemon
func DaemonNotRunning(socket string) *Error {
	return New(ErrCodeDaemonNotRunning, "wallcycle daemon is not running").
		WithDetail("socket", socket)
}

// DaemonAlreadyRunning creates an error for a second daemon instance
func DaemonAlreadyRunning(pid int) *Error {
	return New(ErrCodeDaemonAlreadyRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// Shutdown is returned by operations issued after the controller stopped
func Shutdown() *Error {
	return New(ErrCodeShutdown, "controller has been shut down")
}
