package command

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grovetools/wallcycle/errors"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 2 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

// forbiddenArgChars are rejected in every argument handed to an external
// process. Commands are started without a shell, so other punctuation is
// passed through literally.
const forbiddenArgChars = "\n\r\x00"

// Validator names understood by SafeBuilder.Validate.
const (
	ArgDirectory  = "directory"
	ArgMode       = "mode"
	ArgExecutable = "executable"
	ArgFileName   = "fileName"
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// WithDefaultTimeout changes the timeout applied by Build. Values above
// MaxTimeout are capped; non-positive values restore DefaultTimeout.
func (sb *SafeBuilder) WithDefaultTimeout(timeout time.Duration) *SafeBuilder {
	sb.defaultTimeout = clampTimeout(timeout)
	return sb
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		ArgDirectory:  validateDirectory,
		ArgMode:       validateMode,
		ArgExecutable: validateExecutable,
		ArgFileName:   validateFileName,
	}
}

var validMode = regexp.MustCompile(`^[1-9][0-9]*$`)

// validateDirectory ensures a wallpaper directory is safe to hand to the picker
func validateDirectory(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("directory must be absolute: %s", dir)
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("directory is not clean: %s", dir)
	}
	if strings.ContainsAny(dir, forbiddenArgChars) {
		return fmt.Errorf("directory contains invalid characters")
	}
	return nil
}

// validateMode accepts a positive number of seconds or a direction
func validateMode(mode string) error {
	switch mode {
	case "next", "prev":
		return nil
	case "":
		return fmt.Errorf("mode cannot be empty")
	}
	if !validMode.MatchString(mode) {
		return fmt.Errorf("invalid mode: %s (want a positive number of seconds, next or prev)", mode)
	}
	if _, err := strconv.Atoi(mode); err != nil {
		return fmt.Errorf("invalid mode: %s", mode)
	}
	return nil
}

// validateExecutable ensures an executable name or path is safe
func validateExecutable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("executable cannot be empty")
	}
	if strings.ContainsAny(name, forbiddenArgChars) {
		return fmt.Errorf("executable contains invalid characters")
	}
	return nil
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Prevent directory traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("file path cannot contain '..'")
	}

	if strings.ContainsAny(path, forbiddenArgChars) {
		return fmt.Errorf("file path contains invalid characters")
	}

	return nil
}

func clampTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// Command represents a safe command configuration
type Command struct {
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}
	if err := validateExecutable(name); err != nil {
		return nil, err
	}

	return &Command{
		parent:   ctx,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	c.timeout = clampTimeout(timeout)
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// String renders the command line for logs and error messages.
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Exec creates the exec.Cmd. The timeout starts now; call Close once the
// process has finished.
func (c *Command) Exec() *exec.Cmd {
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithTimeout(c.parent, c.timeout)
	return c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}

// Close releases the timeout context.
func (c *Command) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// TimedOut reports whether the last execution hit its deadline.
func (c *Command) TimedOut() bool {
	return c.ctx != nil && c.ctx.Err() == context.DeadlineExceeded
}

// CombinedOutput runs the command and returns stdout and stderr together.
// A run that exceeds its timeout returns a COMMAND_TIMEOUT error; any other
// failure returns COMMAND_FAILED. The output gathered so far is returned in
// both cases.
func (c *Command) CombinedOutput() ([]byte, error) {
	defer c.Close()

	out, err := c.Exec().CombinedOutput()
	if err != nil {
		if c.TimedOut() {
			return out, errors.CommandTimeout(c.String(), c.timeout)
		}
		return out, errors.CommandFailed(c.String(), err)
	}
	return out, nil
}
