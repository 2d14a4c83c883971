// Package picker runs the external wallpaper picker.
package picker

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/grovetools/wallcycle/command"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/logging"
	"github.com/sirupsen/logrus"
)

// StatusPrefix marks the picker output line that describes the last change.
const StatusPrefix = "Last changed"

// Invoker runs `<picker> <directory> <delay-or-mode>` and extracts its status line.
type Invoker struct {
	picker   string
	timeout  time.Duration
	executor command.Executor
	builder  *command.SafeBuilder
	logger   *logrus.Entry
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTimeout bounds each picker run. Zero keeps command.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.timeout = d }
}

// WithExecutor swaps the process executor.
func WithExecutor(e command.Executor) Option {
	return func(i *Invoker) { i.executor = e }
}

// WithLogger replaces the invoker logger.
func WithLogger(l *logrus.Entry) Option {
	return func(i *Invoker) { i.logger = l }
}

// New returns an Invoker for the picker executable.
func New(picker string, opts ...Option) *Invoker {
	i := &Invoker{picker: picker}
	for _, opt := range opts {
		opt(i)
	}
	if i.executor == nil {
		i.executor = &command.RealExecutor{}
	}
	if i.logger == nil {
		i.logger = logging.NewLogger("picker")
	}
	i.builder = command.NewSafeBuilderWithExecutor(i.executor)
	if i.timeout > 0 {
		i.builder.WithDefaultTimeout(i.timeout)
	}
	return i
}

// Picker returns the configured executable.
func (i *Invoker) Picker() string {
	return i.picker
}

// Check resolves the picker executable.
func (i *Invoker) Check() error {
	if _, err := i.executor.LookPath(i.picker); err != nil {
		return errors.PickerNotFound(i.picker, err)
	}
	return nil
}

// Invoke runs the picker synchronously and returns its last status line.
// Failures are logged and yield "".
func (i *Invoker) Invoke(ctx context.Context, directory, modeOrDelay string) string {
	out, err := i.run(ctx, directory, modeOrDelay)
	if err != nil {
		entry := i.logger.WithError(err).WithField("code", errors.GetCode(err))
		if ctx.Err() != nil {
			entry.Debug("Picker interrupted")
		} else {
			entry.Warn("Picker invocation failed")
		}
		return ""
	}

	label := ParseStatus(out)
	i.logger.WithFields(logrus.Fields{
		"directory": directory,
		"mode":      modeOrDelay,
	}).Debugf("Picker finished: %q", label)
	return label
}

func (i *Invoker) run(ctx context.Context, directory, modeOrDelay string) (string, error) {
	if err := i.builder.Validate(command.ArgDirectory, directory); err != nil {
		return "", errors.InvalidInput("directory", directory, err.Error())
	}
	if err := i.builder.Validate(command.ArgMode, modeOrDelay); err != nil {
		return "", errors.InvalidInput("mode", modeOrDelay, err.Error())
	}

	cmd, err := i.builder.Build(ctx, i.picker, directory, modeOrDelay)
	if err != nil {
		return "", errors.InvalidInput("picker", i.picker, err.Error())
	}

	i.logger.WithField("command", cmd.String()).Debug("Running picker")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, errors.ErrCodeCommandTimeout) {
			return "", err
		}
		return "", errors.PickerFailed(i.picker, err).WithDetail("output", strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// ParseStatus returns the last line of output starting with StatusPrefix,
// without trailing whitespace, or "" when there is none.
func ParseStatus(output string) string {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(line, StatusPrefix) {
			last = line
		}
	}
	return last
}
