package daemon

import (
	"context"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/gateway"
	"github.com/grovetools/wallcycle/internal/picker"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/pkg/paths"
	"github.com/grovetools/wallcycle/state"
)

// ReasonNoDaemon is reported by LocalClient snapshots.
const ReasonNoDaemon = "daemon not running"

// LocalClient implements Client without a daemon. Rotations run once
// in-process; pause changes are written to the settings file so the next
// daemon start picks them up.
type LocalClient struct {
	settingsPath string
	store        *state.Store
	invoker      func(*config.Settings) rotation.Invoker
}

// NewLocalClient creates a LocalClient for the default settings file.
func NewLocalClient() *LocalClient {
	return NewLocalClientWithSettings(paths.SettingsPath())
}

// NewLocalClientWithSettings creates a LocalClient for the settings file at path.
func NewLocalClientWithSettings(path string) *LocalClient {
	return &LocalClient{
		settingsPath: path,
		store:        state.New(path),
		invoker: func(s *config.Settings) rotation.Invoker {
			timeout, _ := s.PickerTimeoutDuration()
			return picker.New(s.Picker, picker.WithTimeout(timeout))
		},
	}
}

// WithInvoker replaces the picker used for in-process rotations.
func (c *LocalClient) WithInvoker(inv rotation.Invoker) *LocalClient {
	c.invoker = func(*config.Settings) rotation.Invoker { return inv }
	return c
}

func (c *LocalClient) settings() (*config.Settings, error) {
	s, err := config.Load(c.settingsPath)
	if errors.Is(err, errors.ErrCodeConfigNotFound) {
		s = &config.Settings{}
		s.SetDefaults()
		return s, nil
	}
	return s, err
}

// Status describes the configured rotation; nothing is scheduled without the daemon.
func (c *LocalClient) Status(ctx context.Context) (*rotation.Snapshot, error) {
	s, err := c.settings()
	if err != nil {
		return nil, err
	}
	cfg, err := gateway.FromSettings(s)
	if err != nil {
		return nil, err
	}
	return &rotation.Snapshot{State: rotation.StateStopped, Reason: ReasonNoDaemon, Config: cfg}, nil
}

// Config returns an error since the running config is only available via daemon.
func (c *LocalClient) Config(ctx context.Context) (*RunningConfig, error) {
	return nil, errors.DaemonNotRunning(paths.SocketPath())
}

// Do runs command in-process.
func (c *LocalClient) Do(ctx context.Context, command string) (*rotation.Snapshot, error) {
	switch command {
	case CommandNext:
		return c.once(func(ctl *rotation.Controller) error { return ctl.TriggerOverride(rotation.Next) })
	case CommandPrev:
		return c.once(func(ctl *rotation.Controller) error { return ctl.TriggerOverride(rotation.Prev) })
	case CommandRestart:
		return c.once(func(ctl *rotation.Controller) error { return ctl.Restart() })
	case CommandPause:
		return c.setPaused(func(bool) bool { return true })
	case CommandResume:
		return c.setPaused(func(bool) bool { return false })
	case CommandTogglePaused:
		return c.setPaused(func(p bool) bool { return !p })
	}
	return nil, errors.InvalidInput("command", command, "unknown command")
}

// once runs fn against a throwaway controller and reports its result.
func (c *LocalClient) once(fn func(*rotation.Controller) error) (*rotation.Snapshot, error) {
	s, err := c.settings()
	if err != nil {
		return nil, err
	}
	cfg, err := gateway.FromSettings(s)
	if err != nil {
		return nil, err
	}

	ctl := rotation.New(c.invoker(s), cfg)
	defer ctl.Shutdown()
	if err := fn(ctl); err != nil {
		return nil, err
	}

	snap := ctl.Snapshot()
	snap.State = rotation.StateStopped
	snap.Reason = ReasonNoDaemon
	snap.NextRunAt = nil
	return &snap, nil
}

func (c *LocalClient) setPaused(fn func(bool) bool) (*rotation.Snapshot, error) {
	s, err := c.settings()
	if err != nil {
		return nil, err
	}
	paused := fn(s.WallpaperPaused)
	if err := c.store.Set(config.KeyWallpaperPaused, paused); err != nil {
		return nil, err
	}
	return c.Status(context.Background())
}

// StreamStatus returns an error since streaming is only available via daemon.
func (c *LocalClient) StreamStatus(ctx context.Context) (<-chan StatusUpdate, error) {
	return nil, errors.DaemonNotRunning(paths.SocketPath())
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
