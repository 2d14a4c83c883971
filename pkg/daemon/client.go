// Package daemon provides a client for the wallcycle daemon (wallcycled).
// It implements a transparent fallback pattern: if the daemon is running,
// requests go over its unix socket; if not, they run in-process against the
// settings file.
package daemon

import (
	"context"
	"time"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/internal/rotation"
)

// Commands accepted by the daemon's command endpoints and websocket.
const (
	CommandNext         = "next"
	CommandPrev         = "prev"
	CommandTogglePaused = "toggle-paused"
	CommandPause        = "pause"
	CommandResume       = "resume"
	CommandRestart      = "restart"
)

// Commands lists every command name in a stable order.
var Commands = []string{
	CommandNext, CommandPrev, CommandTogglePaused, CommandPause, CommandResume, CommandRestart,
}

// Client defines the interface for interacting with the daemon.
// Both RemoteClient (socket) and LocalClient (in-process) implement it.
type Client interface {
	// Status returns the current rotation snapshot.
	Status(ctx context.Context) (*rotation.Snapshot, error)

	// Config returns the settings the daemon is running with.
	Config(ctx context.Context) (*RunningConfig, error)

	// Do runs one of the Command* operations and returns the resulting snapshot.
	Do(ctx context.Context, command string) (*rotation.Snapshot, error)

	// StreamStatus subscribes to status updates. The channel is closed when
	// ctx is cancelled or the connection drops.
	StreamStatus(ctx context.Context) (<-chan StatusUpdate, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// RunningConfig is what the daemon reports on /api/config.
type RunningConfig struct {
	Settings     config.Settings `json:"settings"`
	SettingsPath string          `json:"settings_path"`
	Picker       string          `json:"picker"`
	PID          int             `json:"pid"`
	StartedAt    time.Time       `json:"started_at"`
}

// Update types carried by StatusUpdate.
const (
	UpdateInitial        = "initial"
	UpdateStatus         = "status"
	UpdateSettingsReload = "settings_reload"
)

// StatusUpdate is one event pushed to stream and websocket subscribers.
type StatusUpdate struct {
	UpdateType   string             `json:"update_type"`
	Snapshot     *rotation.Snapshot `json:"snapshot,omitempty"`
	SettingsFile string             `json:"settings_file,omitempty"`
}

// WSCommand is a command sent by a websocket client.
type WSCommand struct {
	Command string `json:"command"`
}

// WSReply answers a WSCommand. Exactly one of Snapshot and Error is set.
type WSReply struct {
	UpdateType string             `json:"update_type"`
	Command    string             `json:"command"`
	Snapshot   *rotation.Snapshot `json:"snapshot,omitempty"`
	Error      string             `json:"error,omitempty"`
	Code       string             `json:"code,omitempty"`
}

// UpdateReply is the update_type of a WSReply.
const UpdateReply = "reply"
