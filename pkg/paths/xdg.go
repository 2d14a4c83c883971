// Package paths provides XDG-compliant path resolution for wallcycle.
//
// Resolution order:
// 1. WALLCYCLE_HOME (portable root) → $WALLCYCLE_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/wallcycle
// 3. Platform defaults → ~/.config/wallcycle, ~/.local/state/wallcycle
package paths

import (
	"os"
	"path/filepath"
)

const appName = "wallcycle"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("WALLCYCLE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("WALLCYCLE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the wallcycle configuration directory.
// The settings file lives here.
func ConfigDir() string {
	if os.Getenv("WALLCYCLE_HOME") != "" {
		return getConfigHome()
	}
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the wallcycle state directory.
// Used for the pid file and logs.
func StateDir() string {
	if os.Getenv("WALLCYCLE_HOME") != "" {
		return getStateHome()
	}
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory holding daemon log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the wallcycle runtime directory for sockets.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("WALLCYCLE_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SettingsPath returns the default settings file path.
// WALLCYCLE_SETTINGS overrides it.
func SettingsPath() string {
	if p := os.Getenv("WALLCYCLE_SETTINGS"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "settings.yml")
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "wallcycled.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "wallcycled.pid")
}

// DaemonLogPath returns the log file written by the daemon.
func DaemonLogPath() string {
	return filepath.Join(LogDir(), "wallcycle-daemon.log")
}

// EnsureDirs creates all wallcycle directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
