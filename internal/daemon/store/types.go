// Package store provides the in-memory status store for the wallcycle daemon.
package store

import "github.com/grovetools/wallcycle/internal/rotation"

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateStatus         UpdateType = "status"
	UpdateSettingsReload UpdateType = "settings_reload"
)

// Update represents a change to the state.
type Update struct {
	Type   UpdateType
	Source string // Which collector sent this update (e.g. "status", "settings")

	// Snapshot is set for UpdateStatus.
	Snapshot *rotation.Snapshot
	// File is set for UpdateSettingsReload.
	File string
}
