// Package starship shows the rotation status in the Starship prompt.
package starship

import (
	"strings"

	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/grovetools/wallcycle/util/sanitize"
)

// maxLabel bounds the picker text shown in the prompt.
const maxLabel = 40

// StatusProvider renders part of the prompt segment from a snapshot.
// Providers return an empty string if they have nothing to display.
type StatusProvider func(snap *rotation.Snapshot) (string, error)

// providers holds all registered status providers.
var providers = []StatusProvider{RotationProvider}

// RegisterProvider adds a provider after the built-in ones.
func RegisterProvider(p StatusProvider) {
	providers = append(providers, p)
}

// GetProviders returns all registered status providers.
func GetProviders() []StatusProvider {
	return providers
}

// ClearProviders removes all registered providers, the built-in one included.
func ClearProviders() {
	providers = nil
}

// RotationProvider shows a pause icon while rotation is idle and the
// picker's last status line without its "Last changed" prefix.
func RotationProvider(snap *rotation.Snapshot) (string, error) {
	var parts []string
	switch snap.State {
	case rotation.StateIdle:
		parts = append(parts, theme.IconPaused)
	case rotation.StateRunning:
		parts = append(parts, theme.IconRunning)
	}

	label := sanitize.ForPrompt(snap.Status.LastChangedLabel, 0)
	label = strings.TrimPrefix(label, "Last changed")
	label = sanitize.ForPrompt(strings.TrimPrefix(label, ":"), maxLabel)
	if label != "" {
		parts = append(parts, theme.IconImage+" "+label)
	}
	return strings.Join(parts, " "), nil
}
