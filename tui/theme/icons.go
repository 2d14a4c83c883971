package theme

import (
	"os"
	"strings"
)

// Nerd Font icons
const (
	nerdIconSuccess   = "\U000F012C" // md-check (U+F012C)
	nerdIconError     = "\uEA87"     // cod-error (U+EA87)
	nerdIconWarning   = "\uF071"     // fa-warning (U+F071)
	nerdIconInfo      = "\U000F02FC" // md-information (U+F02FC)
	nerdIconRunning   = "\uF021"     // fa-refresh (U+F021)
	nerdIconScheduled = "\U000F051F" // md-timer_sand (U+F051F)
	nerdIconPaused    = "\U000F03E7" // md-pause_octagon (U+F03E7)
	nerdIconStopped   = "\uF467"     // oct-x (U+F467)
	nerdIconImage     = "\U000F02E9" // md-image (U+F02E9)
)

// ASCII fallback icons
const (
	asciiIconSuccess   = "✓"
	asciiIconError     = "✗"
	asciiIconWarning   = "⚠"
	asciiIconInfo      = "ℹ"
	asciiIconRunning   = "◐"
	asciiIconScheduled = "…"
	asciiIconPaused    = "‖"
	asciiIconStopped   = "■"
	asciiIconImage     = "▣"
)

// Icons in use. ASCII glyphs are selected with WALLCYCLE_ICONS=ascii or
// "icons: ascii" in the tui section of the settings file.
var (
	IconSuccess   = nerdIconSuccess
	IconError     = nerdIconError
	IconWarning   = nerdIconWarning
	IconInfo      = nerdIconInfo
	IconRunning   = nerdIconRunning
	IconScheduled = nerdIconScheduled
	IconPaused    = nerdIconPaused
	IconStopped   = nerdIconStopped
	IconImage     = nerdIconImage
)

func init() {
	mode := strings.ToLower(os.Getenv("WALLCYCLE_ICONS"))
	if mode == "" {
		mode = strings.ToLower(loadTUISettings().Icons)
	}
	if mode == "ascii" {
		UseASCIIIcons()
	}
}

// UseASCIIIcons switches every icon to its ASCII fallback.
func UseASCIIIcons() {
	IconSuccess = asciiIconSuccess
	IconError = asciiIconError
	IconWarning = asciiIconWarning
	IconInfo = asciiIconInfo
	IconRunning = asciiIconRunning
	IconScheduled = asciiIconScheduled
	IconPaused = asciiIconPaused
	IconStopped = asciiIconStopped
	IconImage = asciiIconImage
}
