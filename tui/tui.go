// Package tui prepares terminal styling for CLI output.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI checks for environment variables that force color output
// (`CLICOLOR_FORCE`, `COLORTERM`) and sets the lipgloss color profile when
// present, so status output keeps its colors when piped into a status bar.
// NO_COLOR disables styling entirely.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
