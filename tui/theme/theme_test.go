package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestResolveThemeColors(t *testing.T) {
	term := resolveThemeColors("ANSI")
	assert.Equal(t, lipgloss.Color(terminalRed), term.Red)

	fallback := resolveThemeColors("does-not-exist")
	assert.Equal(t, newKanagawaColors(), fallback)
}

func TestNormalizeThemeName(t *testing.T) {
	assert.Equal(t, "kanagawa-dragon", normalizeThemeName("  Kanagawa_Dragon "))
}

func TestRenderStatusUnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "plain", RenderStatus("other", "plain"))
}

func TestUseASCIIIcons(t *testing.T) {
	saved := IconPaused
	defer func() { IconPaused = saved }()

	UseASCIIIcons()
	assert.Equal(t, asciiIconPaused, IconPaused)
}
