package cli

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapText(t *testing.T) {
	lines := wrapText("rotate the wallpaper every interval seconds", 16)
	assert.Equal(t, []string{"rotate the", "wallpaper every", "interval seconds"}, lines)
	assert.Equal(t, []string{"short", "kept"}, wrapText("short\nkept", 16))
}

func TestParseChoices(t *testing.T) {
	desc, choices := parseChoices("Minimum level:\n  • debug - everything\n  • error - failures only")
	assert.Equal(t, "Minimum level:", desc)
	assert.Equal(t, []string{"debug - everything", "error - failures only"}, choices)

	desc, choices = parseChoices("Follow the log")
	assert.Equal(t, "Follow the log", desc)
	assert.Nil(t, choices)
}

func TestSplitExamples(t *testing.T) {
	desc, ex := splitExamples("Controls rotation.\n\nExamples:\n  wallcycle next")
	assert.Equal(t, "Controls rotation.", desc)
	assert.Equal(t, "wallcycle next", ex)
}

func TestRenderHelp(t *testing.T) {
	root := NewStandardCommand("wallcycle", "Wallpaper rotation")
	root.Long = "Rotates wallpapers.\n\nExamples:\n  # advance\n  wallcycle next"
	root.AddCommand(&cobra.Command{Use: "next", Short: "Show the next wallpaper", Run: func(*cobra.Command, []string) {}})
	SetStyledHelpWithExtras(root, func(w io.Writer, _ *theme.Theme) {
		fmt.Fprintln(w, " EXTRA SECTION")
	})

	var buf bytes.Buffer
	renderHelp(&buf, root, theme.NewThemeWithName("terminal"), 60)
	out := buf.String()

	require.Contains(t, out, "WALLCYCLE")
	assert.Contains(t, out, "Rotates wallpapers.")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "Show the next wallpaper")
	assert.Contains(t, out, "EXAMPLES")
	assert.Contains(t, out, "# advance")
	assert.Contains(t, out, "EXTRA SECTION")
	assert.Contains(t, out, `Use "wallcycle [command] --help"`)
}
