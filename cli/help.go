package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// HelpExtrasFunc renders additional help sections after COMMANDS/FLAGS.
type HelpExtrasFunc func(w io.Writer, t *theme.Theme)

var (
	helpExtras   = make(map[*cobra.Command]HelpExtrasFunc)
	helpExtrasMu sync.RWMutex
)

const (
	maxHelpWidth = 72
	minHelpWidth = 40
)

func helpWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minHelpWidth || width > maxHelpWidth {
		return maxHelpWidth
	}
	return width
}

// wrapText wraps each paragraph of text at width. Lines already shorter
// than width are kept as they are.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = maxHelpWidth
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			out = append(out, para)
			continue
		}
		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len(word) > width {
				out = append(out, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		if line.Len() > 0 {
			out = append(out, line.String())
		}
	}
	return out
}

// SetStyledHelp installs the styled help renderer on cmd.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive installs styled help on cmd and every subcommand.
// Usage output is suppressed; errors are reported by ErrorHandler instead.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// SetStyledHelpWithExtras installs styled help with an extra section,
// rendered before the trailing help hint.
func SetStyledHelpWithExtras(cmd *cobra.Command, extras HelpExtrasFunc) {
	helpExtrasMu.Lock()
	helpExtras[cmd] = extras
	helpExtrasMu.Unlock()
	cmd.SetHelpFunc(styledHelpFunc)
}

// splitExamples separates a trailing "Examples:" block from a long description.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

type helpStyles struct {
	theme   *theme.Theme
	title   lipgloss.Style
	section lipgloss.Style
	command lipgloss.Style
	sub     lipgloss.Style
	flag    lipgloss.Style
	italic  lipgloss.Style
}

func newHelpStyles(t *theme.Theme) helpStyles {
	return helpStyles{
		theme:   t,
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Yellow),
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Yellow),
		command: lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue),
		sub:     lipgloss.NewStyle().Foreground(t.Colors.Cyan),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
		italic:  lipgloss.NewStyle().Italic(true),
	}
}

func styledHelpFunc(cmd *cobra.Command, _ []string) {
	renderHelp(cmd.OutOrStdout(), cmd, theme.DefaultTheme, helpWidth()-2)
}

func renderHelp(w io.Writer, cmd *cobra.Command, t *theme.Theme, width int) {
	s := newHelpStyles(t)

	fmt.Fprintln(w, " "+s.title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := splitExamples(cmd.Long)
	for _, line := range wrapText(cmd.Short, width) {
		if line != "" {
			fmt.Fprintln(w, " "+s.italic.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		for _, line := range wrapText(description, width) {
			fmt.Fprintln(w, " "+line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Fprintln(w, "\n "+s.section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Fprintf(w, " %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())
		}
	}

	renderCommands(w, cmd, s)
	renderFlags(w, cmd, s)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		fmt.Fprintln(w, "\n "+s.section.Render("EXAMPLES"))
		renderExamples(w, examples, cmd.Root().Name(), s)
	}

	helpExtrasMu.RLock()
	extras := helpExtras[cmd]
	helpExtrasMu.RUnlock()
	if extras != nil {
		extras(w, t)
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func renderCommands(w io.Writer, cmd *cobra.Command, s helpStyles) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	pad := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && len(sub.Name()) > pad {
			pad = len(sub.Name())
		}
	}
	fmt.Fprintln(w, "\n "+s.section.Render("COMMANDS"))
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		name := fmt.Sprintf("%-*s", pad, sub.Name())
		fmt.Fprintf(w, " %s  %s\n", s.command.Render(name), sub.Short)
	}
}

// renderFlags lists local flags. Group commands get a compact one-line
// summary; leaf commands get a table with defaults and choices.
func renderFlags(w io.Writer, cmd *cobra.Command, s helpStyles) {
	var flags []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	if len(flags) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, 0, len(flags))
		for _, f := range flags {
			if f.Shorthand != "" {
				names = append(names, "-"+f.Shorthand+"/--"+f.Name)
			} else {
				names = append(names, "--"+f.Name)
			}
		}
		fmt.Fprintln(w, "\n "+s.theme.Muted.Render("Flags: "+strings.Join(names, ", ")))
		return
	}

	fmt.Fprintln(w, "\n "+s.section.Render("FLAGS"))
	pad := 0
	for _, f := range flags {
		if n := len(flagName(f)); n > pad {
			pad = n
		}
	}
	for _, f := range flags {
		usage, choices := parseChoices(f.Usage)
		switch f.DefValue {
		case "", "false", "[]", "0":
		default:
			usage += s.theme.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Fprintf(w, " %s  %s\n", s.flag.Render(fmt.Sprintf("%-*s", pad, flagName(f))), usage)
		for _, c := range choices {
			fmt.Fprintf(w, " %s  %s\n", strings.Repeat(" ", pad), s.theme.Muted.Render("• "+c))
		}
	}
}

// renderExamples prints example lines, muting comments and coloring the
// binary name, the subcommand and flags.
func renderExamples(w io.Writer, examples, rootName string, s helpStyles) {
	for _, line := range strings.Split(examples, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(line, "#"):
			fmt.Fprintln(w, " "+s.theme.Muted.Render(line))
		default:
			fmt.Fprintln(w, "   "+styleExample(line, rootName, s))
		}
	}
}

func styleExample(line, rootName string, s helpStyles) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case i == 0 && part == rootName:
			parts[i] = s.command.Render(part)
		case strings.HasPrefix(part, "-"):
			parts[i] = s.flag.Render(part)
		case i == 1:
			parts[i] = s.sub.Render(part)
		}
	}
	return strings.Join(parts, " ")
}

func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// parseChoices splits a multi-line flag usage into its first line and the
// bullet lines ("• x" or "- x") that follow it.
func parseChoices(usage string) (description string, choices []string) {
	lines := strings.Split(usage, "\n")
	if len(lines) == 1 {
		return usage, nil
	}
	description = strings.TrimSpace(lines[0])
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if c, ok := strings.CutPrefix(line, "• "); ok {
			choices = append(choices, c)
		} else if c, ok := strings.CutPrefix(line, "- "); ok {
			choices = append(choices, c)
		}
	}
	if len(choices) == 0 {
		return usage, nil
	}
	return description, choices
}
