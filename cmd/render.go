package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/tui/theme"
)

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func stateIcon(s rotation.State) string {
	switch s {
	case rotation.StateRunning:
		return theme.IconRunning
	case rotation.StateScheduled:
		return theme.IconScheduled
	case rotation.StateIdle:
		return theme.IconPaused
	default:
		return theme.IconStopped
	}
}

func stateStyle(t *theme.Theme, s rotation.State) lipgloss.Style {
	switch s {
	case rotation.StateRunning:
		return t.Info
	case rotation.StateScheduled:
		return t.Success
	case rotation.StateIdle:
		return t.Warning
	default:
		return t.Muted
	}
}

// renderSnapshot writes a human-readable status block.
func renderSnapshot(w io.Writer, snap *rotation.Snapshot, now time.Time) {
	t := theme.DefaultTheme
	label := t.Muted.Width(14)

	head := stateStyle(t, snap.State).Render(stateIcon(snap.State) + " " + string(snap.State))
	if snap.Reason != "" {
		head += " " + t.Muted.Render("("+snap.Reason+")")
	}
	fmt.Fprintln(w, head)

	dir := snap.Config.Directory
	if dir == "" {
		dir = "-"
	}
	fmt.Fprintf(w, "  %s%s\n", label.Render("Directory"), t.Code.Render(dir))
	fmt.Fprintf(w, "  %s%s\n", label.Render("Interval"), formatSeconds(snap.Config.Interval))
	fmt.Fprintf(w, "  %s%s\n", label.Render("Delay"), formatSeconds(snap.Config.Delay))
	if snap.Config.Paused {
		fmt.Fprintf(w, "  %s%s\n", label.Render("Paused"), t.Warning.Render("yes"))
	}
	if snap.Status.LastChangedLabel != "" {
		fmt.Fprintf(w, "  %s %s\n", theme.IconImage, snap.Status.LastChangedLabel)
	}
	if snap.NextRunAt != nil {
		in := snap.NextRunAt.Sub(now).Round(time.Second)
		if in < 0 {
			in = 0
		}
		fmt.Fprintf(w, "  %s%s %s\n", label.Render("Next"), in, t.Muted.Render(snap.NextRunAt.Format("15:04:05")))
	}
}

func formatSeconds(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}
