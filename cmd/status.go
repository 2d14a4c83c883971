package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the rotation state",
		Long: `Show the rotation state reported by the daemon. Without a running daemon
the configured settings are shown with the state "stopped".

Examples:
  # One-shot status
  wallcycle status

  # Follow status changes as they happen
  wallcycle status --watch

  # Machine-readable output for status bars
  wallcycle status --json
`,
		Args: cobra.NoArgs,
		RunE: runStatusE,
	}
	cmd.Flags().BoolP("watch", "w", false, "Stream status updates until interrupted")
	return cmd
}

func runStatusE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	watch, _ := cmd.Flags().GetBool("watch")
	out := cmd.OutOrStdout()

	client := newClient()
	defer client.Close()

	if !watch {
		snap, err := client.Status(commandContext(cmd))
		if err != nil {
			return err
		}
		if opts.JSONOutput {
			return printJSON(out, snap)
		}
		renderSnapshot(out, snap, time.Now())
		return nil
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, err := client.StreamStatus(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for u := range updates {
		if opts.JSONOutput {
			if err := enc.Encode(u); err != nil {
				return err
			}
			continue
		}
		switch u.UpdateType {
		case daemon.UpdateSettingsReload:
			fmt.Fprintln(out, theme.DefaultTheme.Muted.Render("settings reloaded: "+u.SettingsFile))
		default:
			if u.Snapshot != nil {
				fmt.Fprintln(out, theme.DefaultTheme.Muted.Render(time.Now().Format("15:04:05")))
				renderSnapshot(out, u.Snapshot, time.Now())
			}
		}
	}
	return nil
}
