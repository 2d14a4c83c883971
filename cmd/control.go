package cmd

import (
	"context"
	"time"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/spf13/cobra"
)

// newClient is replaced in tests.
var newClient = func() daemon.Client { return daemon.New() }

// newControlCmd builds a command that sends one daemon command and prints
// the resulting snapshot. Without a daemon the command runs in-process.
func newControlCmd(use, command, short string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.GetLogger(cmd)
			client := newClient()
			defer client.Close()

			if !client.IsRunning() {
				logger.Debug("Daemon not running, running in-process")
			}

			snap, err := client.Do(commandContext(cmd), command)
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			renderSnapshot(cmd.OutOrStdout(), snap, time.Now())
			return nil
		},
	}
}

// NewControlCmds returns the rotation control commands.
func NewControlCmds() []*cobra.Command {
	return []*cobra.Command{
		newControlCmd("next", daemon.CommandNext, "Switch to the next wallpaper now"),
		newControlCmd("prev", daemon.CommandPrev, "Switch to the previous wallpaper now", "previous"),
		newControlCmd("pause", daemon.CommandPause, "Pause scheduled rotation"),
		newControlCmd("resume", daemon.CommandResume, "Resume scheduled rotation"),
		newControlCmd("toggle", daemon.CommandTogglePaused, "Toggle between paused and rotating", "toggle-paused"),
		newControlCmd("restart", daemon.CommandRestart, "Rotate now and reschedule from the current settings"),
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
