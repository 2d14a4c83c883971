// Package cmd holds the wallcycle command tree.
package cmd

import (
	"context"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/starship"
	"github.com/grovetools/wallcycle/version"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the wallcycle command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"wallcycle",
		"Rotate the desktop wallpaper on a timer through an external picker",
	)
	rootCmd.Long = `wallcycle keeps a wallpaper rotation running. The daemon owns the timer
and calls the picker with the wallpaper directory and a delay; the other
commands talk to the daemon over its local socket, or act directly on the
settings file when no daemon is running.

Examples:
  # Start rotating in the foreground
  wallcycle daemon start

  # Skip ahead
  wallcycle next
`
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_, err := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
		return err
	}

	info := version.GetInfo()
	cli.SetVersionTemplate(rootCmd, info)

	rootCmd.AddCommand(NewDaemonCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewControlCmds()...)
	rootCmd.AddCommand(NewSettingsCmd())
	rootCmd.AddCommand(NewLogsCmd())
	rootCmd.AddCommand(NewPathsCmd())
	rootCmd.AddCommand(starship.NewStarshipCmd("wallcycle", promptStatus))
	rootCmd.AddCommand(cli.NewVersionCommand("wallcycle", info))

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}

func promptStatus(ctx context.Context) (*rotation.Snapshot, error) {
	client := newClient()
	defer client.Close()
	return client.Status(ctx)
}
