package cmd

import (
	"fmt"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput represents the paths used by wallcycle.
type PathsOutput struct {
	ConfigDir  string `json:"config_dir"`
	StateDir   string `json:"state_dir"`
	LogDir     string `json:"log_dir"`
	RuntimeDir string `json:"runtime_dir"`
	Settings   string `json:"settings"`
	Socket     string `json:"socket"`
	PidFile    string `json:"pid_file"`
	DaemonLog  string `json:"daemon_log"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by wallcycle",
		Long: `Print the XDG-compliant paths used by wallcycle.

WALLCYCLE_HOME moves everything under one portable root. Otherwise the
XDG_CONFIG_HOME, XDG_STATE_HOME and XDG_RUNTIME_DIR variables apply, and
WALLCYCLE_SETTINGS (or --config) names the settings file directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
			if err != nil {
				return err
			}
			output := PathsOutput{
				ConfigDir:  paths.ConfigDir(),
				StateDir:   paths.StateDir(),
				LogDir:     paths.LogDir(),
				RuntimeDir: paths.RuntimeDir(),
				Settings:   settings,
				Socket:     paths.SocketPath(),
				PidFile:    paths.PidFilePath(),
				DaemonLog:  paths.DaemonLogPath(),
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd.OutOrStdout(), output)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config_dir   %s\n", output.ConfigDir)
			fmt.Fprintf(out, "state_dir    %s\n", output.StateDir)
			fmt.Fprintf(out, "log_dir      %s\n", output.LogDir)
			fmt.Fprintf(out, "runtime_dir  %s\n", output.RuntimeDir)
			fmt.Fprintf(out, "settings     %s\n", output.Settings)
			fmt.Fprintf(out, "socket       %s\n", output.Socket)
			fmt.Fprintf(out, "pid_file     %s\n", output.PidFile)
			fmt.Fprintf(out, "daemon_log   %s\n", output.DaemonLog)
			return nil
		},
	}

	return cmd
}
