package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/daemon/collector"
	"github.com/grovetools/wallcycle/internal/daemon/engine"
	"github.com/grovetools/wallcycle/internal/daemon/metrics"
	"github.com/grovetools/wallcycle/internal/daemon/pidfile"
	"github.com/grovetools/wallcycle/internal/daemon/server"
	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/grovetools/wallcycle/internal/gateway"
	"github.com/grovetools/wallcycle/internal/picker"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/grovetools/wallcycle/pkg/paths"
	"github.com/grovetools/wallcycle/pkg/process"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or control the wallcycle daemon",
		Long:  "The daemon owns the rotation timer, watches the settings file and serves the local API.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

// loadDaemonSettings reads the settings file. A missing or invalid file is
// logged and replaced by the defaults so the daemon still starts.
func loadDaemonSettings(path string, logger *logrus.Entry) *config.Settings {
	settings, err := config.Load(path)
	if err == nil {
		return settings
	}
	if errors.Is(err, errors.ErrCodeConfigNotFound) {
		logger.WithField("path", path).Info("No settings file, using defaults")
	} else {
		logger.WithError(err).WithField("path", path).Error("Failed to load settings, using defaults")
	}
	settings = &config.Settings{}
	settings.SetDefaults()
	return settings
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the wallcycle daemon in foreground mode. Logs go to stderr and to the daemon log file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			if opts.Verbose {
				logging.SetLevel(logrus.DebugLevel)
			}
			logger := logging.NewLogger("wallcycled")

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			if closer, err := logging.SetFileOutput(paths.DaemonLogPath()); err != nil {
				logger.WithError(err).Warn("Logging to stderr only")
			} else {
				defer closer.Close()
			}

			pidPath := paths.PidFilePath()
			sockPath := paths.SocketPath()
			settingsPath, err := cli.InitConfig(opts.ConfigFile)
			if err != nil {
				return err
			}

			// 1. Acquire Lock
			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Settings, picker and controller
			settings := loadDaemonSettings(settingsPath, logger)
			initial, err := gateway.FromSettings(settings)
			if err != nil {
				logger.WithError(err).Warn("Invalid rotation settings; rotation stays idle until they are fixed")
			}

			timeout, err := settings.PickerTimeoutDuration()
			if err != nil {
				logger.WithError(err).Warn("Ignoring picker_timeout")
			}
			inv := picker.New(settings.Picker, picker.WithTimeout(timeout))
			if err := inv.Check(); err != nil {
				logger.WithError(err).Warn("Picker not found; rotations will fail until it is installed")
			}

			rec := metrics.New(nil)
			ctl := rotation.New(rec.Instrument(inv), initial)
			ctl.OnChange(rec.Observe)
			gw := gateway.New(ctl)

			// 3. Store and Engine
			st := store.New()
			rec.ObserveReloads(st.Reloads)
			eng := engine.New(st, ctl, logger)
			eng.Register(collector.NewStatusCollector(ctl))
			eng.Register(collector.NewSettingsCollector(settingsPath, *settings, gw))

			// 4. Server
			srv := server.New(logger)
			srv.SetEngine(eng)
			srv.SetController(ctl)
			srv.SetMetrics(rec.Handler())
			srv.SetRunningConfig(&daemon.RunningConfig{
				Settings:     *settings,
				SettingsPath: settingsPath,
				Picker:       inv.Picker(),
				PID:          os.Getpid(),
				StartedAt:    time.Now(),
			})

			// 5. Signals stop the server; the engine follows
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				<-ctx.Done()
				logger.Info("Received stop signal")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
			}()

			engineDone := make(chan struct{})
			go func() {
				defer close(engineDone)
				eng.Start(ctx)
			}()

			// 6. Serve (blocking)
			logger.WithFields(logrus.Fields{
				"pid":      os.Getpid(),
				"settings": settingsPath,
				"picker":   inv.Picker(),
			}).Info("Starting daemon")
			serveErr := srv.ListenAndServe(sockPath)

			cancel()
			<-engineDone
			_ = os.Remove(sockPath)

			if serveErr != nil {
				return fmt.Errorf("server error: %w", serveErr)
			}
			logger.Info("Daemon stopped")
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

// DaemonStatus is the --json output of `daemon status`.
type DaemonStatus struct {
	Running bool                  `json:"running"`
	PID     int                   `json:"pid,omitempty"`
	Socket  string                `json:"socket"`
	Config  *daemon.RunningConfig `json:"config,omitempty"`
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Long:  "Check whether the daemon is running. Exits non-zero when it is stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			status := DaemonStatus{Running: running, PID: pid, Socket: paths.SocketPath()}
			if running {
				if client, err := daemon.Connect(); err == nil {
					status.Config, _ = client.Config(commandContext(cmd))
					client.Close()
				}
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				if err := printJSON(out, status); err != nil {
					return err
				}
			} else if running {
				fmt.Fprintf(out, "Running (PID: %d)\nSocket: %s\n", pid, status.Socket)
				if status.Config != nil {
					fmt.Fprintf(out, "Settings: %s\nPicker: %s\nUptime: %s\n",
						status.Config.SettingsPath, status.Config.Picker,
						time.Since(status.Config.StartedAt).Round(time.Second))
				}
			} else {
				fmt.Fprintln(out, "Stopped")
			}

			if !running {
				// Non-zero for scripts.
				os.Exit(1)
			}
			return nil
		},
	}
}
