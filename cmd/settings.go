package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/command"
	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/gateway"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/schema"
	"github.com/grovetools/wallcycle/state"
	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// settingsKeys are the documented top-level keys of the settings file.
var settingsKeys = []struct{ key, help string }{
	{config.KeyWallpaperPath, "directory holding the wallpapers"},
	{config.KeyWallpaperDelay, "seconds passed to the picker on a scheduled rotation"},
	{config.KeyWallpaperTimer, "seconds between rotations (0 stops rotation)"},
	{config.KeyWallpaperPaused, "true to pause rotation"},
	{config.KeyPicker, "picker executable"},
	{config.KeyPickerTimeout, "maximum picker run time"},
	{"logging", "log level, format and file settings"},
}

// NewSettingsCmd creates the `settings` command.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change the settings file",
		Long: `Read and change the settings file. A running daemon picks up changes
as soon as the file is written.

Examples:
  # Rotate every ten minutes
  wallcycle settings set wallpaper_timer 600

  # Point at a different directory
  wallcycle settings set wallpaper_path ~/Pictures/space
`,
	}

	cmd.AddCommand(newSettingsGetCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsUnsetCmd())
	cmd.AddCommand(newSettingsPathCmd())
	cmd.AddCommand(newSettingsEditCmd())
	cmd.AddCommand(newSettingsSchemaCmd())

	cli.SetStyledHelpWithExtras(cmd, func(w io.Writer, t *theme.Theme) {
		fmt.Fprintln(w, "\n "+t.Header.Render("KEYS"))
		for _, k := range settingsKeys {
			fmt.Fprintf(w, " %-18s %s\n", k.key, t.Muted.Render(k.help))
		}
	})

	return cmd
}

func settingsStore(cmd *cobra.Command) (*state.Store, error) {
	path, err := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
	if err != nil {
		return nil, err
	}
	return state.New(path), nil
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting or the whole file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(cmd)
			if err != nil {
				return err
			}
			st, err := store.Load()
			if err != nil {
				return err
			}

			var v interface{} = map[string]interface{}(st)
			if len(args) == 1 {
				val, ok := st[args[0]]
				if !ok {
					return errors.InvalidInput("key", args[0], "not set")
				}
				v = val
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(out, v)
			}
			if s, ok := v.(string); ok {
				fmt.Fprintln(out, s)
				return nil
			}
			data, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

// typedValue converts a command-line value into what the settings file
// stores for key. Rotation keys are checked the same way the daemon reads
// them.
func typedValue(key, raw string) (interface{}, error) {
	switch key {
	case config.KeyPicker, config.KeyPickerTimeout:
		return raw, nil
	case config.KeyWallpaperPath, config.KeyWallpaperDelay, config.KeyWallpaperTimer, config.KeyWallpaperPaused:
		change, err := gateway.ChangesFromKey(key, raw)
		if err != nil {
			return nil, err
		}
		switch c := change.(type) {
		case gateway.DirectoryChanged:
			return c.Path, nil
		case gateway.DelayChanged:
			return int(c.Delay / time.Second), nil
		case gateway.IntervalChanged:
			return int(c.Interval / time.Second), nil
		case gateway.PausedChanged:
			return c.Paused, nil
		}
	}

	var v interface{}
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw, nil
	}
	return v, nil
}

// validateState rejects a settings document the daemon would not load.
func validateState(st state.State) error {
	settings, err := config.Decode(map[string]interface{}(st))
	if err != nil {
		return err
	}
	settings.SetDefaults()
	return settings.Validate()
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]
			value, err := typedValue(key, raw)
			if err != nil {
				return err
			}

			store, err := settingsStore(cmd)
			if err != nil {
				return err
			}
			err = store.Update(func(st state.State) error {
				st[key] = value
				return validateState(st)
			})
			if err != nil {
				return err
			}

			cli.GetLogger(cmd).WithField("key", key).Debugf("Wrote %s", store.Path())
			logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr()).Success(fmt.Sprintf("%s = %v", key, value))
			return nil
		},
	}
}

func newSettingsUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove one setting so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(cmd)
			if err != nil {
				return err
			}
			return store.Update(func(st state.State) error {
				delete(st, args[0])
				return validateState(st)
			})
		},
	}
}

func newSettingsPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

// editorCommand returns the program and arguments used to open path:
// $VISUAL, then $EDITOR, then xdg-open.
func editorCommand(path string) (string, []string) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields[0], append(fields[1:], path)
		}
	}
	return "xdg-open", []string{path}
}

func newSettingsEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the settings file in an editor",
		Long:  "Open the settings file in $VISUAL or $EDITOR, falling back to xdg-open. The file is created when missing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(cmd)
			if err != nil {
				return err
			}
			path := store.Path()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := store.Save(state.State{}); err != nil {
					return err
				}
			}

			name, editorArgs := editorCommand(path)
			sb := command.NewSafeBuilder()
			if err := sb.Validate(command.ArgExecutable, name); err != nil {
				return errors.InvalidInput("editor", name, err.Error())
			}
			if err := sb.Validate(command.ArgFileName, path); err != nil {
				return errors.InvalidInput("path", path, err.Error())
			}

			// No timeout: the editor runs as long as the user keeps it open.
			editor := (&command.RealExecutor{}).Command(name, editorArgs...)
			editor.Stdin = os.Stdin
			editor.Stdout = cmd.OutOrStdout()
			editor.Stderr = cmd.ErrOrStderr()
			if err := editor.Run(); err != nil {
				return errors.CommandFailed(name, err)
			}
			return nil
		},
	}
}

// composedSchema is the settings schema with the extension sections merged in.
func composedSchema() ([]byte, error) {
	base, err := config.GenerateSchema()
	if err != nil {
		return nil, err
	}
	logSchema, err := logging.GenerateSchema()
	if err != nil {
		return nil, err
	}
	return schema.Compose(base, map[string][]byte{"logging": logSchema})
}

func newSettingsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := composedSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
