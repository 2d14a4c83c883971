package starship

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/spf13/cobra"
)

// StatusFunc fetches the current snapshot.
type StatusFunc func(ctx context.Context) (*rotation.Snapshot, error)

// statusTimeout bounds the prompt command; a slow daemon yields no output.
const statusTimeout = 200 * time.Millisecond

// NewStarshipCmd creates the starship command and its subcommands.
// binaryName is the command written into starship.toml.
func NewStarshipCmd(binaryName string, status StatusFunc) *cobra.Command {
	starshipCmd := &cobra.Command{
		Use:   "starship",
		Short: "Manage Starship prompt integration",
		Long:  `Provides commands to show the wallpaper rotation status in the Starship prompt.`,
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the wallcycle module to your starship.toml",
		Long: `Appends a custom module to your starship.toml configuration file and
adds it to the prompt format when possible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := os.Getenv("STARSHIP_CONFIG")
			if configPath == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("could not get home directory: %w", err)
				}
				configPath = filepath.Join(home, ".config", "starship.toml")
			}
			return Install(cmd.OutOrStdout(), configPath, binaryName)
		},
	}

	statusCmd := &cobra.Command{
		Use:    "status",
		Short:  "Print status for Starship prompt (for internal use)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
			defer cancel()
			fmt.Fprint(cmd.OutOrStdout(), Render(ctx, status))
			return nil
		},
	}

	starshipCmd.AddCommand(installCmd)
	starshipCmd.AddCommand(statusCmd)

	return starshipCmd
}

// Render runs every provider against the current snapshot. Errors yield an
// empty segment; the prompt must never show them.
func Render(ctx context.Context, status StatusFunc) string {
	snap, err := status(ctx)
	if err != nil || snap == nil {
		return ""
	}

	var outputs []string
	for _, provider := range providers {
		output, err := provider(snap)
		if err != nil {
			continue
		}
		if output != "" {
			outputs = append(outputs, output)
		}
	}
	return strings.Join(outputs, " | ")
}

func moduleConfig(binaryName string) string {
	return fmt.Sprintf(`
# Added by '%s starship install'
[custom.wallcycle]
description = "Shows the wallpaper rotation status"
command = "%s starship status"
when = true
format = " $output "
`, binaryName, binaryName)
}

// Install adds or refreshes the [custom.wallcycle] module in the starship
// config at configPath.
func Install(out io.Writer, configPath, binaryName string) error {
	contentBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("starship config not found at %s. Please ensure starship is installed and configured", configPath)
		}
		return fmt.Errorf("could not read starship config: %w", err)
	}
	content := string(contentBytes)
	module := moduleConfig(binaryName)

	// 1. Module definition
	if idx := strings.Index(content, "[custom.wallcycle]"); idx != -1 {
		startIdx := idx
		// Take the comment line written with the module along.
		if header := strings.LastIndex(content[:idx], "\n# Added by"); header != -1 &&
			strings.Count(content[header+1:idx], "\n") == 1 {
			startIdx = header
		}
		endIdx := len(content)
		if next := strings.Index(content[idx+1:], "\n["); next != -1 {
			endIdx = idx + 1 + next
		}
		content = content[:startIdx] + module + content[endIdx:]
		fmt.Fprintln(out, "✓ Updated existing wallcycle starship module configuration.")
	} else {
		content += module
		fmt.Fprintln(out, "✓ Added [custom.wallcycle] module to starship config.")
	}

	// 2. Prompt format
	switch {
	case strings.Contains(content, "${custom.wallcycle}") || strings.Contains(content, "$custom.wallcycle"):
		fmt.Fprintln(out, "✓ wallcycle module already in starship format.")
	case strings.Contains(content, "$time\\"):
		content = strings.Replace(content, "$time\\", "${custom.wallcycle}\\\n$time\\", 1)
		fmt.Fprintln(out, "✓ Added wallcycle module to starship format.")
	default:
		fmt.Fprintf(out, "⚠️  Could not automatically add '${custom.wallcycle}' to your starship format.\n")
		fmt.Fprintf(out, "   Please add it manually to the 'format' string in %s\n", configPath)
	}

	// 3. Write back
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write updated starship config: %w", err)
	}

	fmt.Fprintf(out, "\nSuccessfully updated %s. Please restart your shell to see the changes.\n", configPath)
	return nil
}
