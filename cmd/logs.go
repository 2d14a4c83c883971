package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/pkg/paths"
	"github.com/grovetools/wallcycle/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// LogEntry is one parsed line of the daemon log.
type LogEntry struct {
	Time      string                 `json:"time,omitempty"`
	Level     string                 `json:"level,omitempty"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: `Prints the daemon log file. Lines written with either the text or the
json log format are recognised.

Examples:
  # Follow the daemon log
  wallcycle logs -f

  # The last 50 warnings and errors
  wallcycle logs --tail 50 --level warn

  # JSON Lines for other tools
  wallcycle logs --json
`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of the log (default: all)")
	cmd.Flags().String("level", "", "Only show entries at or above this level")
	cmd.Flags().String("file", "", "Log file to read (default: the daemon log)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")
	levelFlag, _ := cmd.Flags().GetString("level")
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = paths.DaemonLogPath()
	}

	minLevel := logrus.TraceLevel
	if levelFlag != "" {
		lvl, err := logrus.ParseLevel(levelFlag)
		if err != nil {
			return fmt.Errorf("invalid --level: %w", err)
		}
		minLevel = lvl
	}

	offset := int64(0)
	if tailLines >= 0 {
		var err error
		if offset, err = lastLinesOffset(path, tailLines); err != nil && !(follow && os.IsNotExist(err)) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: !follow,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer t.Cleanup()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		entry := parseLogLine(line.Text)
		if !levelAtLeast(entry.Level, minLevel) {
			continue
		}
		if opts.JSONOutput {
			if err := enc.Encode(entry); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out, formatLogEntry(entry))
	}
	return nil
}

// lastLinesOffset returns the byte offset at which the last n lines of the
// file start.
func lastLinesOffset(path string, n int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if n == 0 {
		end, err := f.Seek(0, io.SeekEnd)
		return end, err
	}

	// Ring of the start offsets of the most recent n lines.
	starts := make([]int64, 0, n)
	var pos int64
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if len(starts) == n {
				starts = starts[1:]
			}
			starts = append(starts, pos)
			pos += int64(len(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if len(starts) == 0 {
		return pos, nil
	}
	return starts[0], nil
}

var textLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} )?\[([A-Z]+)\](?: \[([^\]]+)\])? (.*)$`)

// parseLogLine reads a line written by the json or the text formatter.
// Anything else becomes a message without level.
func parseLogLine(line string) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err == nil {
		entry := LogEntry{}
		entry.Time, _ = raw["time"].(string)
		entry.Level, _ = raw["level"].(string)
		entry.Component, _ = raw["component"].(string)
		entry.Message, _ = raw["msg"].(string)
		for k, v := range raw {
			switch k {
			case "time", "level", "component", "msg":
				continue
			}
			if entry.Fields == nil {
				entry.Fields = make(map[string]interface{})
			}
			entry.Fields[k] = v
		}
		return entry
	}

	m := textLine.FindStringSubmatch(line)
	if m == nil {
		return LogEntry{Message: line}
	}
	level := strings.ToLower(m[2])
	if level == "warn" {
		level = "warning"
	}
	return LogEntry{
		Time:      strings.TrimSpace(m[1]),
		Level:     level,
		Component: m[3],
		Message:   m[4],
	}
}

// levelAtLeast reports whether level is as severe as min. Entries without
// a level always pass.
func levelAtLeast(level string, min logrus.Level) bool {
	if level == "" {
		return true
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return true
	}
	return lvl <= min
}

func levelStyle(t *theme.Theme, level string) lipgloss.Style {
	switch level {
	case "error", "fatal", "panic":
		return t.Error
	case "warning":
		return t.Warning
	case "info":
		return t.Info
	default:
		return t.Muted
	}
}

// formatLogEntry renders an entry for the terminal.
func formatLogEntry(e LogEntry) string {
	t := theme.DefaultTheme
	if e.Level == "" {
		return e.Message
	}

	ts := e.Time
	if parsed, err := time.Parse(time.RFC3339Nano, e.Time); err == nil {
		ts = parsed.Local().Format("15:04:05")
	} else if parsed, err := time.ParseInLocation("2006-01-02 15:04:05", e.Time, time.Local); err == nil {
		ts = parsed.Format("15:04:05")
	}

	parts := []string{}
	if ts != "" {
		parts = append(parts, t.Muted.Render(ts))
	}
	parts = append(parts, levelStyle(t, e.Level).Render(strings.ToUpper(e.Level)))
	if e.Component != "" {
		parts = append(parts, t.Accent.Render("["+e.Component+"]"))
	}
	parts = append(parts, e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", t.Muted.Render(k), e.Fields[k]))
	}
	return strings.Join(parts, " ")
}
