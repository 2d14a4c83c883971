// Package testutil holds fixtures shared by the wallcycle tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// argsFile is written by the stub picker next to itself.
const argsFile = "args"

// WritePicker installs a shell script standing in for the picker and
// returns its path. The script records its arguments, one per line, in a
// file next to itself and then runs body.
func WritePicker(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "picker")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"$(dirname \"$0\")/" + argsFile + "\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// RecordedArgs returns the arguments of the last run of a WritePicker
// script, or nil when it never ran.
func RecordedArgs(t *testing.T, picker string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(filepath.Dir(picker), argsFile))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// WallpaperDir creates a directory holding the named (empty) image files.
func WallpaperDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	return dir
}

// SettingsFile writes content to a fresh settings file and returns its path.
// The extension picks the encoding, as it does for real settings files.
func SettingsFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
