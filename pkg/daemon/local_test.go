package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoker struct {
	mu    sync.Mutex
	modes []string
}

func (s *stubInvoker) Invoke(_ context.Context, _, mode string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
	return "Last changed " + mode
}

func newLocal(t *testing.T, body string) (*LocalClient, *stubInvoker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yml")
	if body != "" {
		writeSettings(t, path, body)
	}
	inv := &stubInvoker{}
	return NewLocalClientWithSettings(path).WithInvoker(inv), inv, path
}

func TestLocalClientNext(t *testing.T) {
	walls := t.TempDir()
	client, inv, _ := newLocal(t, "wallpaper_path: "+walls+"\nwallpaper_delay: 5\nwallpaper_timer: 60\nwallpaper_paused: true\n")

	snap, err := client.Do(context.Background(), CommandNext)
	require.NoError(t, err)

	assert.Equal(t, []string{"next"}, inv.modes)
	assert.Equal(t, "Last changed next", snap.Status.LastChangedLabel)
	assert.Equal(t, rotation.StateStopped, snap.State)
	assert.Equal(t, ReasonNoDaemon, snap.Reason)
	assert.Nil(t, snap.NextRunAt)
}

func TestLocalClientRunsConfiguredPicker(t *testing.T) {
	picker := testutil.WritePicker(t, `echo "Last changed: $2"`)
	walls := testutil.WallpaperDir(t, "a.jpg")
	path := testutil.SettingsFile(t, "settings.yml",
		"wallpaper_path: "+walls+"\nwallpaper_delay: 5\nwallpaper_timer: 60\npicker: "+picker+"\n")

	snap, err := NewLocalClientWithSettings(path).Do(context.Background(), CommandPrev)
	require.NoError(t, err)

	assert.Equal(t, []string{walls, "prev"}, testutil.RecordedArgs(t, picker))
	assert.Equal(t, "Last changed: prev", snap.Status.LastChangedLabel)
}

func TestLocalClientRestartUsesDelay(t *testing.T) {
	walls := t.TempDir()
	client, inv, _ := newLocal(t, "wallpaper_path: "+walls+"\nwallpaper_delay: 7\nwallpaper_timer: 60\n")

	_, err := client.Do(context.Background(), CommandRestart)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, inv.modes)
}

func TestLocalClientPauseWritesSettings(t *testing.T) {
	client, inv, path := newLocal(t, "wallpaper_delay: 5\n")

	snap, err := client.Do(context.Background(), CommandTogglePaused)
	require.NoError(t, err)
	assert.True(t, snap.Config.Paused)

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, s.WallpaperPaused)
	assert.Equal(t, 5, s.WallpaperDelay, "other keys are kept")

	snap, err = client.Do(context.Background(), CommandResume)
	require.NoError(t, err)
	assert.False(t, snap.Config.Paused)
	assert.Empty(t, inv.modes)
}

func TestLocalClientStatusWithoutSettingsFile(t *testing.T) {
	t.Setenv("HOME", "/home/u")
	client, _, _ := newLocal(t, "")

	snap, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/home/u/Pictures/wallpapers", snap.Config.Directory)
	assert.Equal(t, time.Duration(0), snap.Config.Interval)
}

func TestLocalClientUnavailableOperations(t *testing.T) {
	client, _, _ := newLocal(t, "")

	_, err := client.StreamStatus(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonNotRunning))

	_, err = client.Config(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonNotRunning))

	_, err = client.Do(context.Background(), "sideways")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	assert.False(t, client.IsRunning())
}

func TestConnectToMissingSocket(t *testing.T) {
	_, err := ConnectTo(filepath.Join(t.TempDir(), "none.sock"))
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonNotRunning))
}
