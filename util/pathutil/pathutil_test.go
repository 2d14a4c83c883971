package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFileScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"file:///home/me/Pictures", "/home/me/Pictures"},
		{"/home/me/Pictures", "/home/me/Pictures"},
		{"file:///home/me/My%20Walls", "/home/me/My Walls"},
		{"file:///bad%zzpath", "/bad%zzpath"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFileScheme(tt.in), tt.in)
	}
}

func TestNormalizeDirectory(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := NormalizeDirectory("~/Pictures/wallpapers/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Pictures", "wallpapers"), got)

	got, err = NormalizeDirectory("file:///srv/walls/../walls")
	require.NoError(t, err)
	assert.Equal(t, "/srv/walls", got)

	got, err = NormalizeDirectory("   ")
	require.NoError(t, err)
	assert.Empty(t, got)

	t.Setenv("WALL_ROOT", "/data")
	got, err = NormalizeDirectory("$WALL_ROOT/images")
	require.NoError(t, err)
	assert.Equal(t, "/data/images", got)

	got, err = NormalizeDirectory("/srv/Tom & Jerry/$WALL_ROOT")
	require.NoError(t, err)
	assert.Equal(t, "/srv/Tom & Jerry/$WALL_ROOT", got)

	got, err = NormalizeDirectory("file:///srv/price%20%245")
	require.NoError(t, err)
	assert.Equal(t, "/srv/price $5", got)
}

func TestComparePaths(t *testing.T) {
	dir := t.TempDir()
	same, err := ComparePaths(dir, filepath.Join(dir, "sub", ".."))
	require.NoError(t, err)
	assert.True(t, same)

	same, err = ComparePaths(dir, filepath.Join(dir, "other"))
	require.NoError(t, err)
	assert.False(t, same)
}
