package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{KeyWallpaperPath, KeyWallpaperDelay, KeyWallpaperTimer, KeyWallpaperPaused, KeyPicker, KeyPickerTimeout} {
		assert.Contains(t, props, key)
	}
	assert.NotContains(t, props, "Extensions")
	assert.Nil(t, doc["required"])

	timer := props[KeyWallpaperTimer].(map[string]interface{})
	assert.Equal(t, "integer", timer["type"])
	assert.Equal(t, float64(0), timer["minimum"])
}
