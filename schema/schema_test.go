package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "wallpaper_timer": {"type": "integer", "minimum": 0}
  }
}`

func TestValidator(t *testing.T) {
	v, err := NewValidator("test.json", []byte(testSchema))
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]interface{}{"wallpaper_timer": 60}))

	err = v.Validate(map[string]interface{}{"wallpaper_timer": -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/wallpaper_timer")
}

func TestNewValidatorRejectsBrokenSchema(t *testing.T) {
	_, err := NewValidator("broken.json", []byte(`{"type": `))
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	ext := []byte(`{"$schema": "x", "type": "object", "properties": {"level": {"type": "string"}}}`)
	out, err := Compose([]byte(testSchema), map[string][]byte{"logging": ext})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	props := doc["properties"].(map[string]interface{})
	require.Contains(t, props, "logging")
	assert.NotContains(t, props["logging"], "$schema")

	v, err := NewValidator("composed.json", out)
	require.NoError(t, err)
	assert.Error(t, v.Validate(map[string]interface{}{"logging": map[string]interface{}{"level": 3}}))
}

func TestComposeCollision(t *testing.T) {
	_, err := Compose([]byte(testSchema), map[string][]byte{"wallpaper_timer": []byte(`{}`)})
	assert.Error(t, err)
}
