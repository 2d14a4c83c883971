package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Compose merges extension schemas into the properties of a base schema.
// Each extension is added under its key; a key already defined by the base
// schema is an error.
func Compose(base []byte, extensions map[string][]byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, fmt.Errorf("parse base schema: %w", err)
	}

	props, _ := doc["properties"].(map[string]interface{})
	if props == nil {
		props = make(map[string]interface{})
		doc["properties"] = props
	}

	keys := make([]string, 0, len(extensions))
	for k := range extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, exists := props[key]; exists {
			return nil, fmt.Errorf("extension %q collides with a core property", key)
		}
		var ext map[string]interface{}
		if err := json.Unmarshal(extensions[key], &ext); err != nil {
			return nil, fmt.Errorf("parse schema for extension %q: %w", key, err)
		}
		// Nested documents must not redeclare the dialect.
		delete(ext, "$schema")
		delete(ext, "$id")
		props[key] = ext
	}

	return json.MarshalIndent(doc, "", "  ")
}
