package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the core settings keys.
// Extension sections (such as logging) are composed in by the caller.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extensions live next to the core keys.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Settings{})
	schema.Title = "wallcycle settings"
	schema.Description = "Settings read by the wallcycle daemon."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
