// Command schema-generator writes the JSON Schema of the settings file,
// including the logging extension, to schema/definitions.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/schema"
)

func main() {
	base, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating settings schema: %v", err)
	}
	logSchema, err := logging.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating logging schema: %v", err)
	}

	composed, err := schema.Compose(base, map[string][]byte{"logging": logSchema})
	if err != nil {
		log.Fatalf("Error composing schema: %v", err)
	}

	outputDir := filepath.Join("schema", "definitions")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(outputDir, "settings.schema.json")
	if err := os.WriteFile(outputPath, composed, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated settings schema at %s", outputPath)
}
