package validation

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/client_frame.json
var clientFrameSchema []byte

var (
	frameSchemaOnce sync.Once
	frameSchema     *gojsonschema.Schema
	frameSchemaErr  error
)

// LoadSchema compiles a JSON schema document
func LoadSchema(schemaData []byte) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return schema, nil
}

// Validate checks a JSON document against a schema
func Validate(document []byte, schema *gojsonschema.Schema) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// ValidateClientFrame checks a frame received on the real-time channel
func ValidateClientFrame(frame []byte) error {
	frameSchemaOnce.Do(func() {
		frameSchema, frameSchemaErr = LoadSchema(clientFrameSchema)
	})
	if frameSchemaErr != nil {
		return frameSchemaErr
	}
	return Validate(frame, frameSchema)
}
